package recommendation

import (
	"time"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/xid"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

const (
	LocationUrban    = "urban"
	LocationSuburban = "suburban"
	LocationRural    = "rural"
)

type BusinessIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Capital     string `json:"capital"`
	Profit      int    `json:"profit"`
	Difficulty  string `json:"difficulty"`
	Trend       string `json:"trend"`
}

type Recipe struct {
	Title        string `json:"title"`
	Channel      string `json:"channel"`
	Duration     string `json:"duration"`
	Views        string `json:"views"`
	PublishedAt  string `json:"published_at"`
	URL          string `json:"url"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
	Budget       string `json:"budget"`
	HPP          int64  `json:"hpp"`
	SellingPrice int64  `json:"selling_price"`
	Margin       int    `json:"margin"`
}

type MarketAnalysis struct {
	Location        string   `json:"location"`
	MarketSize      string   `json:"market_size"`
	Competition     string   `json:"competition"`
	Opportunities   []string `json:"opportunities"`
	Threats         []string `json:"threats"`
	Recommendations []string `json:"recommendations"`
	ProfitPotential string   `json:"profit_potential"`
}

var ideas = []BusinessIdea{
	{Title: "Mini Padang Food Stall", Description: "Small capital, solid returns. Cost per portion Rp 8,000, sells at Rp 18,000. Targets office workers and families.", Category: "food", Capital: "low", Profit: 55, Difficulty: "medium", Trend: "stable"},
	{Title: "Viral Fried Meatballs", Description: "Trending on social media. Crispy fried meatballs, Rp 2 million to start, pays back in 3 months. Targets students and young adults.", Category: "food", Capital: "low", Profit: 70, Difficulty: "easy", Trend: "rising"},
	{Title: "Palm Sugar Iced Coffee", Description: "Popular with everyone. Cost Rp 4,000 per cup, sells at Rp 12,000. Works well with delivery.", Category: "beverage", Capital: "low", Profit: 66, Difficulty: "easy", Trend: "stable"},
	{Title: "Homemade Bubble Tea", Description: "Custom toppings. Rp 5 million for equipment, 60-80% margin.", Category: "beverage", Capital: "medium", Profit: 70, Difficulty: "medium", Trend: "stable"},
	{Title: "Homemade Cheese Balls", Description: "Healthy snack for kids that sells well online. Cost Rp 3,000 per pack.", Category: "snack", Capital: "low", Profit: 75, Difficulty: "easy", Trend: "rising"},
	{Title: "Extra Spicy Banana Chips", Description: "Regional specialty that ships well to big cities. Very high margin.", Category: "snack", Capital: "medium", Profit: 80, Difficulty: "medium", Trend: "rising"},
	{Title: "Laundry and Ironing Service", Description: "High demand, moderate competition. Rp 3 million for a washing machine.", Category: "service", Capital: "medium", Profit: 60, Difficulty: "easy", Trend: "stable"},
}

var recipes = []Recipe{
	{Title: "Restaurant-Style Seafood Fried Rice", Channel: "Umami Kitchen", Duration: "8:45", Views: "2.1M", PublishedAt: "2024-01-15", URL: "https://youtube.com/watch?v=sample1", Category: "main_course", Difficulty: "medium", Budget: "low", HPP: 12000, SellingPrice: 25000, Margin: 52},
	{Title: "Viral Palm Sugar Iced Coffee, Full Tutorial", Channel: "Viral Coffee", Duration: "12:30", Views: "856K", PublishedAt: "2024-01-10", URL: "https://youtube.com/watch?v=sample2", Category: "beverage", Difficulty: "easy", Budget: "low", HPP: 4500, SellingPrice: 12000, Margin: 62},
	{Title: "Extra Spicy Banana Chips on a Small Budget", Channel: "Small Business", Duration: "15:20", Views: "445K", PublishedAt: "2024-01-08", URL: "https://youtube.com/watch?v=sample3", Category: "snack", Difficulty: "easy", Budget: "low", HPP: 3500, SellingPrice: 10000, Margin: 65},
}

var opportunityPool = []string{
	"Healthy and organic food is trending",
	"Delivery services are still growing",
	"Room to partner with local cafes",
	"Office lunch subscriptions are in demand",
	"Social media drives impulse snack purchases",
	"Event catering picks up around holidays",
}

var threatPool = []string{
	"Many similar competitors",
	"Volatile raw material prices",
	"Consumer tastes change quickly",
	"Rising rent in busy areas",
	"Platform commission fees cut into margin",
}

var marketAdvice = []string{
	"Focus on what makes the product unique",
	"Use social media for marketing",
	"Build relationships with customers",
	"Track trends regularly",
}

func sampleRecords(now time.Time) []domain.RecommendationRecord {
	return []domain.RecommendationRecord{
		{
			ID:        xid.New("rec"),
			Type:      domain.RecommendationBusinessIdea,
			Title:     "Mobile Coffee Cart",
			Content:   "A mobile coffee cart has strong potential on small capital. Target market: office workers, drivers and busy residents. Profit can reach 60-70% per cup.",
			Category:  domain.CategoryBeverage,
			Priority:  PriorityHigh,
			CreatedAt: now,
		},
		{
			ID:        xid.New("rec"),
			Type:      domain.RecommendationRecipe,
			Title:     "Seafood Fried Rice Recipe",
			Content:   "Full video tutorial: https://youtube.com/watch?v=sample1. Ingredients: white rice, shrimp, squid, egg, garlic, sweet soy sauce. Cost per portion: Rp 8,000, selling price: Rp 18,000.",
			Category:  domain.CategoryFood,
			Priority:  PriorityMedium,
			CreatedAt: now,
		},
		{
			ID:        xid.New("rec"),
			Type:      domain.RecommendationMarketAnalysis,
			Title:     "Snack Market Analysis",
			Content:   "Healthy snacks are trending. Taro chips, banana chips and spicy macaroni are in demand. Margin can reach 80%. Targets young adults and households.",
			Category:  domain.CategorySnack,
			Priority:  PriorityHigh,
			CreatedAt: now,
		},
	}
}

func defaultIdeaRecords(now time.Time) []domain.RecommendationRecord {
	defaults := []struct {
		title, content, category, priority string
	}{
		{"Mini Padang Food Stall", "Small capital, solid returns. Cost per portion Rp 8,000, sells at Rp 18,000. Targets office workers and families. Open near office blocks.", domain.CategoryFood, PriorityHigh},
		{"Viral Palm Sugar Iced Coffee", "A favourite with young adults. Sell at campuses and office blocks. Cost Rp 4,000 per cup, sells at Rp 12,000. Works well with delivery.", domain.CategoryBeverage, PriorityHigh},
		{"Homemade Cheese Balls", "Healthy snack for kids, sold online and offline. Cost Rp 3,000 per pack, sells at Rp 8,000. Long shelf life.", domain.CategorySnack, PriorityMedium},
		{"Laundry and Ironing Service", "High demand, moderate competition. Rp 3 million for a washing machine. Targets households and office workers.", domain.CategoryOther, PriorityMedium},
	}
	out := make([]domain.RecommendationRecord, 0, len(defaults))
	for _, d := range defaults {
		out = append(out, domain.RecommendationRecord{
			ID:        xid.New("rec"),
			Type:      domain.RecommendationBusinessIdea,
			Title:     d.title,
			Content:   d.content,
			Category:  d.category,
			Priority:  d.priority,
			CreatedAt: now,
		})
	}
	return out
}
