package domain

import "time"

const (
	CategoryFood     = "food"
	CategoryBeverage = "beverage"
	CategorySnack    = "snack"
	CategoryStaple   = "staple"
	CategoryOther    = "other"
)

var Categories = []string{CategoryFood, CategoryBeverage, CategorySnack, CategoryStaple, CategoryOther}

var categoryLabels = map[string]string{
	CategoryFood:     "Food",
	CategoryBeverage: "Beverage",
	CategorySnack:    "Snack",
	CategoryStaple:   "Staple Goods",
	CategoryOther:    "Other",
}

// CategoryLabel returns the display label for a category code, or the code itself when unknown.
func CategoryLabel(code string) string {
	if label, ok := categoryLabels[code]; ok {
		return label
	}
	return code
}

func ValidCategory(code string) bool {
	_, ok := categoryLabels[code]
	return ok
}

const (
	PaymentCash     = "cash"
	PaymentQRIS     = "qris"
	PaymentTransfer = "transfer"
)

func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentQRIS, PaymentTransfer:
		return true
	}
	return false
}

const StatusCompleted = "completed"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       int64     `json:"price"`
	Cost        int64     `json:"cost"`
	Stock       int       `json:"stock"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Margin is the gross margin in percent. A zero cost counts as 100%.
func (p Product) Margin() float64 {
	if p.Cost == 0 {
		return 100
	}
	if p.Price == 0 {
		return 0
	}
	return float64(p.Price-p.Cost) / float64(p.Price) * 100
}

type ProductInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Cost        int64  `json:"cost"`
	Stock       int    `json:"stock"`
	Description string `json:"description"`
}

type ProductUpdate struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Cost        *int64  `json:"cost,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
	Description *string `json:"description,omitempty"`
}

type LineItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	UnitCost    int64  `json:"unit_cost"`
	LineTotal   int64  `json:"line_total"`
}

type Transaction struct {
	ID              string     `json:"id"`
	Timestamp       time.Time  `json:"timestamp"`
	Subtotal        int64      `json:"subtotal"`
	DiscountPercent float64    `json:"discount_percent"`
	DiscountAmount  int64      `json:"discount_amount"`
	Total           int64      `json:"total"`
	Profit          int64      `json:"profit"`
	PaymentMethod   string     `json:"payment_method"`
	Items           []LineItem `json:"items"`
	Status          string     `json:"status"`
}

// ItemCount is the number of units across all line items.
func (t Transaction) ItemCount() int {
	count := 0
	for _, item := range t.Items {
		count += item.Quantity
	}
	return count
}

type CartEntry struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	UnitCost  int64  `json:"unit_cost"`
	Quantity  int    `json:"quantity"`
	Category  string `json:"category"`
	MaxStock  int    `json:"max_stock"`
}

type CartView struct {
	Entries  []CartEntry `json:"entries"`
	Subtotal int64       `json:"subtotal"`
	Profit   int64       `json:"profit"`
	Units    int         `json:"units"`
}

type PaymentQuote struct {
	Subtotal        int64   `json:"subtotal"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  int64   `json:"discount_amount"`
	Total           int64   `json:"total"`
	AmountReceived  int64   `json:"amount_received"`
	Change          int64   `json:"change"`
	Sufficient      bool    `json:"sufficient"`
}

type CheckoutRequest struct {
	DiscountPercent float64 `json:"discount_percent"`
	PaymentMethod   string  `json:"payment_method"`
	AmountReceived  int64   `json:"amount_received"`
}

type CheckoutResult struct {
	Transaction Transaction `json:"transaction"`
	ChangeDue   int64       `json:"change_due"`
	Unadjusted  []string    `json:"unadjusted,omitempty"`
}

type RestockLog struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	RecommendationBusinessIdea   = "business_idea"
	RecommendationRecipe         = "recipe"
	RecommendationMarketAnalysis = "market_analysis"
)

type RecommendationRecord struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

type Settings struct {
	DarkMode           bool  `json:"dark_mode_enabled"`
	AutoBackup         bool  `json:"auto_backup_enabled"`
	BackupInterval     int   `json:"backup_interval"`
	MonthlySalesTarget int64 `json:"monthly_sales_target"`
}

type SettingsUpdate struct {
	DarkMode           *bool  `json:"dark_mode_enabled,omitempty"`
	AutoBackup         *bool  `json:"auto_backup_enabled,omitempty"`
	BackupInterval     *int   `json:"backup_interval,omitempty"`
	MonthlySalesTarget *int64 `json:"monthly_sales_target,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	PIN string `json:"pin"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
