package domain

import "time"

const (
	StockCritical = "critical"
	StockLow      = "low"
	StockAdequate = "adequate"
	StockSafe     = "safe"
)

const (
	TrendRapidGrowth = "rapid growth"
	TrendGrowing     = "growing"
	TrendDeclining   = "declining"
	TrendStable      = "stable"
)

type WindowTotals struct {
	Revenue  int64   `json:"revenue"`
	Profit   int64   `json:"profit"`
	Expenses int64   `json:"expenses"`
	Margin   float64 `json:"margin"`
	Count    int     `json:"count"`
	Average  float64 `json:"average"`
}

type CategoryStat struct {
	Category   string  `json:"category"`
	Label      string  `json:"label"`
	Sales      int64   `json:"sales"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Growth     float64 `json:"growth"`
	Status     string  `json:"status"`
}

type ProductSales struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Sales     int64  `json:"sales"`
	Quantity  int    `json:"quantity"`
}

type DashboardStats struct {
	TodaySales         int64   `json:"today_sales"`
	TodayProfit        int64   `json:"today_profit"`
	TodayTransactions  int     `json:"today_transactions"`
	SalesChange        float64 `json:"sales_change"`
	ProfitChange       float64 `json:"profit_change"`
	TransactionsChange float64 `json:"transactions_change"`
	MonthRevenue       int64   `json:"month_revenue"`
	MonthProfit        int64   `json:"month_profit"`
	MonthExpenses      int64   `json:"month_expenses"`
	MonthMargin        float64 `json:"month_margin"`
	RevenueChange      float64 `json:"revenue_change"`
	TotalProducts      int     `json:"total_products"`
	LowStockCount      int     `json:"low_stock_count"`
}

type SeriesPoint struct {
	Label    string    `json:"label"`
	Start    time.Time `json:"start"`
	Revenue  int64     `json:"revenue"`
	Profit   int64     `json:"profit"`
	Expenses int64     `json:"expenses"`
	Margin   float64   `json:"margin"`
	Count    int       `json:"count"`
}

const (
	AdviceLowMargin  = "low_margin"
	AdviceHighMargin = "high_margin"
	AdviceLowVolume  = "low_volume"
	AdviceHealthy    = "healthy"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

const (
	ReportTypeSummary    = "summary"
	ReportTypeDetailed   = "detailed"
	ReportTypeProfitLoss = "profit_loss"
	ReportTypeCashFlow   = "cash_flow"
)

const (
	InsightGrowth    = "growth"
	InsightLowStock  = "low_stock"
	InsightDeclining = "declining"
)

type Advice struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Insight struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type SalesTarget struct {
	Target   int64   `json:"target"`
	Achieved int64   `json:"achieved"`
	Progress float64 `json:"progress"`
}

type InventoryRow struct {
	Product       Product `json:"product"`
	Status        string  `json:"status"`
	DaysRemaining int     `json:"days_remaining"`
	Value         int64   `json:"value"`
}

type InventoryReport struct {
	Rows          []InventoryRow `json:"rows"`
	TotalUnits    int            `json:"total_units"`
	StockValue    int64          `json:"stock_value"`
	CriticalCount int            `json:"critical_count"`
	LowCount      int            `json:"low_count"`
}

type FinancialSummary struct {
	Revenue          int64   `json:"revenue"`
	Expenses         int64   `json:"expenses"`
	Profit           int64   `json:"profit"`
	Margin           float64 `json:"margin"`
	TransactionCount int     `json:"transactionCount"`
}

type FinancialDetail struct {
	Period   string  `json:"period"`
	Revenue  int64   `json:"revenue"`
	Expenses int64   `json:"expenses"`
	Profit   int64   `json:"profit"`
	Margin   float64 `json:"margin"`
}

// FinancialReport is the exported financial-report document.
type FinancialReport struct {
	Period      string            `json:"period"`
	ReportType  string            `json:"reportType"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Summary     FinancialSummary  `json:"summary"`
	Details     []FinancialDetail `json:"details"`
}

type CompleteSummary struct {
	TotalSales        int64 `json:"totalSales"`
	TotalProfit       int64 `json:"totalProfit"`
	TotalTransactions int   `json:"totalTransactions"`
	TotalProducts     int   `json:"totalProducts"`
}

type CompleteReport struct {
	GeneratedAt    time.Time       `json:"generatedAt"`
	Summary        CompleteSummary `json:"summary"`
	TopProducts    []ProductSales  `json:"topProducts"`
	CategoryReport []CategoryStat  `json:"categoryReport"`
	Opportunities  []Insight       `json:"opportunities"`
	Warnings       []Insight       `json:"warnings"`
}

type DashboardView struct {
	Stats         DashboardStats `json:"stats"`
	SalesSeries   []SeriesPoint  `json:"sales_series"`
	TopProducts   []ProductSales `json:"top_products"`
	Categories    []CategoryStat `json:"categories"`
	LowStock      []Product      `json:"low_stock"`
	SalesTarget   SalesTarget    `json:"sales_target"`
	Recent        []Transaction  `json:"recent_transactions"`
	Notifications []Notification `json:"notifications"`
}

type FinanceView struct {
	Period          string        `json:"period"`
	Summary         WindowTotals  `json:"summary"`
	Series          []SeriesPoint `json:"series"`
	Recommendations []Advice      `json:"recommendations"`
}
