package report

import (
	"iter"
	"slices"
	"time"

	"kasirinaja/dashboard/internal/domain"
)

// LowStockThreshold is the stock level at which the dashboard and the
// periodic check flag a product.
const LowStockThreshold = 5

func Dashboard(txs iter.Seq[domain.Transaction], products []domain.Product, now time.Time) domain.DashboardStats {
	all := slices.Collect(txs)
	today := WindowTotals(slices.Values(all), InDay(now, 0))
	yesterday := WindowTotals(slices.Values(all), InDay(now, -1))
	month := WindowTotals(slices.Values(all), InMonth(now, 0))
	lastMonth := WindowTotals(slices.Values(all), InMonth(now, -1))

	stats := domain.DashboardStats{
		TodaySales:         today.Revenue,
		TodayProfit:        today.Profit,
		TodayTransactions:  today.Count,
		SalesChange:        CalculateChange(float64(today.Revenue), float64(yesterday.Revenue)),
		ProfitChange:       CalculateChange(float64(today.Profit), float64(yesterday.Profit)),
		TransactionsChange: CalculateChange(float64(today.Count), float64(yesterday.Count)),
		MonthRevenue:       month.Revenue,
		MonthProfit:        month.Profit,
		MonthExpenses:      month.Expenses,
		MonthMargin:        month.Margin,
		RevenueChange:      CalculateChange(float64(month.Revenue), float64(lastMonth.Revenue)),
		TotalProducts:      len(products),
	}
	for _, p := range products {
		if p.Stock <= LowStockThreshold {
			stats.LowStockCount++
		}
	}
	return stats
}
