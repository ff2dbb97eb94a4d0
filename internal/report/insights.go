package report

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"kasirinaja/dashboard/internal/domain"
)

const (
	opportunityGrowth = 15
	warningStockLevel = 10
)

// MonthlyCategories compares the calendar month of now with the month before.
func MonthlyCategories(txs iter.Seq[domain.Transaction], products []domain.Product, now time.Time) []domain.CategoryStat {
	all := slices.Collect(txs)
	current := filter(all, InMonth(now, 0))
	previous := filter(all, InMonth(now, -1))
	return ByCategory(current, previous, products)
}

// Opportunities lists categories growing faster than 15 percent.
func Opportunities(categories []domain.CategoryStat) []domain.Insight {
	out := make([]domain.Insight, 0)
	for _, c := range categories {
		if c.Growth > opportunityGrowth {
			out = append(out, domain.Insight{
				Kind:    domain.InsightGrowth,
				Subject: c.Label,
				Message: fmt.Sprintf("%s sales grew %.1f%% on last month", c.Label, c.Growth),
			})
		}
	}
	return out
}

// Warnings flags low stock products and declining categories.
func Warnings(products []domain.Product, categories []domain.CategoryStat) []domain.Insight {
	out := make([]domain.Insight, 0, 2)
	low := 0
	for _, p := range products {
		if p.Stock <= warningStockLevel {
			low++
		}
	}
	if low > 0 {
		out = append(out, domain.Insight{
			Kind:    domain.InsightLowStock,
			Subject: "inventory",
			Message: fmt.Sprintf("%d products are running low on stock", low),
		})
	}
	declining := 0
	for _, c := range categories {
		if c.Growth < -10 {
			declining++
		}
	}
	if declining > 0 {
		out = append(out, domain.Insight{
			Kind:    domain.InsightDeclining,
			Subject: "sales",
			Message: fmt.Sprintf("%d categories are selling less than last month", declining),
		})
	}
	return out
}

// Complete builds the exportable complete report. Summary totals cover the
// whole ledger; rankings and categories cover the month of now.
func Complete(txs iter.Seq[domain.Transaction], products []domain.Product, now time.Time) domain.CompleteReport {
	all := slices.Collect(txs)
	totals := WindowTotals(slices.Values(all), nil)
	categories := MonthlyCategories(slices.Values(all), products, now)
	return domain.CompleteReport{
		GeneratedAt: now.UTC(),
		Summary: domain.CompleteSummary{
			TotalSales:        totals.Revenue,
			TotalProfit:       totals.Profit,
			TotalTransactions: totals.Count,
			TotalProducts:     len(products),
		},
		TopProducts:    TopProducts(slices.Values(all), products, 5, now),
		CategoryReport: categories,
		Opportunities:  Opportunities(categories),
		Warnings:       Warnings(products, categories),
	}
}

func filter(all []domain.Transaction, pred func(domain.Transaction) bool) iter.Seq[domain.Transaction] {
	return func(yield func(domain.Transaction) bool) {
		for _, tx := range all {
			if pred(tx) && !yield(tx) {
				return
			}
		}
	}
}
