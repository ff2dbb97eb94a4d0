// Package report computes roll-ups over catalog and ledger snapshots. Every
// function is pure: callers pass the data and the current time.
package report

import (
	"cmp"
	"iter"
	"math"
	"slices"
	"time"

	"kasirinaja/dashboard/internal/domain"
)

// WindowTotals sums the transactions matching pred. Margin is a percentage
// of revenue, zero when there is no revenue.
func WindowTotals(txs iter.Seq[domain.Transaction], pred func(domain.Transaction) bool) domain.WindowTotals {
	var out domain.WindowTotals
	for tx := range txs {
		if pred != nil && !pred(tx) {
			continue
		}
		out.Revenue += tx.Total
		out.Profit += tx.Profit
		out.Count++
	}
	out.Expenses = out.Revenue - out.Profit
	if out.Revenue != 0 {
		out.Margin = round2(float64(out.Profit) / float64(out.Revenue) * 100)
	}
	if out.Count > 0 {
		out.Average = round2(float64(out.Revenue) / float64(out.Count))
	}
	return out
}

// ByCategory breaks current sales down per category and compares each with
// the same category in previous. Line items whose product is no longer in
// the catalog are skipped. Results are ordered by sales, highest first.
func ByCategory(current iter.Seq[domain.Transaction], previous iter.Seq[domain.Transaction], products []domain.Product) []domain.CategoryStat {
	categoryOf := make(map[string]string, len(products))
	for _, p := range products {
		categoryOf[p.ID] = p.Category
	}

	stats := make([]domain.CategoryStat, 0, len(domain.Categories))
	index := make(map[string]int)
	var total int64
	for tx := range current {
		for _, item := range tx.Items {
			category, ok := categoryOf[item.ProductID]
			if !ok {
				continue
			}
			i, seen := index[category]
			if !seen {
				i = len(stats)
				index[category] = i
				stats = append(stats, domain.CategoryStat{Category: category, Label: domain.CategoryLabel(category)})
			}
			stats[i].Sales += item.LineTotal
			stats[i].Count++
			total += item.LineTotal
		}
	}

	prior := make(map[string]int64)
	if previous != nil {
		for tx := range previous {
			for _, item := range tx.Items {
				if category, ok := categoryOf[item.ProductID]; ok {
					prior[category] += item.LineTotal
				}
			}
		}
	}

	for i := range stats {
		if total > 0 {
			stats[i].Percentage = round2(float64(stats[i].Sales) / float64(total) * 100)
		}
		if before := prior[stats[i].Category]; before > 0 {
			stats[i].Growth = round2(float64(stats[i].Sales-before) / float64(before) * 100)
		}
		stats[i].Status = TrendStatus(stats[i].Growth)
	}

	slices.SortStableFunc(stats, func(a, b domain.CategoryStat) int { return cmp.Compare(b.Sales, a.Sales) })
	return stats
}

func TrendStatus(growth float64) string {
	switch {
	case growth > 20:
		return domain.TrendRapidGrowth
	case growth > 10:
		return domain.TrendGrowing
	case growth < -10:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

func StockStatus(stock int) string {
	switch {
	case stock <= 5:
		return domain.StockCritical
	case stock <= 10:
		return domain.StockLow
	case stock <= 20:
		return domain.StockAdequate
	default:
		return domain.StockSafe
	}
}

// TopProducts ranks products by summed line revenue within the calendar
// month of now. Ties keep catalog order; products missing from the catalog
// rank after catalog products, in order of first sale.
func TopProducts(txs iter.Seq[domain.Transaction], products []domain.Product, n int, now time.Time) []domain.ProductSales {
	return rankProducts(txs, products, n, now, func(a, b domain.ProductSales) int { return cmp.Compare(b.Sales, a.Sales) })
}

// TopProductsByQuantity is TopProducts ranked by units sold.
func TopProductsByQuantity(txs iter.Seq[domain.Transaction], products []domain.Product, n int, now time.Time) []domain.ProductSales {
	return rankProducts(txs, products, n, now, func(a, b domain.ProductSales) int { return cmp.Compare(b.Quantity, a.Quantity) })
}

func rankProducts(txs iter.Seq[domain.Transaction], products []domain.Product, n int, now time.Time, compare func(a, b domain.ProductSales) int) []domain.ProductSales {
	from, to := MonthRange(now, 0)
	order := make(map[string]int, len(products))
	for i, p := range products {
		order[p.ID] = i
	}

	byID := make(map[string]*domain.ProductSales)
	firstSeen := make(map[string]int)
	for tx := range txs {
		if tx.Timestamp.Before(from) || !tx.Timestamp.Before(to) {
			continue
		}
		for _, item := range tx.Items {
			entry, ok := byID[item.ProductID]
			if !ok {
				entry = &domain.ProductSales{ProductID: item.ProductID, Name: item.ProductName}
				if i, known := order[item.ProductID]; known {
					entry.Name = products[i].Name
					entry.Category = products[i].Category
				}
				byID[item.ProductID] = entry
				firstSeen[item.ProductID] = len(firstSeen)
			}
			entry.Sales += item.LineTotal
			entry.Quantity += item.Quantity
		}
	}

	ranked := make([]domain.ProductSales, 0, len(byID))
	for _, entry := range byID {
		ranked = append(ranked, *entry)
	}
	rank := func(id string) int {
		if i, ok := order[id]; ok {
			return i
		}
		return len(products) + firstSeen[id]
	}
	slices.SortFunc(ranked, func(a, b domain.ProductSales) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(rank(a.ProductID), rank(b.ProductID))
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// CalculateChange is the percentage change from previous to current. With
// no previous value it is 100 for any positive current value, else 0.
func CalculateChange(current float64, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return round2((current - previous) / previous * 100)
}

// SalesTargetProgress caps progress at 100 percent.
func SalesTargetProgress(monthSales int64, target int64) domain.SalesTarget {
	out := domain.SalesTarget{Target: target, Achieved: monthSales}
	if target > 0 {
		out.Progress = round2(math.Min(float64(monthSales)/float64(target)*100, 100))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
