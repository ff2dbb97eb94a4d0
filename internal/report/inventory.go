package report

import (
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/montanaflynn/stats"

	"kasirinaja/dashboard/internal/domain"
)

const historyDays = 30

// DailyUnits returns units of productID sold on each of the last 30 days.
func DailyUnits(txs iter.Seq[domain.Transaction], productID string, now time.Time) stats.Float64Data {
	from, _ := DayRange(now, -(historyDays - 1))
	_, to := DayRange(now, 0)
	units := make(stats.Float64Data, historyDays)
	for tx := range txs {
		if tx.Timestamp.Before(from) || !tx.Timestamp.Before(to) {
			continue
		}
		day := int(math.Round(StartOfDay(tx.Timestamp.In(now.Location())).Sub(from).Hours() / 24))
		if day < 0 || day >= historyDays {
			continue
		}
		for _, item := range tx.Items {
			if item.ProductID == productID {
				units[day] += float64(item.Quantity)
			}
		}
	}
	return units
}

// EstimateDaysRemaining divides stock by the mean daily units sold over the
// last 30 days. Without sales history it falls back to a random rate of 1 to
// 6 units a day drawn from rng.
func EstimateDaysRemaining(stock int, history stats.Float64Data, rng *rand.Rand) int {
	if stock <= 0 {
		return 0
	}
	rate, err := stats.Mean(history)
	if err != nil || rate <= 0 {
		rate = rng.Float64()*5 + 1
	}
	return int(math.Ceil(float64(stock) / rate))
}

func Inventory(txs iter.Seq[domain.Transaction], products []domain.Product, now time.Time, rng *rand.Rand) domain.InventoryReport {
	all := slices.Collect(txs)
	report := domain.InventoryReport{Rows: make([]domain.InventoryRow, 0, len(products))}
	for _, p := range products {
		row := domain.InventoryRow{
			Product:       p,
			Status:        StockStatus(p.Stock),
			DaysRemaining: EstimateDaysRemaining(p.Stock, DailyUnits(slices.Values(all), p.ID, now), rng),
			Value:         p.Cost * int64(p.Stock),
		}
		report.Rows = append(report.Rows, row)
		report.TotalUnits += p.Stock
		report.StockValue += row.Value
		switch row.Status {
		case domain.StockCritical:
			report.CriticalCount++
		case domain.StockLow:
			report.LowCount++
		}
	}
	return report
}
