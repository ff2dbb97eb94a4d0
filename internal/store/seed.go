package store

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/xid"
)

var sampleProducts = []domain.ProductInput{
	{Name: "Special Fried Rice", Category: domain.CategoryFood, Price: 15000, Cost: 8000, Stock: 50, Description: "Fried rice with egg and chicken"},
	{Name: "Sweet Iced Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000, Stock: 100, Description: "Fresh iced tea with sugar"},
	{Name: "Fried Noodles", Category: domain.CategoryFood, Price: 12000, Cost: 6000, Stock: 30, Description: "Fried noodles with vegetables"},
	{Name: "Cassava Chips", Category: domain.CategorySnack, Price: 8000, Cost: 4500, Stock: 18, Description: "Crispy spicy cassava chips"},
	{Name: "Palm Sugar Coffee", Category: domain.CategoryBeverage, Price: 10000, Cost: 4000, Stock: 40, Description: "Iced milk coffee with palm sugar"},
	{Name: "Rice 5kg", Category: domain.CategoryStaple, Price: 68000, Cost: 61000, Stock: 8, Description: "Premium white rice"},
	{Name: "Cooking Oil 1L", Category: domain.CategoryStaple, Price: 17500, Cost: 15000, Stock: 4, Description: "Palm cooking oil"},
	{Name: "Banana Fritters", Category: domain.CategorySnack, Price: 2000, Cost: 900, Stock: 60, Description: "Warm banana fritters"},
}

// Seed fills an empty store with demo products and 30 days of sales drawn
// from rng. It does nothing when the catalog already has products.
func (s *Store) Seed(ctx context.Context, rng *rand.Rand) {
	if s.catalog.Len() > 0 {
		return
	}

	products := make([]domain.Product, 0, len(sampleProducts))
	for _, in := range sampleProducts {
		p, _, err := s.catalog.Create(ctx, in)
		if err != nil {
			s.logger.Warn("skip sample product", zap.String("name", in.Name), zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	if len(products) == 0 || s.ledger.Len() > 0 {
		return
	}

	// Opening hours are local to the shop clock; timestamps are stored in UTC.
	now := s.now()
	loc := now.Location()
	txs := make([]domain.Transaction, 0, 60)
	for day := 29; day >= 0; day-- {
		date := now.AddDate(0, 0, -day)
		perDay := rng.IntN(3) + 1
		for j := 0; j < perDay; j++ {
			ts := time.Date(date.Year(), date.Month(), date.Day(), 8+rng.IntN(13), rng.IntN(60), 0, 0, loc)
			if ts.After(now) {
				ts = now
			}
			txs = append(txs, sampleTransaction(rng, products, ts.UTC()))
		}
	}
	s.ledger.Replace(ctx, txs)
	s.logger.Info("seeded demo data", zap.Int("products", len(products)), zap.Int("transactions", len(txs)))
}

func sampleTransaction(rng *rand.Rand, products []domain.Product, ts time.Time) domain.Transaction {
	count := rng.IntN(3) + 1
	items := make([]domain.LineItem, 0, count)
	var subtotal, grossProfit int64
	for k := 0; k < count; k++ {
		p := products[rng.IntN(len(products))]
		qty := rng.IntN(3) + 1
		item := domain.LineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    qty,
			UnitPrice:   p.Price,
			UnitCost:    p.Cost,
			LineTotal:   p.Price * int64(qty),
		}
		subtotal += item.LineTotal
		grossProfit += (p.Price - p.Cost) * int64(qty)
		items = append(items, item)
	}

	methods := []string{domain.PaymentCash, domain.PaymentQRIS, domain.PaymentTransfer}
	amounts := ComputeAmounts(subtotal, grossProfit, 0)
	return domain.Transaction{
		ID:            xid.New("trx"),
		Timestamp:     ts,
		Subtotal:      subtotal,
		Total:         amounts.Total,
		Profit:        amounts.Profit,
		PaymentMethod: methods[rng.IntN(len(methods))],
		Items:         items,
		Status:        domain.StatusCompleted,
	}
}
