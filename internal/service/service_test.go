package service

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/backup"
	"kasirinaja/dashboard/internal/checkout"
	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/kv/memory"
	"kasirinaja/dashboard/internal/notify"
	"kasirinaja/dashboard/internal/recommendation"
	"kasirinaja/dashboard/internal/settings"
	"kasirinaja/dashboard/internal/store"
)

var fixedNow = time.Date(2026, 4, 15, 14, 0, 0, 0, time.UTC)

type countingCache struct {
	entries map[string]domain.CompleteReport
	hits    int
}

func (c *countingCache) Get(_ context.Context, key string) (*domain.CompleteReport, bool, error) {
	report, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &report, true, nil
}

func (c *countingCache) Set(_ context.Context, key string, value *domain.CompleteReport, _ time.Duration) error {
	c.entries[key] = *value
	return nil
}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	ctx := context.Background()
	backend := memory.New()
	clock := func() time.Time { return fixedNow }
	st := store.New(ctx, backend, zap.NewNop(), store.WithClock(clock))
	recs := recommendation.New(ctx, backend, zap.NewNop(), recommendation.WithClock(clock), recommendation.WithRand(rand.New(rand.NewPCG(1, 2))))
	svc := New(Deps{
		Store:           st,
		Cart:            checkout.New(st, zap.NewNop()),
		Recommendations: recs,
		Settings:        settings.New(ctx, backend, zap.NewNop()),
		Backup:          backup.New(st, recs, backend, zap.NewNop()),
		Notifications:   notify.New(zap.NewNop(), 0),
		Rand:            rand.New(rand.NewPCG(3, 4)),
		Logger:          zap.NewNop(),
	})
	return svc, st
}

func mustCreate(t *testing.T, svc *Service, in domain.ProductInput) domain.Product {
	t.Helper()
	p, _, err := svc.CreateProduct(context.Background(), in)
	if err != nil {
		t.Fatalf("create %s: %v", in.Name, err)
	}
	return p
}

func TestListProductsSearchAndSort(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, domain.ProductInput{Name: "Sweet Iced Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000, Stock: 10})
	mustCreate(t, svc, domain.ProductInput{Name: "Iced Coffee", Category: domain.CategoryBeverage, Price: 10000, Cost: 4000, Stock: 10})
	mustCreate(t, svc, domain.ProductInput{Name: "Fried Rice", Category: domain.CategoryFood, Price: 15000, Cost: 8000, Stock: 10})

	got, err := svc.ListProducts("iced", "price", "desc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Iced Coffee" || got[1].Name != "Sweet Iced Tea" {
		t.Fatalf("unexpected result: %+v", got)
	}

	if _, err := svc.ListProducts("", "colour", ""); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutNotifiesAndUpdatesDashboard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := WithActor(context.Background(), domain.Actor{Username: "owner", Role: "owner"})
	rice := mustCreate(t, svc, domain.ProductInput{Name: "Fried Rice", Category: domain.CategoryFood, Price: 15000, Cost: 8000, Stock: 2})

	if _, err := svc.AddToCart(rice.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddToCart(rice.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	result, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: domain.PaymentCash, AmountReceived: 50000})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.Transaction.Total != 30000 || result.ChangeDue != 20000 {
		t.Fatalf("unexpected amounts: %+v", result)
	}
	if svc.CartState() != checkout.StateEmpty {
		t.Fatalf("cart should be empty after checkout, got %s", svc.CartState())
	}

	dash := svc.Dashboard()
	if dash.Stats.TodaySales != 30000 || dash.Stats.TodayTransactions != 1 {
		t.Fatalf("unexpected dashboard stats: %+v", dash.Stats)
	}
	if len(dash.LowStock) != 1 || dash.LowStock[0].Stock != 0 {
		t.Fatalf("expected sold-out product in low stock list, got %+v", dash.LowStock)
	}
	if len(dash.Recent) != 1 || len(dash.SalesSeries) != 7 {
		t.Fatalf("unexpected dashboard lists: recent=%d series=%d", len(dash.Recent), len(dash.SalesSeries))
	}
	if len(dash.Notifications) == 0 || dash.Notifications[0].Title != "Transaction completed" {
		t.Fatalf("expected checkout notification first, got %+v", dash.Notifications)
	}
}

func TestDashboardSalesTargetUsesSettings(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	target := int64(100000)
	if _, err := svc.UpdateSettings(ctx, domain.SettingsUpdate{MonthlySalesTarget: &target}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if _, err := st.Ledger().Record(ctx, []domain.LineItem{{ProductID: "x", ProductName: "X", Quantity: 5, UnitPrice: 5000, UnitCost: 2000}}, domain.PaymentQRIS, 0); err != nil {
		t.Fatalf("record: %v", err)
	}

	got := svc.Dashboard().SalesTarget
	if got.Target != 100000 || got.Achieved != 25000 || got.Progress != 25 {
		t.Fatalf("unexpected sales target: %+v", got)
	}
}

func TestTransactionsDateRange(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	st.Ledger().Replace(ctx, []domain.Transaction{
		{ID: "t1", Timestamp: time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC), Total: 1000},
		{ID: "t2", Timestamp: time.Date(2026, 4, 12, 23, 30, 0, 0, time.UTC), Total: 2000},
		{ID: "t3", Timestamp: time.Date(2026, 4, 13, 8, 0, 0, 0, time.UTC), Total: 3000},
	})

	got, err := svc.Transactions("2026-04-11", "2026-04-12", 0)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t2" {
		t.Fatalf("expected only t2, got %+v", got)
	}

	all, err := svc.Transactions("", "", 2)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(all) != 2 || all[0].ID != "t3" {
		t.Fatalf("expected newest two, got %+v", all)
	}

	if _, err := svc.Transactions("not a date", "", 0); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCompleteReportIsCachedPerRevision(t *testing.T) {
	svc, st := newTestService(t)
	cache := &countingCache{entries: map[string]domain.CompleteReport{}}
	svc.reports = cache
	ctx := context.Background()

	first := svc.CompleteReport(ctx)
	second := svc.CompleteReport(ctx)
	if cache.hits != 1 {
		t.Fatalf("expected one cache hit, got %d", cache.hits)
	}
	if first.Summary != second.Summary {
		t.Fatalf("cached report differs: %+v vs %+v", first.Summary, second.Summary)
	}

	if _, err := st.Ledger().Record(ctx, []domain.LineItem{{ProductID: "x", ProductName: "X", Quantity: 1, UnitPrice: 5000, UnitCost: 2000}}, domain.PaymentCash, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	third := svc.CompleteReport(ctx)
	if cache.hits != 1 || third.Summary.TotalTransactions != 1 {
		t.Fatalf("expected fresh report after a sale, hits=%d summary=%+v", cache.hits, third.Summary)
	}
}

func TestTopProductsRanking(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.TopProducts(5, "sales"); err != nil {
		t.Fatalf("sales ranking: %v", err)
	}
	if _, err := svc.TopProducts(5, "quantity"); err != nil {
		t.Fatalf("quantity ranking: %v", err)
	}
	if _, err := svc.TopProducts(5, "profit"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestImportNotifiesOnFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportJSON(ctx, strings.NewReader("{")); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	recent := svc.Notifications(1)
	if len(recent) != 1 || recent[0].Level != notify.LevelError {
		t.Fatalf("expected error notification, got %+v", recent)
	}

	mustCreate(t, svc, domain.ProductInput{Name: "Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000, Stock: 3})
	var buf bytes.Buffer
	if err := svc.ExportJSON(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	result, err := svc.ImportJSON(ctx, &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Products != 1 {
		t.Fatalf("expected one product imported, got %+v", result)
	}
}

func TestSnapshotAndRestore(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, domain.ProductInput{Name: "Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000, Stock: 3})

	key, err := svc.TakeSnapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := st.Catalog().Replace(ctx, nil); err != nil {
		t.Fatalf("clear catalog: %v", err)
	}
	if err := svc.RestoreSnapshot(ctx, key); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if st.Catalog().Len() != 1 {
		t.Fatalf("expected restored catalog, got %d products", st.Catalog().Len())
	}
}

func TestBusinessIdeasAddsDefaultsOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	svc.recs.Replace(ctx, nil)

	ideas := svc.BusinessIdeas(ctx)
	if len(ideas) != 4 {
		t.Fatalf("expected four default ideas, got %d", len(ideas))
	}
	if len(svc.BusinessIdeas(ctx)) != 4 {
		t.Fatalf("defaults must only be added once")
	}

	if _, err := svc.SaveAnalysis(ctx, recommendation.LocationSuburban); err != nil {
		t.Fatalf("save analysis: %v", err)
	}
	if len(svc.Recommendations(domain.RecommendationMarketAnalysis)) != 1 {
		t.Fatalf("expected saved analysis")
	}
}

func TestInventoryReport(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, domain.ProductInput{Name: "Oil", Category: domain.CategoryStaple, Price: 17500, Cost: 15000, Stock: 4})
	mustCreate(t, svc, domain.ProductInput{Name: "Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000, Stock: 40})

	inv := svc.Inventory()
	if len(inv.Rows) != 2 || inv.CriticalCount != 1 || inv.TotalUnits != 44 {
		t.Fatalf("unexpected inventory: %+v", inv)
	}
	if inv.StockValue != 4*15000+40*2000 {
		t.Fatalf("unexpected stock value %d", inv.StockValue)
	}
	for _, row := range inv.Rows {
		if row.DaysRemaining < 1 {
			t.Fatalf("expected positive estimate for %s, got %d", row.Product.Name, row.DaysRemaining)
		}
	}
}
