package backup

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/kv/memory"
	"kasirinaja/dashboard/internal/recommendation"
	"kasirinaja/dashboard/internal/store"
)

type fixture struct {
	now     time.Time
	backend *memory.Store
	store   *store.Store
	recs    *recommendation.Service
	backup  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), backend: memory.New()}
	clock := func() time.Time { return f.now }
	f.store = store.New(ctx, f.backend, zap.NewNop(), store.WithClock(clock))
	f.recs = recommendation.New(ctx, f.backend, zap.NewNop(), recommendation.WithClock(clock))
	f.backup = New(f.store, f.recs, f.backend, zap.NewNop())
	return f
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t)
	src.store.Seed(ctx, rand.New(rand.NewPCG(3, 4)))
	require.NotZero(t, src.store.Ledger().Len())

	var buf bytes.Buffer
	require.NoError(t, src.backup.WriteJSON(&buf))

	dst := newFixture(t)
	result, err := dst.backup.ImportJSON(ctx, &buf)
	require.NoError(t, err)
	assert.True(t, result.ReplacedAny)

	wantProducts, wantTxs := src.store.Snapshot()
	gotProducts, gotTxs := dst.store.Snapshot()
	assert.Equal(t, wantProducts, gotProducts)
	assert.Equal(t, wantTxs, gotTxs)
	assert.Equal(t, len(wantTxs), result.Transactions)
}

func TestImportReplacesOnlyPresentCollections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Seed(ctx, rand.New(rand.NewPCG(1, 1)))
	txCount := f.store.Ledger().Len()

	result, err := f.backup.ImportJSON(ctx, strings.NewReader(`{"products":[]}`))
	require.NoError(t, err)
	assert.Zero(t, result.Products)
	assert.Zero(t, f.store.Catalog().Len())
	assert.Equal(t, txCount, f.store.Ledger().Len())
}

func TestImportRejectsBadDocuments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.backup.ImportJSON(ctx, strings.NewReader(`{"products": [`))
	require.ErrorIs(t, err, store.ErrValidation)

	_, err = f.backup.ImportJSON(ctx, strings.NewReader(`{"timestamp":"2026-01-01T00:00:00Z"}`))
	require.ErrorIs(t, err, store.ErrValidation)
}

func TestImportRejectsInvalidProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Seed(ctx, rand.New(rand.NewPCG(2, 2)))
	wantProducts, wantTxs := f.store.Snapshot()

	docs := map[string]string{
		"duplicate id":   `{"products":[{"id":"a","name":"X","category":"food","price":1,"cost":1,"stock":3},{"id":"a","name":"Y","category":"food","price":1,"cost":1,"stock":4}],"transactions":[]}`,
		"negative stock": `{"products":[{"id":"a","name":"X","category":"food","price":1,"cost":1,"stock":-3}]}`,
		"missing id":     `{"products":[{"name":"X","category":"food","price":1,"cost":1,"stock":3}]}`,
		"bad category":   `{"products":[{"id":"a","name":"X","category":"toys","price":1,"cost":1,"stock":3}]}`,
		"negative price": `{"products":[{"id":"a","name":"X","category":"food","price":-1,"cost":1,"stock":3}]}`,
	}
	for name, doc := range docs {
		_, err := f.backup.ImportJSON(ctx, strings.NewReader(doc))
		require.ErrorIs(t, err, store.ErrValidation, name)
		assert.Equal(t, len(wantProducts), f.store.Catalog().Len(), name)
	}

	gotProducts, gotTxs := f.store.Snapshot()
	assert.Equal(t, wantProducts, gotProducts)
	assert.Equal(t, wantTxs, gotTxs, "ledger must stay untouched when the catalog is rejected")
}

func TestProductsCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var empty bytes.Buffer
	require.ErrorIs(t, f.backup.WriteProductsCSV(&empty), ErrNothingToExport)

	_, _, err := f.store.Catalog().Create(ctx, domain.ProductInput{
		Name: `Chips, "Extra" Spicy`, Category: domain.CategorySnack, Price: 8000, Cost: 4500, Stock: 3,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.backup.WriteProductsCSV(&buf))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"))
	assert.Contains(t, out, "ID,Name,Category,Price,Cost,Stock,Description,CreatedAt")
	assert.Contains(t, out, `"Chips, ""Extra"" Spicy"`)

	var rows []productRow
	require.NoError(t, gocsv.UnmarshalString(strings.TrimPrefix(out, "\ufeff"), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, `Chips, "Extra" Spicy`, rows[0].Name)
	assert.Equal(t, "Snack", rows[0].Category)
	assert.Equal(t, "2026-03-14", rows[0].CreatedAt)
}

func TestTransactionsCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var empty bytes.Buffer
	require.ErrorIs(t, f.backup.WriteTransactionsCSV(&empty), ErrNothingToExport)

	_, err := f.store.Ledger().Record(ctx, []domain.LineItem{
		{ProductID: "a", ProductName: "Tea", Quantity: 2, UnitPrice: 5000, UnitCost: 2000},
		{ProductID: "b", ProductName: "Rice", Quantity: 1, UnitPrice: 15000, UnitCost: 8000},
	}, domain.PaymentCash, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.backup.WriteTransactionsCSV(&buf))

	var rows []transactionRow
	require.NoError(t, gocsv.UnmarshalString(strings.TrimPrefix(buf.String(), "\ufeff"), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03-14", rows[0].Date)
	assert.Equal(t, "10:00:00", rows[0].Time)
	assert.EqualValues(t, 25000, rows[0].Total)
	assert.Equal(t, 2, rows[0].ItemCount)
}

func TestCSVUsesShopLocalTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.now = time.Date(2026, 3, 15, 3, 0, 0, 0, time.FixedZone("WIB", 7*60*60))

	_, _, err := f.store.Catalog().Create(ctx, domain.ProductInput{Name: "Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000, Stock: 5})
	require.NoError(t, err)
	_, err = f.store.Ledger().Record(ctx, []domain.LineItem{
		{ProductID: "a", ProductName: "Tea", Quantity: 1, UnitPrice: 5000, UnitCost: 2000},
	}, domain.PaymentCash, 0)
	require.NoError(t, err)

	var txBuf bytes.Buffer
	require.NoError(t, f.backup.WriteTransactionsCSV(&txBuf))
	var txRows []transactionRow
	require.NoError(t, gocsv.UnmarshalString(strings.TrimPrefix(txBuf.String(), "\ufeff"), &txRows))
	require.Len(t, txRows, 1)
	assert.Equal(t, "2026-03-15", txRows[0].Date)
	assert.Equal(t, "03:00:00", txRows[0].Time)

	var productBuf bytes.Buffer
	require.NoError(t, f.backup.WriteProductsCSV(&productBuf))
	var productRows []productRow
	require.NoError(t, gocsv.UnmarshalString(strings.TrimPrefix(productBuf.String(), "\ufeff"), &productRows))
	require.Len(t, productRows, 1)
	assert.Equal(t, "2026-03-15", productRows[0].CreatedAt)
}

func TestSnapshotsKeepNewestTen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var keys []string
	for i := 0; i < 12; i++ {
		key, err := f.backup.TakeSnapshot(ctx)
		require.NoError(t, err)
		keys = append(keys, key)
		f.now = f.now.Add(time.Minute)
	}

	listed, err := f.backup.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, keys[2:], listed)
}

func TestRestoreSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Seed(ctx, rand.New(rand.NewPCG(5, 6)))
	wantProducts, wantTxs := f.store.Snapshot()

	key, err := f.backup.TakeSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, SnapshotPrefix))

	require.NoError(t, f.store.Catalog().Replace(ctx, nil))
	f.store.Ledger().Replace(ctx, nil)
	f.recs.Replace(ctx, nil)

	snap, err := f.backup.Restore(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, SnapshotType, snap.Type)

	gotProducts, gotTxs := f.store.Snapshot()
	assert.Equal(t, wantProducts, gotProducts)
	assert.Equal(t, wantTxs, gotTxs)
	assert.Len(t, f.recs.List(""), 3)

	_, err = f.backup.Restore(ctx, "products")
	require.ErrorIs(t, err, store.ErrValidation)
	_, err = f.backup.Restore(ctx, SnapshotPrefix+"1")
	require.ErrorIs(t, err, store.ErrNotFound)
}
