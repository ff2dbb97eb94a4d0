package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/kv/memory"
	"kasirinaja/dashboard/internal/store"
)

func newTestCart(t *testing.T, products ...domain.ProductInput) (*Cart, *store.Store, []domain.Product) {
	t.Helper()
	s := store.New(context.Background(), memory.New(), zap.NewNop(), store.WithClock(func() time.Time {
		return time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	}))
	created := make([]domain.Product, 0, len(products))
	for _, in := range products {
		p, _, err := s.Catalog().Create(context.Background(), in)
		require.NoError(t, err)
		created = append(created, p)
	}
	return New(s, zap.NewNop()), s, created
}

var friedRice = domain.ProductInput{Name: "Fried Rice", Category: domain.CategoryFood, Price: 15000, Cost: 8000, Stock: 2}

func TestStockBoundaryScenario(t *testing.T) {
	cart, s, products := newTestCart(t, friedRice)
	id := products[0].ID

	_, err := cart.AddItem(id)
	require.NoError(t, err)
	view, err := cart.AddItem(id)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Entries[0].Quantity)

	_, err = cart.AddItem(id)
	require.ErrorIs(t, err, store.ErrStockExceeded)

	result, err := cart.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod:  domain.PaymentCash,
		AmountReceived: 30000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.ChangeDue)
	assert.Equal(t, int64(30000), result.Transaction.Total)
	assert.Equal(t, int64(14000), result.Transaction.Profit)
	assert.Empty(t, result.Unadjusted)

	p, err := s.Catalog().Get(id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, StateEmpty, cart.State())
	assert.Empty(t, cart.View().Entries)
}

func TestAddItemOutOfStockNeverInserts(t *testing.T) {
	empty := friedRice
	empty.Stock = 0
	cart, _, products := newTestCart(t, empty)

	_, err := cart.AddItem(products[0].ID)
	require.ErrorIs(t, err, store.ErrOutOfStock)
	assert.Empty(t, cart.View().Entries)
	assert.Equal(t, StateEmpty, cart.State())

	_, err = cart.AddItem("prd-missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateQuantity(t *testing.T) {
	in := friedRice
	in.Stock = 3
	cart, _, products := newTestCart(t, in)
	_, err := cart.AddItem(products[0].ID)
	require.NoError(t, err)

	view, err := cart.UpdateQuantity(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Entries[0].Quantity)

	_, err = cart.UpdateQuantity(0, 1)
	require.ErrorIs(t, err, store.ErrStockExceeded)

	view, err = cart.UpdateQuantity(0, -3)
	require.NoError(t, err)
	assert.Empty(t, view.Entries)
	assert.Equal(t, StateEmpty, cart.State())

	_, err = cart.UpdateQuantity(4, 1)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsufficientPaymentLeavesLedgerUntouched(t *testing.T) {
	cart, s, products := newTestCart(t, friedRice)
	_, err := cart.AddItem(products[0].ID)
	require.NoError(t, err)

	_, err = cart.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod:  domain.PaymentCash,
		AmountReceived: 14999,
	})
	require.ErrorIs(t, err, store.ErrInsufficientPayment)
	assert.Equal(t, 0, s.Ledger().Len())
	assert.Equal(t, StateAwaitingPayment, cart.State())
	assert.Len(t, cart.View().Entries, 1)

	p, err := s.Catalog().Get(products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)
}

func TestCheckoutWithDiscount(t *testing.T) {
	tea := domain.ProductInput{Name: "Iced Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000, Stock: 10}
	cart, s, products := newTestCart(t, friedRice, tea)
	for _, id := range []string{products[0].ID, products[1].ID, products[1].ID} {
		_, err := cart.AddItem(id)
		require.NoError(t, err)
	}

	quote, err := cart.Quote(20, 20000)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), quote.Subtotal)
	assert.Equal(t, int64(5000), quote.DiscountAmount)
	assert.Equal(t, int64(20000), quote.Total)
	assert.True(t, quote.Sufficient)
	assert.Equal(t, StateAwaitingPayment, cart.State())

	result, err := cart.Checkout(context.Background(), domain.CheckoutRequest{
		DiscountPercent: 20,
		PaymentMethod:   domain.PaymentQRIS,
		AmountReceived:  50000,
	})
	require.NoError(t, err)
	tx := result.Transaction
	var lineSum int64
	for _, item := range tx.Items {
		lineSum += item.LineTotal
	}
	assert.InDelta(t, float64(lineSum)*0.8, float64(tx.Total), 1)
	assert.Equal(t, int64(30000), result.ChangeDue)
	// gross profit 7000 + 6000, scaled by 0.8
	assert.Equal(t, int64(10400), tx.Profit)

	tea2, err := s.Catalog().Get(products[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 8, tea2.Stock)
}

func TestCheckoutReportsUnadjustedStock(t *testing.T) {
	cart, s, products := newTestCart(t, friedRice)
	_, err := cart.AddItem(products[0].ID)
	require.NoError(t, err)
	s.Catalog().Delete(context.Background(), products[0].ID)

	result, err := cart.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod:  domain.PaymentTransfer,
		AmountReceived: 15000,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{products[0].ID}, result.Unadjusted)
	assert.Equal(t, 1, s.Ledger().Len())
}

func TestCheckoutEmptyCart(t *testing.T) {
	cart, _, _ := newTestCart(t)
	_, err := cart.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: domain.PaymentCash})
	require.ErrorIs(t, err, store.ErrEmptyCart)
	_, err = cart.Quote(0, 0)
	require.ErrorIs(t, err, store.ErrEmptyCart)
}

func TestRemoveAndClear(t *testing.T) {
	tea := domain.ProductInput{Name: "Iced Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000, Stock: 10}
	cart, _, products := newTestCart(t, friedRice, tea)
	_, err := cart.AddItem(products[0].ID)
	require.NoError(t, err)
	_, err = cart.AddItem(products[1].ID)
	require.NoError(t, err)

	view := cart.RemoveItem(0)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "Iced Tea", view.Entries[0].Name)
	assert.Equal(t, StateFilling, cart.State())

	cart.RemoveItem(7)
	cart.Clear()
	assert.Equal(t, StateEmpty, cart.State())
	assert.Empty(t, cart.View().Entries)
}
