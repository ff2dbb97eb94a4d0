// Package checkout holds the cart of the single POS session and commits it
// to the ledger.
package checkout

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/store"
)

type State string

const (
	StateEmpty           State = "empty"
	StateFilling         State = "filling"
	StateAwaitingPayment State = "awaiting_payment"
)

// Cart is safe for concurrent use. Committing resets it to StateEmpty.
type Cart struct {
	mu      sync.Mutex
	store   *store.Store
	logger  *zap.Logger
	entries []domain.CartEntry
	state   State
}

func New(s *store.Store, logger *zap.Logger) *Cart {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cart{store: s, logger: logger.Named("checkout"), state: StateEmpty}
}

func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Cart) View() domain.CartView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// AddItem puts one unit of productID in the cart. A product already in the
// cart may not exceed its current catalog stock.
func (c *Cart) AddItem(productID string) (domain.CartView, error) {
	product, err := c.store.Catalog().Get(productID)
	if err != nil {
		return domain.CartView{}, err
	}
	if product.Stock == 0 {
		return domain.CartView{}, fmt.Errorf("%w: %s", store.ErrOutOfStock, product.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := slices.IndexFunc(c.entries, func(e domain.CartEntry) bool { return e.ProductID == productID })
	if idx >= 0 {
		if c.entries[idx].Quantity >= product.Stock {
			return c.viewLocked(), fmt.Errorf("%w: only %d of %s in stock", store.ErrStockExceeded, product.Stock, product.Name)
		}
		c.entries[idx].Quantity++
		c.entries[idx].MaxStock = product.Stock
	} else {
		c.entries = append(c.entries, domain.CartEntry{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			UnitCost:  product.Cost,
			Quantity:  1,
			Category:  product.Category,
			MaxStock:  product.Stock,
		})
	}
	c.state = StateFilling
	return c.viewLocked(), nil
}

// UpdateQuantity changes the quantity of the entry at index by delta. The
// entry is removed when its quantity drops to zero or below.
func (c *Cart) UpdateQuantity(index int, delta int) (domain.CartView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.entries) {
		return c.viewLocked(), fmt.Errorf("%w: cart entry %d", store.ErrNotFound, index)
	}
	next := c.entries[index].Quantity + delta
	switch {
	case next <= 0:
		c.entries = slices.Delete(c.entries, index, index+1)
	case next > c.entries[index].MaxStock:
		return c.viewLocked(), fmt.Errorf("%w: only %d of %s in stock", store.ErrStockExceeded, c.entries[index].MaxStock, c.entries[index].Name)
	default:
		c.entries[index].Quantity = next
	}
	c.settleLocked()
	return c.viewLocked(), nil
}

func (c *Cart) RemoveItem(index int) domain.CartView {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= 0 && index < len(c.entries) {
		c.entries = slices.Delete(c.entries, index, index+1)
	}
	c.settleLocked()
	return c.viewLocked()
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.state = StateEmpty
}

// Quote previews the payment for the current cart and moves it to
// StateAwaitingPayment.
func (c *Cart) Quote(discountPercent float64, amountReceived int64) (domain.PaymentQuote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return domain.PaymentQuote{}, store.ErrEmptyCart
	}
	if discountPercent < 0 || discountPercent > 100 {
		return domain.PaymentQuote{}, fmt.Errorf("%w: discount must be between 0 and 100", store.ErrValidation)
	}
	c.state = StateAwaitingPayment
	return c.quoteLocked(discountPercent, amountReceived), nil
}

// Checkout records the sale, then decrements stock for every entry, then
// clears the cart. The ledger append and the stock updates are separate
// writes: products whose stock could not be adjusted are reported in
// Unadjusted and the sale stays recorded.
func (c *Cart) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return domain.CheckoutResult{}, store.ErrEmptyCart
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return domain.CheckoutResult{}, fmt.Errorf("%w: discount must be between 0 and 100", store.ErrValidation)
	}
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		return domain.CheckoutResult{}, fmt.Errorf("%w: unknown payment method %q", store.ErrValidation, req.PaymentMethod)
	}

	quote := c.quoteLocked(req.DiscountPercent, req.AmountReceived)
	if !quote.Sufficient {
		c.state = StateAwaitingPayment
		return domain.CheckoutResult{}, fmt.Errorf("%w: received %d, total %d", store.ErrInsufficientPayment, req.AmountReceived, quote.Total)
	}

	items := make([]domain.LineItem, len(c.entries))
	for i, e := range c.entries {
		items[i] = domain.LineItem{
			ProductID:   e.ProductID,
			ProductName: e.Name,
			Quantity:    e.Quantity,
			UnitPrice:   e.UnitPrice,
			UnitCost:    e.UnitCost,
			LineTotal:   e.UnitPrice * int64(e.Quantity),
		}
	}

	tx, err := c.store.Ledger().Record(ctx, items, req.PaymentMethod, req.DiscountPercent)
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	result := domain.CheckoutResult{
		Transaction: tx,
		ChangeDue:   req.AmountReceived - tx.Total,
	}
	for _, e := range c.entries {
		if _, err := c.store.Catalog().AdjustStock(ctx, e.ProductID, -e.Quantity); err != nil {
			c.logger.Warn("stock not adjusted after sale",
				zap.String("transaction_id", tx.ID),
				zap.String("product_id", e.ProductID),
				zap.Int("quantity", e.Quantity),
				zap.Error(err),
			)
			result.Unadjusted = append(result.Unadjusted, e.ProductID)
		}
	}

	c.entries = nil
	c.state = StateEmpty
	c.logger.Info("checkout committed",
		zap.String("transaction_id", tx.ID),
		zap.Int64("total", tx.Total),
		zap.String("payment_method", tx.PaymentMethod),
	)
	return result, nil
}

func (c *Cart) quoteLocked(discountPercent float64, amountReceived int64) domain.PaymentQuote {
	view := c.viewLocked()
	amounts := store.ComputeAmounts(view.Subtotal, view.Profit, discountPercent)
	quote := domain.PaymentQuote{
		Subtotal:        view.Subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  amounts.Discount,
		Total:           amounts.Total,
		AmountReceived:  amountReceived,
		Sufficient:      amountReceived >= amounts.Total,
	}
	if quote.Sufficient {
		quote.Change = amountReceived - amounts.Total
	}
	return quote
}

func (c *Cart) settleLocked() {
	if len(c.entries) == 0 {
		c.state = StateEmpty
		return
	}
	c.state = StateFilling
}

func (c *Cart) viewLocked() domain.CartView {
	view := domain.CartView{Entries: slices.Clone(c.entries)}
	if view.Entries == nil {
		view.Entries = []domain.CartEntry{}
	}
	for _, e := range c.entries {
		view.Subtotal += e.UnitPrice * int64(e.Quantity)
		view.Profit += (e.UnitPrice - e.UnitCost) * int64(e.Quantity)
		view.Units += e.Quantity
	}
	return view
}
