package store

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/xid"
)

// Ledger is the append-only list of completed transactions.
type Ledger struct {
	s *Store
}

var hundred = decimal.NewFromInt(100)

// Record appends a completed transaction built from entries. Line totals are
// recomputed from unit price and quantity. Amounts round half away from zero.
func (l *Ledger) Record(ctx context.Context, entries []domain.LineItem, paymentMethod string, discountPercent float64) (domain.Transaction, error) {
	if len(entries) == 0 {
		return domain.Transaction{}, ErrEmptyCart
	}
	if !domain.ValidPaymentMethod(paymentMethod) {
		return domain.Transaction{}, fmt.Errorf("%w: unknown payment method %q", ErrValidation, paymentMethod)
	}
	if discountPercent < 0 || discountPercent > 100 {
		return domain.Transaction{}, fmt.Errorf("%w: discount must be between 0 and 100", ErrValidation)
	}

	items := make([]domain.LineItem, len(entries))
	var subtotal, grossProfit int64
	for i, entry := range entries {
		if entry.Quantity <= 0 {
			return domain.Transaction{}, fmt.Errorf("%w: quantity for %s must be positive", ErrValidation, entry.ProductID)
		}
		entry.LineTotal = entry.UnitPrice * int64(entry.Quantity)
		subtotal += entry.LineTotal
		grossProfit += (entry.UnitPrice - entry.UnitCost) * int64(entry.Quantity)
		items[i] = entry
	}

	amounts := ComputeAmounts(subtotal, grossProfit, discountPercent)

	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	tx := domain.Transaction{
		ID:              xid.New("trx"),
		Timestamp:       l.s.now().UTC(),
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  amounts.Discount,
		Total:           amounts.Total,
		Profit:          amounts.Profit,
		PaymentMethod:   paymentMethod,
		Items:           items,
		Status:          domain.StatusCompleted,
	}
	l.s.transactions = append(l.s.transactions, tx)
	l.s.persist(ctx, KeyTransactions, l.s.transactions)

	tx.Items = slices.Clone(items)
	return tx, nil
}

type Amounts struct {
	Discount int64
	Total    int64
	Profit   int64
}

// ComputeAmounts applies a percentage discount to a subtotal and scales the
// gross profit by the same factor.
func ComputeAmounts(subtotal int64, grossProfit int64, discountPercent float64) Amounts {
	pct := decimal.NewFromFloat(discountPercent)
	discount := decimal.NewFromInt(subtotal).Mul(pct).Div(hundred).Round(0)
	factor := decimal.NewFromInt(1).Sub(pct.Div(hundred))
	profit := decimal.NewFromInt(grossProfit).Mul(factor).Round(0)
	return Amounts{
		Discount: discount.IntPart(),
		Total:    subtotal - discount.IntPart(),
		Profit:   profit.IntPart(),
	}
}

// Query yields transactions matching pred in ledger order. A nil pred
// matches everything. Each range re-reads the ledger.
func (l *Ledger) Query(pred func(domain.Transaction) bool) iter.Seq[domain.Transaction] {
	return func(yield func(domain.Transaction) bool) {
		for _, tx := range l.All() {
			if pred != nil && !pred(tx) {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}

func (l *Ledger) All() []domain.Transaction {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return cloneTransactions(l.s.transactions)
}

func (l *Ledger) Len() int {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return len(l.s.transactions)
}

// Recent returns up to n transactions, newest first.
func (l *Ledger) Recent(n int) []domain.Transaction {
	all := l.All()
	slices.Reverse(all)
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// Replace swaps the whole ledger. Only backup import uses it.
func (l *Ledger) Replace(ctx context.Context, txs []domain.Transaction) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.transactions = cloneTransactions(txs)
	l.s.persist(ctx, KeyTransactions, l.s.transactions)
}

// Between matches transactions with from <= timestamp < to.
func Between(from time.Time, to time.Time) func(domain.Transaction) bool {
	return func(tx domain.Transaction) bool {
		return !tx.Timestamp.Before(from) && tx.Timestamp.Before(to)
	}
}

// InCategory matches transactions with at least one line item whose product
// belongs to category.
func InCategory(category string, products []domain.Product) func(domain.Transaction) bool {
	ids := make(map[string]struct{})
	for _, p := range products {
		if p.Category == category {
			ids[p.ID] = struct{}{}
		}
	}
	return func(tx domain.Transaction) bool {
		for _, item := range tx.Items {
			if _, ok := ids[item.ProductID]; ok {
				return true
			}
		}
		return false
	}
}

// AllOf combines predicates with logical AND.
func AllOf(preds ...func(domain.Transaction) bool) func(domain.Transaction) bool {
	return func(tx domain.Transaction) bool {
		for _, pred := range preds {
			if pred != nil && !pred(tx) {
				return false
			}
		}
		return true
	}
}
