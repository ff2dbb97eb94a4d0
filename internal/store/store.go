package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/kv"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrStockExceeded       = errors.New("stock exceeded")
	ErrOutOfStock          = errors.New("out of stock")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrEmptyCart           = errors.New("cart is empty")
)

const (
	KeyProducts     = "products"
	KeyTransactions = "transactions"
	KeyRestockLogs  = "restock_logs"
)

// Store owns the catalog and the ledger. Every mutation is written through
// to the backing kv.Store before the call returns.
type Store struct {
	mu           sync.RWMutex
	backend      kv.Store
	logger       *zap.Logger
	now          func() time.Time
	products     []domain.Product
	transactions []domain.Transaction
	restocks     []domain.RestockLog
	revision     uint64

	catalog *Catalog
	ledger  *Ledger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New loads the persisted collections from backend. Unreadable keys start
// empty and are logged.
func New(ctx context.Context, backend kv.Store, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend: backend,
		logger:  logger.Named("store"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.catalog = &Catalog{s: s}
	s.ledger = &Ledger{s: s}

	load(ctx, s, KeyProducts, &s.products)
	load(ctx, s, KeyTransactions, &s.transactions)
	load(ctx, s, KeyRestockLogs, &s.restocks)
	return s
}

func (s *Store) Catalog() *Catalog { return s.catalog }

func (s *Store) Ledger() *Ledger { return s.ledger }

func (s *Store) Now() time.Time { return s.now() }

func (s *Store) RestockLogs() []domain.RestockLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.restocks)
}

// Snapshot returns copies of both collections taken under one lock.
func (s *Store) Snapshot() ([]domain.Product, []domain.Transaction) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products), cloneTransactions(s.transactions)
}

func load[T any](ctx context.Context, s *Store, key string, dest *[]T) {
	if s.backend == nil {
		*dest = []T{}
		return
	}
	if err := kv.Load(ctx, s.backend, key, dest, []T{}); err != nil {
		s.logger.Warn("falling back to empty collection", zap.String("key", key), zap.Error(err))
	}
	if *dest == nil {
		*dest = []T{}
	}
}

// Revision increases with every mutation of either collection.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// persist must be called with s.mu held. Failures are logged and the
// in-memory state stays authoritative.
func (s *Store) persist(ctx context.Context, key string, value any) {
	s.revision++
	if s.backend == nil {
		return
	}
	if err := kv.Save(ctx, s.backend, key, value); err != nil {
		s.logger.Error("persist failed", zap.String("key", key), zap.Error(err))
	}
}

func cloneProducts(in []domain.Product) []domain.Product {
	return slices.Clone(in)
}

func cloneTransactions(in []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(in))
	for i, tx := range in {
		tx.Items = slices.Clone(tx.Items)
		out[i] = tx
	}
	return out
}
