// Package service is the application layer behind the HTTP API and the view
// router. It coordinates the store, the cart and the supporting services and
// announces outcomes through the notification hub.
package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/backup"
	"kasirinaja/dashboard/internal/cache"
	"kasirinaja/dashboard/internal/checkout"
	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/notify"
	"kasirinaja/dashboard/internal/recommendation"
	"kasirinaja/dashboard/internal/remote"
	"kasirinaja/dashboard/internal/settings"
	"kasirinaja/dashboard/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Deps struct {
	Store           *store.Store
	Cart            *checkout.Cart
	Recommendations *recommendation.Service
	Settings        *settings.Service
	Backup          *backup.Service
	Notifications   *notify.Hub
	ReportCache     cache.ReportCache
	ReportCacheTTL  time.Duration
	Mirror          *remote.Mirror
	Rand            *rand.Rand
	Logger          *zap.Logger
}

type Service struct {
	store    *store.Store
	cart     *checkout.Cart
	recs     *recommendation.Service
	settings *settings.Service
	backup   *backup.Service
	hub      *notify.Hub
	reports  cache.ReportCache
	cacheTTL time.Duration
	mirror   *remote.Mirror
	logger   *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.ReportCache == nil {
		d.ReportCache = cache.NoopReportCache{}
	}
	if d.ReportCacheTTL <= 0 {
		d.ReportCacheTTL = 5 * time.Minute
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1))
	}
	if d.Cart == nil {
		d.Cart = checkout.New(d.Store, d.Logger)
	}
	if d.Notifications == nil {
		d.Notifications = notify.New(d.Logger, 0)
	}
	return &Service{
		store:    d.Store,
		cart:     d.Cart,
		recs:     d.Recommendations,
		settings: d.Settings,
		backup:   d.Backup,
		hub:      d.Notifications,
		reports:  d.ReportCache,
		cacheTTL: d.ReportCacheTTL,
		mirror:   d.Mirror,
		logger:   d.Logger.Named("service"),
		rng:      d.Rand,
	}
}

// ListProducts returns the catalog, optionally filtered by a search term
// and ordered by a sort field. Without a sort field catalog order is kept.
func (s *Service) ListProducts(search string, sortField string, direction string) ([]domain.Product, error) {
	var products []domain.Product
	if sortField != "" {
		sorted, err := s.store.Catalog().SortBy(sortField, direction)
		if err != nil {
			return nil, err
		}
		products = sorted
	} else {
		products = s.store.Catalog().List()
	}

	search = strings.TrimSpace(search)
	if search == "" {
		return products, nil
	}
	matched := make(map[string]struct{})
	for p := range s.store.Catalog().Search(search) {
		matched[p.ID] = struct{}{}
	}
	out := make([]domain.Product, 0, len(matched))
	for _, p := range products {
		if _, ok := matched[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) GetProduct(id string) (domain.Product, error) {
	return s.store.Catalog().Get(id)
}

func (s *Service) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, []string, error) {
	product, warnings, err := s.store.Catalog().Create(ctx, in)
	if err != nil {
		return domain.Product{}, nil, err
	}
	s.logAudit(ctx, "product_create", product.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", product.Name, product.Price, product.Stock))
	s.hub.Notify(notify.LevelSuccess, "Product added", product.Name)
	s.pushCatalog(ctx)
	return product, warnings, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, upd domain.ProductUpdate) (domain.Product, []string, error) {
	product, warnings, err := s.store.Catalog().Update(ctx, id, upd)
	if err != nil {
		return domain.Product{}, nil, err
	}
	s.logAudit(ctx, "product_update", product.ID, fmt.Sprintf("price=%d,cost=%d,stock=%d", product.Price, product.Cost, product.Stock))
	s.hub.Notify(notify.LevelSuccess, "Product updated", product.Name)
	s.pushCatalog(ctx)
	return product, warnings, nil
}

// DeleteProduct is idempotent. Past transactions keep their line items.
func (s *Service) DeleteProduct(ctx context.Context, id string) {
	s.store.Catalog().Delete(ctx, id)
	s.logAudit(ctx, "product_delete", id, "")
	s.pushCatalog(ctx)
}

func (s *Service) DuplicateProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.store.Catalog().Duplicate(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_duplicate", product.ID, "source="+id)
	s.pushCatalog(ctx)
	return product, nil
}

func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (domain.Product, error) {
	product, err := s.store.Catalog().AdjustStock(ctx, id, delta)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "stock_adjust", id, fmt.Sprintf("delta=%d,stock=%d", delta, product.Stock))
	s.pushCatalog(ctx)
	return product, nil
}

func (s *Service) Restock(ctx context.Context, id string, qty int, note string) (domain.RestockLog, error) {
	entry, err := s.store.Catalog().Restock(ctx, id, qty, note)
	if err != nil {
		return domain.RestockLog{}, err
	}
	s.logAudit(ctx, "restock", id, fmt.Sprintf("qty=%d", qty))
	s.hub.Notify(notify.LevelSuccess, "Restocked", fmt.Sprintf("%d units added", qty))
	s.pushCatalog(ctx)
	return entry, nil
}

func (s *Service) RestockLogs() []domain.RestockLog {
	return s.store.RestockLogs()
}

// SyncFromRemote replaces the catalog with the remote mirror's copy when
// the mirror returns a non-empty catalog.
func (s *Service) SyncFromRemote(ctx context.Context) bool {
	products, ok := s.mirror.FetchProducts(ctx)
	if !ok {
		return false
	}
	if err := s.store.Catalog().Replace(ctx, products); err != nil {
		s.logger.Warn("remote catalog rejected, keeping local copy", zap.Error(err))
		return false
	}
	s.logger.Info("catalog loaded from remote mirror", zap.Int("products", len(products)))
	return true
}

func (s *Service) pushCatalog(ctx context.Context) {
	if !s.mirror.Enabled() {
		return
	}
	s.mirror.PushProducts(ctx, s.store.Catalog().List())
}

func (s *Service) CartView() domain.CartView { return s.cart.View() }

func (s *Service) CartState() checkout.State { return s.cart.State() }

func (s *Service) AddToCart(productID string) (domain.CartView, error) {
	return s.cart.AddItem(productID)
}

func (s *Service) UpdateCartQuantity(index int, delta int) (domain.CartView, error) {
	return s.cart.UpdateQuantity(index, delta)
}

func (s *Service) RemoveFromCart(index int) domain.CartView {
	return s.cart.RemoveItem(index)
}

func (s *Service) ClearCart() { s.cart.Clear() }

func (s *Service) QuotePayment(discountPercent float64, amountReceived int64) (domain.PaymentQuote, error) {
	return s.cart.Quote(discountPercent, amountReceived)
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResult, error) {
	result, err := s.cart.Checkout(ctx, req)
	if err != nil {
		return domain.CheckoutResult{}, err
	}
	s.logAudit(ctx, "checkout", result.Transaction.ID, fmt.Sprintf("total=%d,method=%s", result.Transaction.Total, result.Transaction.PaymentMethod))
	s.hub.Notify(notify.LevelSuccess, "Transaction completed", fmt.Sprintf("Total Rp %d, change Rp %d", result.Transaction.Total, result.ChangeDue))
	if len(result.Unadjusted) > 0 {
		s.hub.Notify(notify.LevelWarning, "Stock not updated", strings.Join(result.Unadjusted, ", "))
	}
	s.pushCatalog(ctx)
	return result, nil
}

func (s *Service) Notifications(n int) []domain.Notification {
	return s.hub.Recent(n)
}

func (s *Service) Hub() *notify.Hub { return s.hub }

func (s *Service) logAudit(ctx context.Context, action string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	s.logger.Info("audit",
		zap.String("actor", actor.Username),
		zap.String("role", actor.Role),
		zap.String("action", action),
		zap.String("entity_id", entityID),
		zap.String("detail", detail),
	)
}
