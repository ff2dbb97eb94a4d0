package view

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/recommendation"
	"kasirinaja/dashboard/internal/service"
)

const (
	RouteDashboard     = "dashboard"
	RoutePOS           = "pos"
	RouteProducts      = "products"
	RouteInventory     = "inventory"
	RouteFinance       = "finance"
	RouteReports       = "reports"
	RouteBusinessIdeas = "business-ideas"
	RouteAITools       = "ai-tools"
)

const (
	InventoryWatchSpec      = "@every 1h"
	InventoryWatchThreshold = 10
)

// Scheduler is the part of the job scheduler the inventory section uses.
type Scheduler interface {
	Watch(spec string, fn func()) (cron.EntryID, error)
	Unwatch(id cron.EntryID)
	CheckLowStock(threshold int) []domain.Product
}

type POSView struct {
	Products []domain.Product `json:"products"`
	Cart     domain.CartView  `json:"cart"`
}

type ProductsView struct {
	Products    []domain.Product    `json:"products"`
	RestockLogs []domain.RestockLog `json:"restock_logs"`
}

type InventoryView struct {
	domain.InventoryReport
	LowStock []domain.Product `json:"low_stock"`
}

type FinanceView struct {
	domain.FinanceView
	Settings domain.Settings `json:"settings"`
}

type AIToolsView struct {
	Ideas   []recommendation.BusinessIdea  `json:"ideas"`
	Recipes []recommendation.Recipe        `json:"recipes"`
	Saved   []domain.RecommendationRecord `json:"saved"`
}

// New returns a router with every dashboard section registered.
func New(svc *service.Service, sched Scheduler, logger *zap.Logger) *Router {
	r := NewRouter(logger)
	inv := &inventoryWatch{sched: sched, logger: r.logger}

	r.Register(RouteDashboard, Route{Setup: func(context.Context) (any, error) {
		return svc.Dashboard(), nil
	}})
	r.Register(RoutePOS, Route{Setup: func(context.Context) (any, error) {
		products, err := svc.ListProducts("", "", "")
		if err != nil {
			return nil, err
		}
		return POSView{Products: products, Cart: svc.CartView()}, nil
	}})
	r.Register(RouteProducts, Route{Setup: func(context.Context) (any, error) {
		products, err := svc.ListProducts("", "", "")
		if err != nil {
			return nil, err
		}
		return ProductsView{Products: products, RestockLogs: svc.RestockLogs()}, nil
	}})
	r.Register(RouteInventory, Route{
		Setup: func(context.Context) (any, error) {
			if err := inv.start(); err != nil {
				return nil, err
			}
			return InventoryView{
				InventoryReport: svc.Inventory(),
				LowStock:        sched.CheckLowStock(InventoryWatchThreshold),
			}, nil
		},
		Teardown: inv.stop,
	})
	r.Register(RouteFinance, Route{Setup: func(context.Context) (any, error) {
		fin, err := svc.Finance(domain.PeriodMonthly)
		if err != nil {
			return nil, err
		}
		return FinanceView{FinanceView: fin, Settings: svc.Settings()}, nil
	}})
	r.Register(RouteReports, Route{Setup: func(ctx context.Context) (any, error) {
		return svc.CompleteReport(ctx), nil
	}})
	r.Register(RouteBusinessIdeas, Route{Setup: func(ctx context.Context) (any, error) {
		return svc.BusinessIdeas(ctx), nil
	}})
	r.Register(RouteAITools, Route{Setup: func(context.Context) (any, error) {
		return AIToolsView{
			Ideas:   svc.GenerateIdeas("", ""),
			Recipes: svc.Recipes("", "", ""),
			Saved:   svc.Recommendations(""),
		}, nil
	}})
	return r
}

// inventoryWatch holds the hourly low-stock check that is only registered
// while the inventory section is open.
type inventoryWatch struct {
	sched  Scheduler
	logger *zap.Logger

	mu     sync.Mutex
	active bool
	id     cron.EntryID
}

func (w *inventoryWatch) start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active {
		return nil
	}
	id, err := w.sched.Watch(InventoryWatchSpec, func() { w.sched.CheckLowStock(InventoryWatchThreshold) })
	if err != nil {
		return err
	}
	w.id, w.active = id, true
	w.logger.Debug("inventory watcher registered", zap.Int("entry", int(id)))
	return nil
}

func (w *inventoryWatch) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return
	}
	w.sched.Unwatch(w.id)
	w.id, w.active = 0, false
	w.logger.Debug("inventory watcher removed")
}
