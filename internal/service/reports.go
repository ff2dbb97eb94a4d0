package service

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/report"
	"kasirinaja/dashboard/internal/store"
)

const (
	dashboardSeriesDays = 7
	dashboardTopN       = 5
	dashboardRecentN    = 5
)

// Dashboard assembles the landing page: headline stats, the last seven days
// of sales, this month's rankings and what needs attention.
func (s *Service) Dashboard() domain.DashboardView {
	products, txs := s.store.Snapshot()
	now := s.store.Now()
	all := slices.Values(txs)

	stats := report.Dashboard(all, products, now)
	view := domain.DashboardView{
		Stats:         stats,
		SalesSeries:   report.SalesSeries(all, dashboardSeriesDays, now),
		TopProducts:   report.TopProducts(all, products, dashboardTopN, now),
		Categories:    report.MonthlyCategories(all, products, now),
		LowStock:      s.store.Catalog().LowStock(report.LowStockThreshold),
		Recent:        s.store.Ledger().Recent(dashboardRecentN),
		Notifications: s.hub.Recent(dashboardRecentN),
	}
	var target int64
	if s.settings != nil {
		target = s.settings.Get().MonthlySalesTarget
	}
	view.SalesTarget = report.SalesTargetProgress(stats.MonthRevenue, target)
	return view
}

func (s *Service) Finance(period string) (domain.FinanceView, error) {
	if period == "" {
		period = domain.PeriodMonthly
	}
	return report.Finance(s.store.Ledger().Query(nil), period, s.store.Now())
}

func (s *Service) FinancialReport(period string, reportType string) (domain.FinancialReport, error) {
	if period == "" {
		period = domain.PeriodMonthly
	}
	return report.FinancialReport(s.store.Ledger().Query(nil), period, reportType, s.store.Now())
}

func (s *Service) Categories() []domain.CategoryStat {
	products, txs := s.store.Snapshot()
	return report.MonthlyCategories(slices.Values(txs), products, s.store.Now())
}

// TopProducts ranks this month's products by revenue, or by units when by
// is "quantity".
func (s *Service) TopProducts(n int, by string) ([]domain.ProductSales, error) {
	products, txs := s.store.Snapshot()
	now := s.store.Now()
	switch by {
	case "", "sales":
		return report.TopProducts(slices.Values(txs), products, n, now), nil
	case "quantity":
		return report.TopProductsByQuantity(slices.Values(txs), products, n, now), nil
	default:
		return nil, fmt.Errorf("%w: unknown ranking %q", store.ErrValidation, by)
	}
}

func (s *Service) Inventory() domain.InventoryReport {
	products, txs := s.store.Snapshot()
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return report.Inventory(slices.Values(txs), products, s.store.Now(), s.rng)
}

// CompleteReport is cached per store revision and calendar day.
func (s *Service) CompleteReport(ctx context.Context) domain.CompleteReport {
	now := s.store.Now()
	key := fmt.Sprintf("complete:%d:%s", s.store.Revision(), now.Format("2006-01-02"))
	if cached, ok, err := s.reports.Get(ctx, key); err == nil && ok {
		return *cached
	} else if err != nil {
		s.logger.Warn("report cache read failed", zap.Error(err))
	}

	products, txs := s.store.Snapshot()
	out := report.Complete(slices.Values(txs), products, now)
	if err := s.reports.Set(ctx, key, &out, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.Error(err))
	}
	return out
}

// Transactions lists ledger entries between from and to, newest first.
// Either bound may be empty. A date-only to bound includes that whole day.
func (s *Service) Transactions(from string, to string, limit int) ([]domain.Transaction, error) {
	loc := s.store.Now().Location()
	lower, err := parseBound(from, loc)
	if err != nil {
		return nil, err
	}
	upper, err := parseBound(to, loc)
	if err != nil {
		return nil, err
	}
	if !upper.IsZero() && upper.Equal(report.StartOfDay(upper)) {
		upper = upper.AddDate(0, 0, 1)
	}

	var pred func(domain.Transaction) bool
	switch {
	case !lower.IsZero() && !upper.IsZero():
		pred = store.Between(lower, upper)
	case !lower.IsZero():
		pred = func(tx domain.Transaction) bool { return !tx.Timestamp.Before(lower) }
	case !upper.IsZero():
		pred = func(tx domain.Transaction) bool { return tx.Timestamp.Before(upper) }
	}

	out := newestFirst(s.store.Ledger().Query(pred))
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func parseBound(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unrecognised date %q", store.ErrValidation, raw)
	}
	return t, nil
}

func newestFirst(txs iter.Seq[domain.Transaction]) []domain.Transaction {
	out := slices.Collect(txs)
	slices.Reverse(out)
	if out == nil {
		out = []domain.Transaction{}
	}
	return out
}
