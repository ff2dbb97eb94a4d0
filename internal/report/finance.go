package report

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"kasirinaja/dashboard/internal/domain"
)

// ErrUnsupported marks an unknown period or report type.
var ErrUnsupported = errors.New("unsupported report option")

type bucket struct {
	label string
	from  time.Time
	to    time.Time
}

// periodBuckets returns the chart windows for a finance period, oldest first:
// the last 7 days, the last 4 weeks or the last 6 calendar months.
func periodBuckets(period string, now time.Time) ([]bucket, error) {
	switch period {
	case domain.PeriodDaily:
		out := make([]bucket, 0, 7)
		for i := 6; i >= 0; i-- {
			from, to := DayRange(now, -i)
			out = append(out, bucket{label: from.Format("Mon 02"), from: from, to: to})
		}
		return out, nil
	case domain.PeriodWeekly:
		out := make([]bucket, 0, 4)
		today := StartOfDay(now)
		for i := 3; i >= 0; i-- {
			from := today.AddDate(0, 0, -(i*7 + 6))
			out = append(out, bucket{label: fmt.Sprintf("Week %d", 4-i), from: from, to: from.AddDate(0, 0, 7)})
		}
		return out, nil
	case domain.PeriodMonthly:
		out := make([]bucket, 0, 6)
		for i := 5; i >= 0; i-- {
			from, to := MonthRange(now, -i)
			out = append(out, bucket{label: from.Format("Jan 2006"), from: from, to: to})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown finance period %q", ErrUnsupported, period)
}

// Series totals each bucket of period.
func Series(txs iter.Seq[domain.Transaction], period string, now time.Time) ([]domain.SeriesPoint, error) {
	buckets, err := periodBuckets(period, now)
	if err != nil {
		return nil, err
	}
	all := slices.Collect(txs)
	points := make([]domain.SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		totals := WindowTotals(slices.Values(all), within(b.from, b.to))
		points = append(points, domain.SeriesPoint{
			Label:    b.label,
			Start:    b.from,
			Revenue:  totals.Revenue,
			Profit:   totals.Profit,
			Expenses: totals.Expenses,
			Margin:   totals.Margin,
			Count:    totals.Count,
		})
	}
	return points, nil
}

// SalesSeries totals each of the last days days, oldest first.
func SalesSeries(txs iter.Seq[domain.Transaction], days int, now time.Time) []domain.SeriesPoint {
	all := slices.Collect(txs)
	points := make([]domain.SeriesPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		from, to := DayRange(now, -i)
		totals := WindowTotals(slices.Values(all), within(from, to))
		points = append(points, domain.SeriesPoint{
			Label:    from.Format("02 Jan"),
			Start:    from,
			Revenue:  totals.Revenue,
			Profit:   totals.Profit,
			Expenses: totals.Expenses,
			Margin:   totals.Margin,
			Count:    totals.Count,
		})
	}
	return points
}

// PeriodTotals sums the whole span covered by the buckets of period.
func PeriodTotals(txs iter.Seq[domain.Transaction], period string, now time.Time) (domain.WindowTotals, error) {
	buckets, err := periodBuckets(period, now)
	if err != nil {
		return domain.WindowTotals{}, err
	}
	return WindowTotals(txs, within(buckets[0].from, buckets[len(buckets)-1].to)), nil
}

// Advise turns window totals into recommendation codes.
func Advise(totals domain.WindowTotals) []domain.Advice {
	advice := make([]domain.Advice, 0, 2)
	if totals.Margin < 30 {
		advice = append(advice, domain.Advice{Code: domain.AdviceLowMargin, Level: "warning", Message: "Profit margin is low. Consider raising prices or lowering production cost."})
	}
	if totals.Margin > 70 {
		advice = append(advice, domain.Advice{Code: domain.AdviceHighMargin, Level: "success", Message: "Profit margin is excellent. Keep product and service quality steady."})
	}
	if totals.Count < 10 {
		advice = append(advice, domain.Advice{Code: domain.AdviceLowVolume, Level: "info", Message: "Few transactions in this period. Run a promotion to lift sales."})
	}
	if len(advice) == 0 {
		advice = append(advice, domain.Advice{Code: domain.AdviceHealthy, Level: "success", Message: "Finances look healthy. Keep growing the current strategy."})
	}
	return advice
}

func Finance(txs iter.Seq[domain.Transaction], period string, now time.Time) (domain.FinanceView, error) {
	series, err := Series(txs, period, now)
	if err != nil {
		return domain.FinanceView{}, err
	}
	totals, err := PeriodTotals(txs, period, now)
	if err != nil {
		return domain.FinanceView{}, err
	}
	return domain.FinanceView{
		Period:          period,
		Summary:         totals,
		Series:          series,
		Recommendations: Advise(totals),
	}, nil
}

// FinancialReport builds the exportable report document for period.
func FinancialReport(txs iter.Seq[domain.Transaction], period string, reportType string, now time.Time) (domain.FinancialReport, error) {
	switch reportType {
	case "":
		reportType = domain.ReportTypeSummary
	case domain.ReportTypeSummary, domain.ReportTypeDetailed, domain.ReportTypeProfitLoss, domain.ReportTypeCashFlow:
	default:
		return domain.FinancialReport{}, fmt.Errorf("%w: unknown report type %q", ErrUnsupported, reportType)
	}

	series, err := Series(txs, period, now)
	if err != nil {
		return domain.FinancialReport{}, err
	}

	report := domain.FinancialReport{
		Period:      period,
		ReportType:  reportType,
		GeneratedAt: now.UTC(),
		Details:     make([]domain.FinancialDetail, 0, len(series)),
	}
	for _, point := range series {
		report.Summary.Revenue += point.Revenue
		report.Summary.Expenses += point.Expenses
		report.Summary.Profit += point.Profit
		report.Summary.TransactionCount += point.Count
		report.Details = append(report.Details, domain.FinancialDetail{
			Period:   point.Label,
			Revenue:  point.Revenue,
			Expenses: point.Expenses,
			Profit:   point.Profit,
			Margin:   point.Margin,
		})
	}
	if report.Summary.Revenue > 0 {
		report.Summary.Margin = round2(float64(report.Summary.Profit) / float64(report.Summary.Revenue) * 100)
	}
	return report, nil
}
