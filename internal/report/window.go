package report

import (
	"time"

	"kasirinaja/dashboard/internal/domain"
)

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayRange is the [start, end) range of the day offset days from now.
func DayRange(now time.Time, offset int) (time.Time, time.Time) {
	start := StartOfDay(now).AddDate(0, 0, offset)
	return start, start.AddDate(0, 0, 1)
}

// MonthRange is the [start, end) range of the calendar month offset months
// from the month of now.
func MonthRange(now time.Time, offset int) (time.Time, time.Time) {
	y, m, _ := now.Date()
	start := time.Date(y, m+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

func within(from time.Time, to time.Time) func(domain.Transaction) bool {
	return func(tx domain.Transaction) bool {
		return !tx.Timestamp.Before(from) && tx.Timestamp.Before(to)
	}
}

// InDay matches transactions on the day offset days from now.
func InDay(now time.Time, offset int) func(domain.Transaction) bool {
	return within(DayRange(now, offset))
}

// InMonth matches transactions in the month offset months from now.
func InMonth(now time.Time, offset int) func(domain.Transaction) bool {
	return within(MonthRange(now, offset))
}

// InRange matches transactions in [from, to).
func InRange(from time.Time, to time.Time) func(domain.Transaction) bool {
	return within(from, to)
}
