package tracker

import (
	"time"
)

// usMarketHolidays2025 are the NYSE full-close holidays for 2025
var usMarketHolidays2025 = map[string]bool{
	"2025-01-01": true, // New Year's Day
	"2025-01-20": true, // Martin Luther King Jr. Day
	"2025-02-17": true, // Washington's Birthday
	"2025-04-18": true, // Good Friday
	"2025-05-26": true, // Memorial Day
	"2025-07-04": true, // Independence Day
	"2025-09-01": true, // Labor Day
	"2025-11-27": true, // Thanksgiving Day
	"2025-12-25": true, // Christmas Day
}

// IsNonTradingDay reports whether the market is fully closed on a date
func IsNonTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return usMarketHolidays2025[t.Format("2006-01-02")]
}

// NextTradingDay walks forward from a date to the next trading day,
// giving up after maxDays. The date itself counts when it trades.
func NextTradingDay(t time.Time, maxDays int) (time.Time, bool) {
	for i := 0; i <= maxDays; i++ {
		candidate := t.AddDate(0, 0, i)
		if !IsNonTradingDay(candidate) {
			return candidate, true
		}
	}
	return time.Time{}, false
}
