package market

import (
	"time"
)

// Status is the current US market session
type Status string

const (
	StatusPreMarket  Status = "pre-market"
	StatusRegular    Status = "regular"
	StatusPostMarket Status = "post-market"
	StatusClosed     Status = "closed"
)

// Session boundaries in minutes since midnight Eastern
const (
	preMarketOpen = 4 * 60    // 04:00
	regularOpen   = 9*60 + 30 // 09:30
	regularClose  = 16 * 60   // 16:00
	postMarketEnd = 20 * 60   // 20:00
)

var eastern = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Fall back to fixed EST; wrong for half the year but usable
		return time.FixedZone("EST", -5*3600)
	}
	return loc
}

// StatusAt classifies a moment against the US equity session
func StatusAt(t time.Time) Status {
	et := t.In(eastern)
	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return StatusClosed
	}

	minutes := et.Hour()*60 + et.Minute()
	switch {
	case minutes >= regularOpen && minutes < regularClose:
		return StatusRegular
	case minutes >= preMarketOpen && minutes < regularOpen:
		return StatusPreMarket
	case minutes >= regularClose && minutes < postMarketEnd:
		return StatusPostMarket
	default:
		return StatusClosed
	}
}

// CurrentStatus classifies the present moment
func CurrentStatus() Status {
	return StatusAt(time.Now())
}
