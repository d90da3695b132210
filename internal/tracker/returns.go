package tracker

// DayPrices is one day's OHLC bar for return computation
type DayPrices struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Cap thresholds applied when a day's range crosses them. A breach of
// the max cap or the protective low cap settles at the open instead of
// the close, mirroring a stop order filled at the next print.
const (
	DefaultMaxCapPct = 0.20
	DefaultLowCapPct = 0.05
)

// CapAwareReturn computes the per-day return for a position, choosing
// the price basis from how the day's range interacted with the caps.
// Basis is one of "open_maxCap", "open_lowCap", "close".
func CapAwareReturn(position string, entryPrice float64, day DayPrices, maxCapPct, lowCapPct float64) (float64, string) {
	if maxCapPct <= 0 {
		maxCapPct = DefaultMaxCapPct
	}
	if lowCapPct <= 0 {
		lowCapPct = DefaultLowCapPct
	}

	openReturn := (day.Open - entryPrice) / entryPrice
	closeReturn := (day.Close - entryPrice) / entryPrice

	if position == "short" {
		switch {
		case day.Low <= entryPrice*(1-maxCapPct):
			return -openReturn, "open_maxCap"
		case day.High >= entryPrice*(1+lowCapPct):
			return -openReturn, "open_lowCap"
		default:
			return -closeReturn, "close"
		}
	}

	switch {
	case day.High >= entryPrice*(1+maxCapPct):
		return openReturn, "open_maxCap"
	case day.Low <= entryPrice*(1-lowCapPct):
		return openReturn, "open_lowCap"
	default:
		return closeReturn, "close"
	}
}

// ReturnEntry is the realized return at one day offset after purchase
type ReturnEntry struct {
	Date             string   `json:"date"`
	ReturnRate       *float64 `json:"returnRate"`
	CumulativeReturn *float64 `json:"cumulativeReturn"`
	PriceBasis       string   `json:"priceBasis,omitempty"`
}

// TrackedDay pairs a calendar date with its bar, if one traded
type TrackedDay struct {
	Date string
	Bar  *DayPrices
}

// BuildReturns folds daily bars into the D+1..D+14 return series.
// Days with no bar stay null and do not advance the cumulative sum.
func BuildReturns(position string, entryPrice float64, days []TrackedDay, maxCapPct, lowCapPct float64) []ReturnEntry {
	out := make([]ReturnEntry, 0, len(days))
	cumulative := 0.0
	for _, d := range days {
		entry := ReturnEntry{Date: d.Date}
		if d.Bar != nil {
			rate, basis := CapAwareReturn(position, entryPrice, *d.Bar, maxCapPct, lowCapPct)
			cumulative += rate
			cum := cumulative
			entry.ReturnRate = &rate
			entry.CumulativeReturn = &cum
			entry.PriceBasis = basis
		}
		out = append(out, entry)
	}
	return out
}
