package valuation

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Aggregation primitives over quarterly series. Series are ordered
// newest-first and carry nil for quarters where upstream had no value.
// Every function returns nil instead of guessing when the inputs are
// insufficient.

// ptr returns a pointer to v
func ptr(v float64) *float64 {
	return &v
}

// compact filters out nil entries, preserving order
func compact(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// TTMFromQuarters computes a trailing-twelve-month total. Exactly four
// valid quarters sum directly; a partial series is annualized from its
// average. No valid quarters yields nil.
func TTMFromQuarters(values []*float64) *float64 {
	valid := compact(values)
	if len(valid) == 0 {
		return nil
	}
	if len(valid) == 4 {
		sum := 0.0
		for _, v := range valid {
			sum += v
		}
		return ptr(sum)
	}
	return ptr(stat.Mean(valid, nil) * 4)
}

// AvgFromQuarters computes the mean of the valid quarters, nil when none
func AvgFromQuarters(values []*float64) *float64 {
	valid := compact(values)
	if len(valid) == 0 {
		return nil
	}
	return ptr(stat.Mean(valid, nil))
}

// LastFromQuarters returns the most recent valid quarter value
func LastFromQuarters(values []*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return ptr(*v)
		}
	}
	return nil
}

// YoYFromQuarters computes year-over-year growth from the newest quarter
// against the quarter four periods back. Needs at least four quarters,
// both endpoints valid, and a nonzero base.
func YoYFromQuarters(values []*float64) *float64 {
	if len(values) < 4 {
		return nil
	}
	cur, base := values[0], values[3]
	if cur == nil || base == nil || *base == 0 {
		return nil
	}
	return ptr((*cur - *base) / *base)
}

// QoQFromQuarters computes quarter-over-quarter growth from the two
// newest quarters
func QoQFromQuarters(values []*float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	cur, prev := values[0], values[1]
	if cur == nil || prev == nil || *prev == 0 {
		return nil
	}
	return ptr((*cur - *prev) / *prev)
}

// AvgConsensus computes the mean of the valid consensus values
func AvgConsensus(values []*float64) *float64 {
	return AvgFromQuarters(values)
}

// Percentile computes the p-th percentile of values using linear
// interpolation between closest ranks. Empty input yields nil; a single
// value is its own percentile for any p.
func Percentile(values []float64, p float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	if len(values) == 1 {
		return ptr(values[0])
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := float64(len(sorted)-1) * p / 100
	lower := int(index)
	upper := lower + 1
	weight := index - float64(lower)

	if upper >= len(sorted) {
		return ptr(sorted[lower])
	}
	return ptr(sorted[lower]*(1-weight) + sorted[upper]*weight)
}
