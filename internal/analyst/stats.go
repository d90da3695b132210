package analyst

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/5ys-5y5/getEvents/internal/valuation"
)

// z95 is the normal critical value for a 95% confidence interval
const z95 = 1.96

func ptr(v float64) *float64 {
	return &v
}

// summarize computes the distribution summary used for one gap rate
// horizon. Variance is over the full population, not a sample.
// Confidence bounds need at least two observations.
func summarize(values []float64) GapRateStats {
	switch len(values) {
	case 0:
		return GapRateStats{}
	case 1:
		return GapRateStats{
			MeanGapRate: ptr(values[0]),
			StdGapRate:  ptr(0),
			Count:       1,
		}
	}

	mean := stat.Mean(values, nil)
	std := stat.PopStdDev(values, nil)
	se := std / math.Sqrt(float64(len(values)))
	margin := z95 * se

	return GapRateStats{
		MeanGapRate:   ptr(mean),
		StdGapRate:    ptr(std),
		Count:         len(values),
		StandardError: ptr(se),
		CI95Lower:     ptr(mean - margin),
		CI95Upper:     ptr(mean + margin),
		CI95Width:     ptr(2 * margin),
	}
}

// quantile computes the q-th quantile (0..1) with linear interpolation
// between closest ranks
func quantile(values []float64, q float64) *float64 {
	return valuation.Percentile(values, q*100)
}
