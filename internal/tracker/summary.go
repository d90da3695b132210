package tracker

import (
	"gonum.org/v1/gonum/stat"

	"github.com/5ys-5y5/getEvents/internal/valuation"
)

// minReturnsForCaps is the statistical floor below which percentile
// caps are not suggested
const minReturnsForCaps = 3

// ModelSummary condenses a model's completed trades into sizing hints
type ModelSummary struct {
	ModelName          string   `json:"modelName"`
	TradeCount         int      `json:"tradeCount"`
	SuggestedMaxCap    *float64 `json:"suggestedMaxCap"`
	SuggestedLowCap    *float64 `json:"suggestedLowCap"`
	AvgReturn          *float64 `json:"avgReturn"`
	WinRate            *float64 `json:"winRate"`
	OptimalHoldingDays *float64 `json:"optimalHoldingDays"`
}

// CollectReturns flattens the non-null return rates across trades
func CollectReturns(trades []TradeRecord) []float64 {
	var out []float64
	for _, trade := range trades {
		for _, entry := range trade.Returns {
			if entry.ReturnRate != nil {
				out = append(out, *entry.ReturnRate)
			}
		}
	}
	return out
}

// SuggestedCaps derives cap percentiles from realized returns. Fewer
// than three observations is too thin to suggest anything.
func SuggestedCaps(returns []float64) (maxCap, lowCap *float64) {
	if len(returns) < minReturnsForCaps {
		return nil, nil
	}
	return valuation.Percentile(returns, 20), valuation.Percentile(returns, 5)
}

// AvgReturnAndWinRate computes the mean return and the fraction of
// positive returns, both nil for an empty series
func AvgReturnAndWinRate(returns []float64) (avg, winRate *float64) {
	if len(returns) == 0 {
		return nil, nil
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	mean := stat.Mean(returns, nil)
	rate := float64(wins) / float64(len(returns))
	return &mean, &rate
}

// OptimalHoldingDays averages, across trades, the 1-based day offset
// where each trade's cumulative return peaked
func OptimalHoldingDays(trades []TradeRecord) *float64 {
	var bestDays []float64
	for _, trade := range trades {
		bestDay := 0
		bestValue := 0.0
		for i, entry := range trade.Returns {
			if entry.CumulativeReturn == nil {
				continue
			}
			if bestDay == 0 || *entry.CumulativeReturn > bestValue {
				bestDay = i + 1
				bestValue = *entry.CumulativeReturn
			}
		}
		if bestDay > 0 {
			bestDays = append(bestDays, float64(bestDay))
		}
	}
	if len(bestDays) == 0 {
		return nil
	}
	mean := stat.Mean(bestDays, nil)
	return &mean
}

// GenerateModelSummary builds the percentile summary for one model's trades
func GenerateModelSummary(modelName string, trades []TradeRecord) ModelSummary {
	returns := CollectReturns(trades)
	maxCap, lowCap := SuggestedCaps(returns)
	avg, winRate := AvgReturnAndWinRate(returns)

	return ModelSummary{
		ModelName:          modelName,
		TradeCount:         len(trades),
		SuggestedMaxCap:    maxCap,
		SuggestedLowCap:    lowCap,
		AvgReturn:          avg,
		WinRate:            winRate,
		OptimalHoldingDays: OptimalHoldingDays(trades),
	}
}
