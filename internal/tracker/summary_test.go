package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func tradeWithReturns(rates ...*float64) TradeRecord {
	trade := TradeRecord{ModelName: "MODEL-1"}
	cumulative := 0.0
	for i, r := range rates {
		entry := ReturnEntry{Date: "2025-06-0" + string(rune('1'+i))}
		if r != nil {
			cumulative += *r
			cum := cumulative
			entry.ReturnRate = r
			entry.CumulativeReturn = &cum
		}
		trade.Returns = append(trade.Returns, entry)
	}
	return trade
}

func TestSuggestedCapsFloor(t *testing.T) {
	maxCap, lowCap := SuggestedCaps([]float64{0.1, 0.2})
	assert.Nil(t, maxCap)
	assert.Nil(t, lowCap)

	maxCap, lowCap = SuggestedCaps([]float64{0.10, 0.20, 0.30, 0.40, 0.50})
	require.NotNil(t, maxCap)
	require.NotNil(t, lowCap)
	assert.InDelta(t, 0.18, *maxCap, 1e-9)
	assert.InDelta(t, 0.12, *lowCap, 1e-9)
}

func TestAvgReturnAndWinRate(t *testing.T) {
	avg, winRate := AvgReturnAndWinRate(nil)
	assert.Nil(t, avg)
	assert.Nil(t, winRate)

	avg, winRate = AvgReturnAndWinRate([]float64{0.01, -0.02, 0.03})
	require.NotNil(t, avg)
	require.NotNil(t, winRate)
	assert.InDelta(t, 0.02/3, *avg, 1e-9)
	assert.InDelta(t, 2.0/3.0, *winRate, 1e-9)
}

func TestGenerateModelSummary(t *testing.T) {
	trades := []TradeRecord{
		tradeWithReturns(fp(0.01), fp(0.02), nil),
		tradeWithReturns(fp(-0.01), fp(0.03)),
	}
	summary := GenerateModelSummary("MODEL-7", trades)

	assert.Equal(t, "MODEL-7", summary.ModelName)
	assert.Equal(t, 2, summary.TradeCount)
	// Four non-null returns clear the floor
	require.NotNil(t, summary.SuggestedMaxCap)
	require.NotNil(t, summary.SuggestedLowCap)
	require.NotNil(t, summary.AvgReturn)
	assert.InDelta(t, 0.05/4, *summary.AvgReturn, 1e-9)
	require.NotNil(t, summary.WinRate)
	assert.InDelta(t, 0.75, *summary.WinRate, 1e-9)

	// Trade 1 peaks at day 2 (0.03), trade 2 at day 2 (0.02)
	require.NotNil(t, summary.OptimalHoldingDays)
	assert.InDelta(t, 2.0, *summary.OptimalHoldingDays, 1e-9)
}

func TestGenerateModelSummaryEmpty(t *testing.T) {
	summary := GenerateModelSummary("MODEL-2", nil)
	assert.Equal(t, 0, summary.TradeCount)
	assert.Nil(t, summary.SuggestedMaxCap)
	assert.Nil(t, summary.SuggestedLowCap)
	assert.Nil(t, summary.AvgReturn)
	assert.Nil(t, summary.WinRate)
	assert.Nil(t, summary.OptimalHoldingDays)
}
