package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5ys-5y5/getEvents/internal/fmp"
)

// fakeSource serves canned upstream data per symbol
type fakeSource struct {
	quotes    map[string]*fmp.Quote
	income    map[string][]fmp.IncomeStatement
	balance   map[string][]fmp.BalanceSheet
	peers     map[string][]string
	consensus map[string]*fmp.PriceTargetConsensus
	summary   map[string]map[string]interface{}
	failAll   bool
}

func (f *fakeSource) GetQuote(_ context.Context, symbol string) (*fmp.Quote, error) {
	if f.failAll {
		return nil, errors.New("upstream down")
	}
	return f.quotes[symbol], nil
}

func (f *fakeSource) GetQuarterlyIncomeStatements(_ context.Context, symbol string, _ int) ([]fmp.IncomeStatement, error) {
	if f.failAll {
		return nil, errors.New("upstream down")
	}
	return f.income[symbol], nil
}

func (f *fakeSource) GetQuarterlyBalanceSheets(_ context.Context, symbol string, _ int) ([]fmp.BalanceSheet, error) {
	if f.failAll {
		return nil, errors.New("upstream down")
	}
	return f.balance[symbol], nil
}

func (f *fakeSource) GetPeers(_ context.Context, symbol string) ([]string, error) {
	if f.failAll {
		return nil, errors.New("upstream down")
	}
	return f.peers[symbol], nil
}

func (f *fakeSource) GetPriceTargetConsensus(_ context.Context, symbol string) (*fmp.PriceTargetConsensus, error) {
	if f.failAll {
		return nil, errors.New("upstream down")
	}
	return f.consensus[symbol], nil
}

func (f *fakeSource) GetPriceTargetSummary(_ context.Context, symbol string) (map[string]interface{}, error) {
	if f.failAll {
		return nil, errors.New("upstream down")
	}
	return f.summary[symbol], nil
}

func healthySource() *fakeSource {
	return &fakeSource{
		quotes: map[string]*fmp.Quote{
			"ACME": {Symbol: "ACME", Price: fp(50), MarketCap: fp(1000)},
		},
		income: map[string][]fmp.IncomeStatement{
			"ACME": {
				{Date: "2025-06-30", Revenue: fp(120), NetIncome: fp(12), EBITDA: fp(30), GrossProfit: fp(60), ResearchAndDevelopmentExpenses: fp(10), OperatingIncome: fp(20), WeightedAverageShsOut: fp(105)},
				{Date: "2025-03-31", Revenue: fp(110), NetIncome: fp(11), EBITDA: fp(28), GrossProfit: fp(55), ResearchAndDevelopmentExpenses: fp(9), OperatingIncome: fp(18), WeightedAverageShsOut: fp(103)},
				{Date: "2024-12-31", Revenue: fp(105), NetIncome: fp(10), EBITDA: fp(26), GrossProfit: fp(52), ResearchAndDevelopmentExpenses: fp(9), OperatingIncome: fp(17), WeightedAverageShsOut: fp(101)},
				{Date: "2024-09-30", Revenue: fp(100), NetIncome: fp(10), EBITDA: fp(25), GrossProfit: fp(50), ResearchAndDevelopmentExpenses: fp(8), OperatingIncome: fp(16), WeightedAverageShsOut: fp(100)},
			},
		},
		balance: map[string][]fmp.BalanceSheet{
			"ACME": {
				{Date: "2025-06-30", TotalStockholdersEquity: fp(500), TotalDebt: fp(200), CashAndCashEquivalents: fp(100), CashAndShortTermInvestments: fp(150), TotalCurrentAssets: fp(300), TotalCurrentLiabilities: fp(150), NetDebt: fp(100), OtherNonCurrentLiabilities: fp(50)},
				{Date: "2025-03-31", TotalStockholdersEquity: fp(480), TotalDebt: fp(210), CashAndCashEquivalents: fp(90), CashAndShortTermInvestments: fp(140), TotalCurrentAssets: fp(290), TotalCurrentLiabilities: fp(145), NetDebt: fp(120), OtherNonCurrentLiabilities: fp(55)},
				{Date: "2024-12-31", TotalStockholdersEquity: fp(460), TotalDebt: fp(220), CashAndCashEquivalents: fp(80), CashAndShortTermInvestments: fp(130), TotalCurrentAssets: fp(280), TotalCurrentLiabilities: fp(140), NetDebt: fp(140), OtherNonCurrentLiabilities: fp(60)},
				{Date: "2024-09-30", TotalStockholdersEquity: fp(440), TotalDebt: fp(230), CashAndCashEquivalents: fp(70), CashAndShortTermInvestments: fp(120), TotalCurrentAssets: fp(270), TotalCurrentLiabilities: fp(135), NetDebt: fp(160), OtherNonCurrentLiabilities: fp(65)},
			},
		},
	}
}

func TestCalculateMetrics(t *testing.T) {
	calc := NewCalculator(healthySource())
	res := calc.Calculate(context.Background(), "ACME")

	require.Empty(t, res.Errors)

	// revenueTTM = 120+110+105+100 = 435
	require.NotNil(t, res.Metrics[MetricPSR])
	assert.InDelta(t, 1000.0/435.0, *res.Metrics[MetricPSR], 1e-9)

	// netIncomeTTM = 43
	require.NotNil(t, res.Metrics[MetricPER])
	assert.InDelta(t, 1000.0/43.0, *res.Metrics[MetricPER], 1e-9)

	// equityLast = 500
	require.NotNil(t, res.Metrics[MetricPBR])
	assert.InDelta(t, 2.0, *res.Metrics[MetricPBR], 1e-9)

	// equityAvg = (500+480+460+440)/4 = 470
	require.NotNil(t, res.Metrics[MetricROE])
	assert.InDelta(t, 43.0/470.0, *res.Metrics[MetricROE], 1e-9)

	// EV = 1000 + 200 - 100 = 1100, ebitdaTTM = 109
	require.NotNil(t, res.Metrics[MetricEVEBITDA])
	assert.InDelta(t, 1100.0/109.0, *res.Metrics[MetricEVEBITDA], 1e-9)

	// Operating income is positive, so no runway
	assert.Nil(t, res.Metrics[MetricRunwayYears])

	require.NotNil(t, res.Metrics[MetricCurrentRatio])
	assert.InDelta(t, 2.0, *res.Metrics[MetricCurrentRatio], 1e-9)

	require.NotNil(t, res.Metrics[MetricRevenueGrowthYoY])
	assert.InDelta(t, 0.2, *res.Metrics[MetricRevenueGrowthYoY], 1e-9)

	require.NotNil(t, res.Metrics[MetricRevenueGrowthQoQ])
	assert.InDelta(t, 10.0/110.0, *res.Metrics[MetricRevenueGrowthQoQ], 1e-9)

	require.NotNil(t, res.Metrics[MetricGrossMarginLastQuarter])
	assert.InDelta(t, 0.5, *res.Metrics[MetricGrossMarginLastQuarter], 1e-9)

	require.NotNil(t, res.Metrics[MetricSharesDilutionYoY])
	assert.InDelta(t, 0.05, *res.Metrics[MetricSharesDilutionYoY], 1e-9)

	require.NotNil(t, res.Metrics[MetricDebtToEquityAvg])
	assert.InDelta(t, 215.0/470.0, *res.Metrics[MetricDebtToEquityAvg], 1e-9)

	// Never derivable from quarterly statements
	assert.Nil(t, res.Metrics[MetricAPICYoY])
}

func TestCalculateGrowthScenario(t *testing.T) {
	src := &fakeSource{
		quotes: map[string]*fmp.Quote{
			"GROW": {Symbol: "GROW", Price: fp(25), MarketCap: fp(1000)},
		},
		income: map[string][]fmp.IncomeStatement{
			"GROW": {
				{Date: "2025-06-30", Revenue: fp(120), NetIncome: fp(12)},
				{Date: "2025-03-31", Revenue: fp(110), NetIncome: fp(10)},
				{Date: "2024-12-31", Revenue: fp(100), NetIncome: fp(9)},
				{Date: "2024-09-30", Revenue: fp(95), NetIncome: fp(8)},
			},
		},
		balance: map[string][]fmp.BalanceSheet{
			"GROW": {{Date: "2025-06-30", TotalStockholdersEquity: fp(400)}},
		},
	}
	calc := NewCalculator(src)
	res := calc.Calculate(context.Background(), "GROW")

	// revenueTTM = 120+110+100+95 = 425
	require.NotNil(t, res.Metrics[MetricPSR])
	assert.InDelta(t, 1000.0/425.0, *res.Metrics[MetricPSR], 1e-9)

	// (120-95)/95
	require.NotNil(t, res.Metrics[MetricRevenueGrowthYoY])
	assert.InDelta(t, 25.0/95.0, *res.Metrics[MetricRevenueGrowthYoY], 1e-9)

	// netIncomeTTM = 39
	require.NotNil(t, res.Metrics[MetricPER])
	assert.InDelta(t, 1000.0/39.0, *res.Metrics[MetricPER], 1e-9)

	// Balance-only metrics that need debt or cash stay null
	assert.Nil(t, res.Metrics[MetricEVEBITDA])
	assert.Nil(t, res.Metrics[MetricCurrentRatio])
}

func TestCalculateRunwayForLossMaker(t *testing.T) {
	src := healthySource()
	for i := range src.income["ACME"] {
		src.income["ACME"][i].OperatingIncome = fp(-25)
	}
	calc := NewCalculator(src)
	res := calc.Calculate(context.Background(), "ACME")

	// burn = 100/year, cashST last = 150
	require.NotNil(t, res.Metrics[MetricRunwayYears])
	assert.InDelta(t, 1.5, *res.Metrics[MetricRunwayYears], 1e-9)
}

func TestCalculateWithoutMarketCap(t *testing.T) {
	src := healthySource()
	src.quotes["ACME"].MarketCap = nil
	calc := NewCalculator(src)
	res := calc.Calculate(context.Background(), "ACME")

	// Market-cap metrics null out individually
	assert.Nil(t, res.Metrics[MetricPBR])
	assert.Nil(t, res.Metrics[MetricPSR])
	assert.Nil(t, res.Metrics[MetricPER])
	assert.Nil(t, res.Metrics[MetricEVEBITDA])

	// Statement-derived metrics still compute
	require.NotNil(t, res.Metrics[MetricRevenueGrowthYoY])
	assert.InDelta(t, 0.2, *res.Metrics[MetricRevenueGrowthYoY], 1e-9)
	require.NotNil(t, res.Metrics[MetricROE])
	assert.InDelta(t, 43.0/470.0, *res.Metrics[MetricROE], 1e-9)
	require.NotNil(t, res.Metrics[MetricCurrentRatio])
	assert.InDelta(t, 2.0, *res.Metrics[MetricCurrentRatio], 1e-9)
	require.NotNil(t, res.Metrics[MetricGrossMarginTTM])
	require.NotNil(t, res.Metrics[MetricDebtToEquityAvg])

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "fmp-quote", res.Errors[0].ServiceID)
}

func TestCalculateMissingUpstreamData(t *testing.T) {
	calc := NewCalculator(&fakeSource{})
	res := calc.Calculate(context.Background(), "GHOST")

	require.NotEmpty(t, res.Errors)
	for _, m := range AllMetrics {
		assert.Nil(t, res.Metrics[m], "expected %s to be null", m)
	}
}

func TestCalculateUpstreamFailureCollectsErrors(t *testing.T) {
	calc := NewCalculator(&fakeSource{failAll: true})
	res := calc.Calculate(context.Background(), "ACME")

	require.NotEmpty(t, res.Errors)
	for _, e := range res.Errors {
		assert.NotEmpty(t, e.ServiceID)
		assert.NotEmpty(t, e.ErrorMessage)
		assert.NotEmpty(t, e.Timestamp)
	}
	for _, m := range AllMetrics {
		assert.Nil(t, res.Metrics[m])
	}
}

func TestMetricSetJSONEmitsAllKeys(t *testing.T) {
	set := NewMetricSet()
	set[MetricPBR] = fp(1.5)

	data, err := json.Marshal(set)
	require.NoError(t, err)

	var decoded map[string]*float64
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, len(AllMetrics))
	require.NotNil(t, decoded["PBR"])
	assert.Equal(t, 1.5, *decoded["PBR"])
	assert.Contains(t, decoded, "APICYoY")
	assert.Nil(t, decoded["APICYoY"])
}

func TestCalculateQualitative(t *testing.T) {
	src := healthySource()
	src.consensus = map[string]*fmp.PriceTargetConsensus{
		"ACME": {Symbol: "ACME", TargetConsensus: fp(60), TargetHigh: fp(80), TargetLow: fp(45), TargetMedian: fp(58)},
	}
	src.summary = map[string]map[string]interface{}{
		"ACME": {"symbol": "ACME", "lastMonthCount": 4.0},
	}
	calc := NewCalculator(src)

	res := calc.CalculateQualitative(context.Background(), "ACME")
	require.NotNil(t, res.ConsensusTargetPrice)
	assert.Equal(t, 60.0, *res.ConsensusTargetPrice.TargetConsensus)
	require.NotNil(t, res.PriceTargetSummary)
	assert.Equal(t, "ACME", res.PriceTargetSummary["symbol"])
	assert.Empty(t, res.Errors)
}

func TestCalculateQualitativeFailure(t *testing.T) {
	calc := NewCalculator(&fakeSource{failAll: true})
	res := calc.CalculateQualitative(context.Background(), "ACME")

	assert.Nil(t, res.ConsensusTargetPrice)
	assert.Nil(t, res.PriceTargetSummary)
	assert.Len(t, res.Errors, 2)
}
