package valuation

import (
	"context"
	"math"

	"github.com/5ys-5y5/getEvents/internal/fmp"
	"github.com/5ys-5y5/getEvents/internal/logger"
)

// quartersWindow is how many quarterly statements feed each metric
const quartersWindow = 4

// DataSource is the slice of the upstream API the calculator needs
type DataSource interface {
	GetQuote(ctx context.Context, symbol string) (*fmp.Quote, error)
	GetQuarterlyIncomeStatements(ctx context.Context, symbol string, limit int) ([]fmp.IncomeStatement, error)
	GetQuarterlyBalanceSheets(ctx context.Context, symbol string, limit int) ([]fmp.BalanceSheet, error)
	GetPeers(ctx context.Context, symbol string) ([]string, error)
	GetPriceTargetConsensus(ctx context.Context, symbol string) (*fmp.PriceTargetConsensus, error)
	GetPriceTargetSummary(ctx context.Context, symbol string) (map[string]interface{}, error)
}

// Calculator derives valuation metrics for tickers from quote and
// quarterly statement data
type Calculator struct {
	source DataSource
}

// NewCalculator creates a calculator backed by the given data source
func NewCalculator(source DataSource) *Calculator {
	return &Calculator{source: source}
}

// safeDiv divides guarding against nil operands and a zero denominator
func safeDiv(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	return ptr(*num / *den)
}

// Calculate computes the full metric set for one ticker. Upstream
// failures degrade individual metrics to nil and are collected, never
// propagated as a hard error.
func (c *Calculator) Calculate(ctx context.Context, ticker string) Result {
	metrics := NewMetricSet()
	var errs []SourceError

	quote, err := c.source.GetQuote(ctx, ticker)
	if err != nil {
		errs = append(errs, NewSourceError("fmp-quote", err))
	}

	income, err := c.source.GetQuarterlyIncomeStatements(ctx, ticker, quartersWindow)
	if err != nil {
		errs = append(errs, NewSourceError("fmp-income-statement", err))
	}

	balance, err := c.source.GetQuarterlyBalanceSheets(ctx, ticker, quartersWindow)
	if err != nil {
		errs = append(errs, NewSourceError("fmp-balance-sheet", err))
	}

	if quote == nil {
		errs = append(errs, NewSourceErrorf("fmp-quote", "no quote data for %s", ticker))
		return Result{Metrics: metrics, Errors: errs}
	}
	if len(income) == 0 {
		errs = append(errs, NewSourceErrorf("fmp-income-statement", "no income statements for %s", ticker))
		return Result{Metrics: metrics, Errors: errs}
	}
	if len(balance) == 0 {
		errs = append(errs, NewSourceErrorf("fmp-balance-sheet", "no balance sheets for %s", ticker))
		return Result{Metrics: metrics, Errors: errs}
	}

	// A missing market cap only nulls the marketCap-derived metrics;
	// statement-derived metrics still compute
	marketCap := quote.MarketCap
	if marketCap == nil {
		errs = append(errs, NewSourceErrorf("fmp-quote", "no market cap for %s", ticker))
	}

	revenue := incomeSeries(income, func(r fmp.IncomeStatement) *float64 { return r.Revenue })
	netIncome := incomeSeries(income, func(r fmp.IncomeStatement) *float64 { return r.NetIncome })
	ebitda := incomeSeries(income, func(r fmp.IncomeStatement) *float64 { return r.EBITDA })
	grossProfit := incomeSeries(income, func(r fmp.IncomeStatement) *float64 { return r.GrossProfit })
	rnd := incomeSeries(income, func(r fmp.IncomeStatement) *float64 { return r.ResearchAndDevelopmentExpenses })
	operatingIncome := incomeSeries(income, func(r fmp.IncomeStatement) *float64 { return r.OperatingIncome })
	sharesOut := incomeSeries(income, func(r fmp.IncomeStatement) *float64 { return r.WeightedAverageShsOut })

	equity := balanceSeries(balance, func(r fmp.BalanceSheet) *float64 { return r.TotalStockholdersEquity })
	totalDebt := balanceSeries(balance, func(r fmp.BalanceSheet) *float64 { return r.TotalDebt })
	cash := balanceSeries(balance, func(r fmp.BalanceSheet) *float64 { return r.CashAndCashEquivalents })
	cashST := balanceSeries(balance, func(r fmp.BalanceSheet) *float64 { return r.CashAndShortTermInvestments })
	currentAssets := balanceSeries(balance, func(r fmp.BalanceSheet) *float64 { return r.TotalCurrentAssets })
	currentLiabilities := balanceSeries(balance, func(r fmp.BalanceSheet) *float64 { return r.TotalCurrentLiabilities })
	netDebt := balanceSeries(balance, func(r fmp.BalanceSheet) *float64 { return r.NetDebt })
	otherNCL := balanceSeries(balance, func(r fmp.BalanceSheet) *float64 { return r.OtherNonCurrentLiabilities })

	revenueTTM := TTMFromQuarters(revenue)
	netIncomeTTM := TTMFromQuarters(netIncome)
	ebitdaTTM := TTMFromQuarters(ebitda)
	grossProfitTTM := TTMFromQuarters(grossProfit)
	rndTTM := TTMFromQuarters(rnd)
	operatingIncomeTTM := TTMFromQuarters(operatingIncome)

	equityLast := LastFromQuarters(equity)
	equityAvg := AvgFromQuarters(equity)
	debtLast := LastFromQuarters(totalDebt)
	cashLast := LastFromQuarters(cash)
	cashSTLast := LastFromQuarters(cashST)

	metrics[MetricPBR] = safeDiv(marketCap, equityLast)
	metrics[MetricPSR] = safeDiv(marketCap, revenueTTM)
	metrics[MetricPER] = safeDiv(marketCap, netIncomeTTM)
	metrics[MetricROE] = safeDiv(netIncomeTTM, equityAvg)

	// Enterprise value needs market cap, debt, and cash present
	if marketCap != nil && debtLast != nil && cashLast != nil {
		ev := *marketCap + *debtLast - *cashLast
		metrics[MetricEVEBITDA] = safeDiv(&ev, ebitdaTTM)
	}

	// Runway only makes sense while operating income is negative
	if operatingIncomeTTM != nil && *operatingIncomeTTM < 0 {
		burn := math.Abs(*operatingIncomeTTM)
		metrics[MetricRunwayYears] = safeDiv(cashSTLast, &burn)
	}

	metrics[MetricCurrentRatio] = safeDiv(LastFromQuarters(currentAssets), LastFromQuarters(currentLiabilities))
	metrics[MetricCashToRevenueTTM] = safeDiv(cashSTLast, revenueTTM)

	metrics[MetricRevenueGrowthYoY] = YoYFromQuarters(revenue)
	metrics[MetricRevenueGrowthQoQ] = QoQFromQuarters(revenue)
	metrics[MetricNetIncomeGrowthYoY] = YoYFromQuarters(netIncome)
	metrics[MetricNetIncomeGrowthQoQ] = QoQFromQuarters(netIncome)
	metrics[MetricEBITDAGrowthYoY] = YoYFromQuarters(ebitda)
	metrics[MetricEBITDAGrowthQoQ] = QoQFromQuarters(ebitda)

	metrics[MetricGrossMarginLastQuarter] = safeDiv(LastFromQuarters(grossProfit), LastFromQuarters(revenue))
	metrics[MetricGrossMarginTTM] = safeDiv(grossProfitTTM, revenueTTM)
	metrics[MetricRNDIntensityTTM] = safeDiv(rndTTM, revenueTTM)
	metrics[MetricOperatingMarginTTM] = safeDiv(operatingIncomeTTM, revenueTTM)

	metrics[MetricSharesDilutionYoY] = YoYFromQuarters(sharesOut)

	metrics[MetricDebtToEquityAvg] = safeDiv(AvgFromQuarters(totalDebt), equityAvg)
	metrics[MetricOtherNonCurrentLiabilitiesToEquityAvg] = safeDiv(AvgFromQuarters(otherNCL), equityAvg)
	metrics[MetricNetDebtToEquityAvg] = safeDiv(AvgFromQuarters(netDebt), equityAvg)

	// Quarterly statements do not carry additional paid-in capital
	metrics[MetricAPICYoY] = nil

	logger.Debug(ctx, "Valuation metrics computed", "ticker", ticker, "errorCount", len(errs))

	return Result{Metrics: metrics, Errors: errs}
}

func incomeSeries(rows []fmp.IncomeStatement, pick func(fmp.IncomeStatement) *float64) []*float64 {
	out := make([]*float64, len(rows))
	for i, r := range rows {
		out[i] = pick(r)
	}
	return out
}

func balanceSeries(rows []fmp.BalanceSheet, pick func(fmp.BalanceSheet) *float64) []*float64 {
	out := make([]*float64, len(rows))
	for i, r := range rows {
		out[i] = pick(r)
	}
	return out
}
