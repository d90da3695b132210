package tracker

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/5ys-5y5/getEvents/internal/dateutil"
	"github.com/5ys-5y5/getEvents/internal/fmp"
	"github.com/5ys-5y5/getEvents/internal/logger"
	"github.com/5ys-5y5/getEvents/internal/valuation"
)

// returnsWindow is how many day offsets after purchase are tracked
const returnsWindow = 14

// Validation error codes surfaced to API callers
const (
	CodeInvalidPosition   = "INVALID_POSITION"
	CodeInvalidModelName  = "INVALID_MODEL_NAME"
	CodeInvalidTicker     = "INVALID_TICKER"
	CodeTickerNotFound    = "TICKER_NOT_FOUND"
	CodeInvalidDateFormat = "INVALID_DATE_FORMAT"
	CodeFutureDate        = "FUTURE_DATE"
	CodeNonTradingDay     = "NON_TRADING_DAY"
	CodeMalformedLine     = "MALFORMED_LINE"
)

var (
	modelNamePattern = regexp.MustCompile(`^MODEL-\d+$`)
	tickerPattern    = regexp.MustCompile(`^[A-Z]+$`)
)

// ValidationError rejects one trade request with a machine-readable code
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TradeMeta carries bookkeeping for a tracked trade
type TradeMeta struct {
	CreatedAt    string                  `json:"createdAt"`
	UpdatedAt    string                  `json:"updatedAt"`
	MissingDates []string                `json:"missingDates,omitempty"`
	Errors       []valuation.SourceError `json:"errors,omitempty"`
}

// TradeRecord is one registered trade with its forward return series
type TradeRecord struct {
	Position     string        `json:"position"`
	ModelName    string        `json:"modelName"`
	Ticker       string        `json:"ticker"`
	PurchaseDate string        `json:"purchaseDate"`
	CurrentPrice *float64      `json:"currentPrice"`
	Returns      []ReturnEntry `json:"returns"`
	Meta         TradeMeta     `json:"meta"`
}

// TradeRequest is one parsed trade registration line
type TradeRequest struct {
	Position     string `json:"position"`
	ModelName    string `json:"modelName"`
	Ticker       string `json:"ticker"`
	PurchaseDate string `json:"purchaseDate"`
}

// PriceHistorySource fetches daily bars for return tracking
type PriceHistorySource interface {
	GetHistoricalPrices(ctx context.Context, symbol, from, to string) ([]fmp.HistoricalPrice, error)
}

// SymbolChecker answers whether a ticker is in the known universe
type SymbolChecker interface {
	HasSymbol(ticker string) bool
}

// Service registers trades and computes their return series
type Service struct {
	prices    PriceHistorySource
	symbols   SymbolChecker
	maxCapPct float64
	lowCapPct float64
}

// NewService creates a trade tracking service
func NewService(prices PriceHistorySource, symbols SymbolChecker, maxCapPct, lowCapPct float64) *Service {
	if maxCapPct <= 0 {
		maxCapPct = DefaultMaxCapPct
	}
	if lowCapPct <= 0 {
		lowCapPct = DefaultLowCapPct
	}
	return &Service{
		prices:    prices,
		symbols:   symbols,
		maxCapPct: maxCapPct,
		lowCapPct: lowCapPct,
	}
}

// ParseTradeLines splits a tab-delimited request body into trade
// requests: position, modelName, ticker, purchaseDate per line
func ParseTradeLines(body string) ([]TradeRequest, []*ValidationError) {
	var requests []TradeRequest
	var errs []*ValidationError
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			errs = append(errs, &ValidationError{
				Code:    CodeMalformedLine,
				Message: fmt.Sprintf("expected 4 tab-delimited fields, got %d: %q", len(fields), line),
			})
			continue
		}
		requests = append(requests, TradeRequest{
			Position:     strings.TrimSpace(fields[0]),
			ModelName:    strings.TrimSpace(fields[1]),
			Ticker:       strings.TrimSpace(fields[2]),
			PurchaseDate: strings.TrimSpace(fields[3]),
		})
	}
	return requests, errs
}

// Validate checks a trade request against the format and calendar rules
func (s *Service) Validate(req TradeRequest) *ValidationError {
	if req.Position != "long" && req.Position != "short" {
		return &ValidationError{CodeInvalidPosition, fmt.Sprintf("position must be 'long' or 'short', got '%s'", req.Position)}
	}
	if !modelNamePattern.MatchString(req.ModelName) {
		return &ValidationError{CodeInvalidModelName, fmt.Sprintf("modelName must match MODEL-<number>, got '%s'", req.ModelName)}
	}
	if !tickerPattern.MatchString(req.Ticker) {
		return &ValidationError{CodeInvalidTicker, fmt.Sprintf("ticker must be uppercase letters, got '%s'", req.Ticker)}
	}
	if s.symbols != nil && !s.symbols.HasSymbol(req.Ticker) {
		return &ValidationError{CodeTickerNotFound, fmt.Sprintf("ticker '%s' is not in the symbol universe", req.Ticker)}
	}
	if !dateutil.IsISODate(req.PurchaseDate) {
		return &ValidationError{CodeInvalidDateFormat, fmt.Sprintf("purchaseDate must be YYYY-MM-DD, got '%s'", req.PurchaseDate)}
	}
	purchase, _ := dateutil.ParseISODate(req.PurchaseDate)
	if purchase.After(dateutil.TodayUTC()) {
		return &ValidationError{CodeFutureDate, fmt.Sprintf("purchaseDate '%s' is in the future", req.PurchaseDate)}
	}
	if IsNonTradingDay(purchase) {
		return &ValidationError{CodeNonTradingDay, fmt.Sprintf("purchaseDate '%s' is not a trading day", req.PurchaseDate)}
	}
	return nil
}

// CreateTrade validates and registers one trade, computing its entry
// price and the D+1..D+14 return series from daily bars
func (s *Service) CreateTrade(ctx context.Context, req TradeRequest) (*TradeRecord, *ValidationError) {
	if verr := s.Validate(req); verr != nil {
		return nil, verr
	}

	now := time.Now().UTC().Format(time.RFC3339)
	record := &TradeRecord{
		Position:     req.Position,
		ModelName:    req.ModelName,
		Ticker:       req.Ticker,
		PurchaseDate: req.PurchaseDate,
		Meta:         TradeMeta{CreatedAt: now, UpdatedAt: now},
	}

	bars, missing, errs := s.fetchWindow(ctx, req.Ticker, req.PurchaseDate)
	record.Meta.Errors = errs

	entry, ok := bars[req.PurchaseDate]
	if !ok {
		record.Meta.MissingDates = append(record.Meta.MissingDates, req.PurchaseDate)
		record.Meta.MissingDates = append(record.Meta.MissingDates, missing...)
		return record, nil
	}
	price := round4(entry.Open)
	record.CurrentPrice = &price

	record.Returns, missing = s.buildTrackedReturns(req, bars, missing)
	record.Meta.MissingDates = missing

	logger.Debug(ctx, "Trade registered",
		"ticker", req.Ticker,
		"model", req.ModelName,
		"position", req.Position,
		"missingDates", len(missing))

	return record, nil
}

// fetchWindow loads the daily bars covering the purchase date plus the
// tracking window and indexes them by date
func (s *Service) fetchWindow(ctx context.Context, ticker, purchaseDate string) (map[string]DayPrices, []string, []valuation.SourceError) {
	var errs []valuation.SourceError

	// 14 offsets plus up to 7 days of holiday slack
	to, _ := dateutil.AddDays(purchaseDate, returnsWindow+7)
	rows, err := s.prices.GetHistoricalPrices(ctx, ticker, purchaseDate, to)
	if err != nil {
		errs = append(errs, valuation.NewSourceError("fmp-historical-price", err))
		return map[string]DayPrices{}, nil, errs
	}

	bars := make(map[string]DayPrices, len(rows))
	for _, row := range rows {
		bars[row.Date] = DayPrices{Open: row.Open, High: row.High, Low: row.Low, Close: row.Close}
	}
	return bars, nil, errs
}

// buildTrackedReturns resolves each day offset to its trading day and
// return, recording dates that could not be resolved
func (s *Service) buildTrackedReturns(req TradeRequest, bars map[string]DayPrices, missing []string) ([]ReturnEntry, []string) {
	entryBar := bars[req.PurchaseDate]
	entryPrice := entryBar.Open
	today := dateutil.TodayUTC()
	purchase, _ := dateutil.ParseISODate(req.PurchaseDate)

	days := make([]TrackedDay, 0, returnsWindow)
	for offset := 1; offset <= returnsWindow; offset++ {
		target := purchase.AddDate(0, 0, offset)
		day := TrackedDay{Date: target.Format(dateutil.ISODate)}

		if target.After(today) {
			// Not observable yet
			days = append(days, day)
			continue
		}

		trading, ok := NextTradingDay(target, 7)
		if !ok {
			missing = append(missing, day.Date)
			days = append(days, day)
			continue
		}

		bar, found := bars[trading.Format(dateutil.ISODate)]
		if !found {
			missing = append(missing, trading.Format(dateutil.ISODate))
			days = append(days, day)
			continue
		}
		day.Bar = &bar
		days = append(days, day)
	}

	return BuildReturns(req.Position, entryPrice, days, s.maxCapPct, s.lowCapPct), missing
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
