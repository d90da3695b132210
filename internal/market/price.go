package market

import (
	"context"

	"github.com/5ys-5y5/getEvents/internal/fmp"
	"github.com/5ys-5y5/getEvents/internal/logger"
	"github.com/5ys-5y5/getEvents/internal/valuation"
)

// Price source labels reported to callers
const (
	SourceQuote         = "quote"
	SourcePrePostMarket = "pre-post-market"
)

// Price is a point-in-time price with its provenance
type Price struct {
	Current      *float64 `json:"current"`
	Timestamp    int64    `json:"timestamp"`
	Source       string   `json:"source"`
	MarketStatus Status   `json:"marketStatus"`
}

// QuoteSource is the slice of the upstream API price selection needs
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*fmp.Quote, error)
	GetAftermarketQuote(ctx context.Context, symbol string) (*fmp.AftermarketQuote, error)
}

// PriceService picks the right price endpoint for the current session
type PriceService struct {
	source QuoteSource
}

// NewPriceService creates a session-aware price service
func NewPriceService(source QuoteSource) *PriceService {
	return &PriceService{source: source}
}

// GetPrice fetches the current price, preferring the quote endpoint in
// regular hours and the pre/post endpoint outside them, falling back to
// the other when the preferred one has nothing.
func (s *PriceService) GetPrice(ctx context.Context, ticker string) (*Price, []valuation.SourceError) {
	status := CurrentStatus()
	var errs []valuation.SourceError

	order := []string{SourcePrePostMarket, SourceQuote}
	if status == StatusRegular {
		order = []string{SourceQuote, SourcePrePostMarket}
	}

	for _, src := range order {
		price, err := s.fetch(ctx, ticker, src, status)
		if err != nil {
			errs = append(errs, valuation.NewSourceError("fmp-"+src, err))
			continue
		}
		if price != nil {
			return price, errs
		}
	}

	logger.Warn(ctx, "No price available from any source", "ticker", ticker, "marketStatus", status)
	return nil, errs
}

func (s *PriceService) fetch(ctx context.Context, ticker, src string, status Status) (*Price, error) {
	switch src {
	case SourceQuote:
		quote, err := s.source.GetQuote(ctx, ticker)
		if err != nil || quote == nil || quote.Price == nil {
			return nil, err
		}
		return &Price{Current: quote.Price, Timestamp: quote.Timestamp, Source: SourceQuote, MarketStatus: status}, nil
	default:
		quote, err := s.source.GetAftermarketQuote(ctx, ticker)
		if err != nil || quote == nil || quote.Price == nil {
			return nil, err
		}
		return &Price{Current: quote.Price, Timestamp: quote.Timestamp, Source: SourcePrePostMarket, MarketStatus: status}, nil
	}
}
