package fmp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/5ys-5y5/getEvents/internal/api"
	"github.com/5ys-5y5/getEvents/internal/logger"
)

// Client talks to the Financial Modeling Prep REST API.
// All calls share one rate limiter so the per-minute quota holds
// across concurrent callers.
type Client struct {
	api     *api.Client
	apiKey  string
	limiter *RateLimiter
	retry   *api.RetryConfig
}

// NewClient creates a new FMP client. maxRetries caps the attempts per
// request; zero or negative keeps the default.
func NewClient(baseURL, apiKey string, requestsPerMin, maxRetries int, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retry := api.DefaultRetryConfig()
	if maxRetries > 0 {
		retry.MaxAttempts = maxRetries
	}
	return &Client{
		api: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(timeout),
			api.WithHeader("Accept", "application/json"),
			api.WithLogging(true),
		),
		apiKey:  apiKey,
		limiter: NewPerMinuteLimiter(requestsPerMin),
		retry:   retry,
	}
}

// HasAPIKey reports whether an API key is configured
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// buildPath appends query parameters and the API key to an endpoint path
func (c *Client) buildPath(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	return path + "?" + params.Encode()
}

// getJSON performs a rate-limited GET with retries and decodes the response
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	full := c.buildPath(path, params)
	req := api.NewRequest(http.MethodGet, full).WithContext(ctx)

	start := time.Now()
	resp, err := c.api.DoWithRetry(req, c.retry)
	if err != nil {
		logger.ApiCall(ctx, "fmp", path, 0, time.Since(start), "error", err.Error())
		return fmt.Errorf("fmp request %s failed: %w", path, err)
	}
	logger.ApiCall(ctx, "fmp", path, resp.StatusCode, time.Since(start))

	if err := resp.ParseJSON(out); err != nil {
		return fmt.Errorf("fmp response %s: %w", path, err)
	}
	return nil
}

// GetQuote fetches the real-time quote for a symbol.
// Returns nil when the symbol is unknown upstream.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var rows []Quote
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/stable/quote", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetAftermarketQuote fetches the latest pre/post market trade for a symbol
func (c *Client) GetAftermarketQuote(ctx context.Context, symbol string) (*AftermarketQuote, error) {
	var rows []AftermarketQuote
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/stable/aftermarket-trade", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetQuarterlyIncomeStatements fetches the most recent quarterly income
// statements, newest first
func (c *Client) GetQuarterlyIncomeStatements(ctx context.Context, symbol string, limit int) ([]IncomeStatement, error) {
	var rows []IncomeStatement
	params := url.Values{
		"symbol": {symbol},
		"period": {"quarter"},
		"limit":  {fmt.Sprintf("%d", limit)},
	}
	if err := c.getJSON(ctx, "/stable/income-statement", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetQuarterlyBalanceSheets fetches the most recent quarterly balance
// sheets, newest first
func (c *Client) GetQuarterlyBalanceSheets(ctx context.Context, symbol string, limit int) ([]BalanceSheet, error) {
	var rows []BalanceSheet
	params := url.Values{
		"symbol": {symbol},
		"period": {"quarter"},
		"limit":  {fmt.Sprintf("%d", limit)},
	}
	if err := c.getJSON(ctx, "/stable/balance-sheet-statement", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetPeers fetches the peer ticker list for a symbol
func (c *Client) GetPeers(ctx context.Context, symbol string) ([]string, error) {
	var rows []StockPeers
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/stable/stock-peers", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].PeersList, nil
}

// GetPriceTargetConsensus fetches current consensus target prices for a symbol
func (c *Client) GetPriceTargetConsensus(ctx context.Context, symbol string) (*PriceTargetConsensus, error) {
	var rows []PriceTargetConsensus
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/stable/price-target-consensus", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetPriceTargetSummary fetches the price target summary row for a symbol.
// The payload shape varies by plan tier, so it stays untyped.
func (c *Client) GetPriceTargetSummary(ctx context.Context, symbol string) (map[string]interface{}, error) {
	var rows []map[string]interface{}
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/stable/price-target-summary", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetPriceTargetRecords fetches published analyst price targets for a symbol
func (c *Client) GetPriceTargetRecords(ctx context.Context, symbol string) ([]PriceTargetRecord, error) {
	var rows []PriceTargetRecord
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/stable/price-target", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetHistoricalPrices fetches daily OHLC bars for a symbol in [from, to]
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol, from, to string) ([]HistoricalPrice, error) {
	var rows []HistoricalPrice
	params := url.Values{
		"symbol": {symbol},
		"from":   {from},
		"to":     {to},
	}
	if err := c.getJSON(ctx, "/stable/historical-price-eod/full", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetScreenerSymbols fetches the tradable symbol universe for an exchange.
// Rows stay untyped so callers can apply a configured field map.
func (c *Client) GetScreenerSymbols(ctx context.Context, exchange string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	params := url.Values{
		"exchange": {exchange},
		"limit":    {"10000"},
	}
	if err := c.getJSON(ctx, "/stable/company-screener", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetRaw performs a GET on an arbitrary endpoint path with query params and
// returns the untyped rows. Event source endpoints are configured, not
// hard-coded, so their payloads flow through here.
func (c *Client) GetRaw(ctx context.Context, path string, params url.Values) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := c.getJSON(ctx, path, params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
