package store

import (
	"context"
	"fmt"
	"time"

	"github.com/5ys-5y5/getEvents/internal/logger"
)

const symbolCacheFile = "symbolCache.json"

// Symbol is one entry of the tradable universe
type Symbol struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// SymbolCachePayload is the on-disk shape of the symbol universe
type SymbolCachePayload struct {
	Meta struct {
		LastUpdated string `json:"lastUpdated"`
		Count       int    `json:"count"`
	} `json:"meta"`
	Data []Symbol `json:"data"`
}

// ScreenerSource fetches the raw symbol universe for an exchange
type ScreenerSource interface {
	GetScreenerSymbols(ctx context.Context, exchange string) ([]map[string]interface{}, error)
}

// SymbolCache maintains the symbol universe with a rolling expiry.
// A failed refresh falls back to the stale copy rather than leaving
// the service without a universe.
type SymbolCache struct {
	files      *FileStore
	source     ScreenerSource
	exchanges  []string
	fieldMap   map[string]string
	expiryDays int
	maxRetries int
	backoff    time.Duration

	symbols map[string]bool
	data    []Symbol
}

// NewSymbolCache creates a symbol cache. fieldMap renames screener
// payload fields to Symbol fields (localKey <- remoteKey).
func NewSymbolCache(files *FileStore, source ScreenerSource, exchanges []string, fieldMap map[string]string, expiryDays int) *SymbolCache {
	if expiryDays <= 0 {
		expiryDays = 7
	}
	if len(fieldMap) == 0 {
		fieldMap = map[string]string{
			"ticker":   "symbol",
			"name":     "companyName",
			"exchange": "exchangeShortName",
		}
	}
	return &SymbolCache{
		files:      files,
		source:     source,
		exchanges:  exchanges,
		fieldMap:   fieldMap,
		expiryDays: expiryDays,
		maxRetries: 3,
		backoff:    time.Second,
	}
}

// HasSymbol reports whether a ticker is in the loaded universe
func (c *SymbolCache) HasSymbol(ticker string) bool {
	return c.symbols[ticker]
}

// SymbolSet returns the loaded universe as a lookup set
func (c *SymbolCache) SymbolSet() map[string]bool {
	return c.symbols
}

// Tickers returns the loaded universe as a slice
func (c *SymbolCache) Tickers() []string {
	out := make([]string, 0, len(c.data))
	for _, s := range c.data {
		out = append(out, s.Ticker)
	}
	return out
}

// Count returns the size of the loaded universe
func (c *SymbolCache) Count() int {
	return len(c.data)
}

// Ensure loads the cached universe, refreshing it when the file is
// missing or older than the expiry window. When the refresh fails but
// a stale copy exists, the stale copy stays in service.
func (c *SymbolCache) Ensure(ctx context.Context) error {
	loaded := c.loadFromDisk()

	if loaded && !c.expired() {
		return nil
	}

	if err := c.Refresh(ctx); err != nil {
		if loaded {
			logger.Warn(ctx, "Symbol refresh failed, serving stale cache",
				"error", err, "count", len(c.data))
			return nil
		}
		return fmt.Errorf("symbol cache unavailable: %w", err)
	}
	return nil
}

func (c *SymbolCache) loadFromDisk() bool {
	var payload SymbolCachePayload
	if err := c.files.LoadJSON(symbolCacheFile, &payload); err != nil {
		return false
	}
	c.install(payload.Data)
	return len(c.data) > 0
}

func (c *SymbolCache) expired() bool {
	mod, err := c.files.ModTime(symbolCacheFile)
	if err != nil {
		return true
	}
	return time.Since(mod) >= time.Duration(c.expiryDays)*24*time.Hour
}

// Refresh pulls a fresh universe from the screener with retries and
// exponential backoff, then persists it
func (c *SymbolCache) Refresh(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		symbols, err := c.fetchAll(ctx)
		if err == nil {
			c.install(symbols)
			payload := SymbolCachePayload{Data: symbols}
			payload.Meta.LastUpdated = time.Now().UTC().Format(time.RFC3339)
			payload.Meta.Count = len(symbols)
			if err := c.files.SaveJSON(symbolCacheFile, payload); err != nil {
				logger.Warn(ctx, "Failed to persist symbol cache", "error", err)
			}
			logger.CacheEvent(ctx, "symbolCache", "refreshed", "count", len(symbols))
			return nil
		}
		lastErr = err
		if attempt < c.maxRetries {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			logger.Warn(ctx, "Symbol fetch failed, retrying",
				"attempt", attempt, "wait", wait.String(), "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("symbol refresh failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *SymbolCache) fetchAll(ctx context.Context) ([]Symbol, error) {
	exchanges := c.exchanges
	if len(exchanges) == 0 {
		exchanges = []string{"NASDAQ", "NYSE"}
	}

	var all []Symbol
	for _, exchange := range exchanges {
		rows, err := c.source.GetScreenerSymbols(ctx, exchange)
		if err != nil {
			return nil, fmt.Errorf("screener %s: %w", exchange, err)
		}
		for _, row := range rows {
			sym := Symbol{
				Ticker:   mappedString(row, c.fieldMap, "ticker"),
				Name:     mappedString(row, c.fieldMap, "name"),
				Exchange: mappedString(row, c.fieldMap, "exchange"),
			}
			if sym.Ticker != "" {
				all = append(all, sym)
			}
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("screener returned no symbols")
	}
	return all, nil
}

func mappedString(row map[string]interface{}, fieldMap map[string]string, localKey string) string {
	remoteKey, ok := fieldMap[localKey]
	if !ok {
		return ""
	}
	if v, ok := row[remoteKey].(string); ok {
		return v
	}
	return ""
}

func (c *SymbolCache) install(data []Symbol) {
	c.data = data
	c.symbols = make(map[string]bool, len(data))
	for _, s := range data {
		c.symbols[s.Ticker] = true
	}
}
