package events

import (
	"context"
	"net/url"

	"github.com/5ys-5y5/getEvents/internal/logger"
	"github.com/5ys-5y5/getEvents/internal/valuation"
)

// SourceConfig describes one upstream calendar endpoint
type SourceConfig struct {
	Name     string
	Path     string
	FieldMap map[string]string
}

// RawSource fetches untyped rows from an endpoint path
type RawSource interface {
	GetRaw(ctx context.Context, path string, params url.Values) ([]map[string]interface{}, error)
}

// Collector gathers events from every configured source over a date
// range, normalizes them through each source's field map, and
// deduplicates across sources
type Collector struct {
	source  RawSource
	configs []SourceConfig
}

// NewCollector creates an event collector
func NewCollector(source RawSource, configs []SourceConfig) *Collector {
	return &Collector{source: source, configs: configs}
}

// Collect fetches [from, to] from all sources. A failing source is
// recorded and skipped; the remaining sources still contribute. When
// symbols is non-nil, events outside the universe are dropped.
func (c *Collector) Collect(ctx context.Context, from, to string, symbols map[string]bool) ([]Event, []valuation.SourceError) {
	var all []Event
	var errs []valuation.SourceError

	for _, cfg := range c.configs {
		params := url.Values{"from": {from}, "to": {to}}
		rows, err := c.source.GetRaw(ctx, cfg.Path, params)
		if err != nil {
			errs = append(errs, valuation.NewSourceError(cfg.Name, err))
			continue
		}
		normalized := Normalize(rows, cfg.FieldMap, cfg.Name)
		all = append(all, normalized...)
		logger.Debug(ctx, "Event source collected", "source", cfg.Name, "count", len(normalized))
	}

	all = Deduplicate(all)
	if symbols != nil {
		all = FilterBySymbols(all, symbols)
	}
	return all, errs
}
