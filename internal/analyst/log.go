package analyst

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/5ys-5y5/getEvents/internal/dateutil"
	"github.com/5ys-5y5/getEvents/internal/fmp"
	"github.com/5ys-5y5/getEvents/internal/logger"
	"github.com/5ys-5y5/getEvents/internal/valuation"
)

// PriceSource is the slice of the upstream API the refresher needs
type PriceSource interface {
	GetPriceTargetRecords(ctx context.Context, symbol string) ([]fmp.PriceTargetRecord, error)
	GetHistoricalPrices(ctx context.Context, symbol, from, to string) ([]fmp.HistoricalPrice, error)
}

// RefreshOptions tunes a log refresh run
type RefreshOptions struct {
	// Steps to run, 1-3. Empty means all.
	Steps []int
	// TestMode restricts the run to the first few symbols
	TestMode bool
}

// Refresher maintains the analyst price target log in three steps:
// collect new targets, frame the horizon grid, fill observed prices.
type Refresher struct {
	source       PriceSource
	batchSize    int
	batchDelay   time.Duration
	fetchDelay   time.Duration
	maxErrors    int
	testModeSize int
}

// NewRefresher creates a refresher with the given batching parameters
func NewRefresher(source PriceSource, batchSize, batchDelayMs, fetchDelayMs, maxErrors int) *Refresher {
	if batchSize <= 0 {
		batchSize = 3
	}
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &Refresher{
		source:       source,
		batchSize:    batchSize,
		batchDelay:   time.Duration(batchDelayMs) * time.Millisecond,
		fetchDelay:   time.Duration(fetchDelayMs) * time.Millisecond,
		maxErrors:    maxErrors,
		testModeSize: 10,
	}
}

// Refresh runs the requested steps against the log in place and
// rewrites its meta block. Per-symbol failures accumulate in the meta
// error list instead of stopping the run.
func (r *Refresher) Refresh(ctx context.Context, log *Log, symbols []string, opts RefreshOptions) error {
	start := time.Now()
	steps := opts.Steps
	if len(steps) == 0 {
		steps = []int{1, 2, 3}
	}
	if opts.TestMode && len(symbols) > r.testModeSize {
		symbols = symbols[:r.testModeSize]
	}

	var errs []valuation.SourceError
	newRecords := 0
	filledCells := 0

	for _, step := range steps {
		switch step {
		case 1:
			added, stepErrs := r.refreshTargets(ctx, log, symbols)
			newRecords += added
			errs = append(errs, stepErrs...)
		case 2:
			r.initTrendFrames(log)
		case 3:
			filled, stepErrs := r.fillTrendQuotes(ctx, log)
			filledCells += filled
			errs = append(errs, stepErrs...)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if len(errs) > r.maxErrors {
		errs = errs[:r.maxErrors]
	}

	log.Meta = LogMeta{
		LastUpdated:  time.Now().UTC().Format(time.RFC3339),
		TickerCount:  len(log.Data),
		TotalRecords: log.TotalRecords(),
		Step:         stepLabel(steps),
		NewRecords:   newRecords,
		FilledCells:  filledCells,
		DurationMs:   time.Since(start).Milliseconds(),
		Errors:       errs,
	}

	logger.CacheEvent(ctx, "analystLog", "refreshed",
		"tickerCount", log.Meta.TickerCount,
		"newRecords", newRecords,
		"filledCells", filledCells,
		"errorCount", len(errs))
	return nil
}

func stepLabel(steps []int) string {
	if len(steps) == 3 {
		return "all"
	}
	label := ""
	for i, s := range steps {
		if i > 0 {
			label += ","
		}
		label += strconv.Itoa(s)
	}
	return label
}

// refreshTargets pulls fresh price target records in small concurrent
// batches and merges them into the log, deduplicated by published date
func (r *Refresher) refreshTargets(ctx context.Context, log *Log, symbols []string) (int, []valuation.SourceError) {
	type fetchResult struct {
		symbol  string
		records []fmp.PriceTargetRecord
		err     error
	}

	var errs []valuation.SourceError
	added := 0

	for batchStart := 0; batchStart < len(symbols); batchStart += r.batchSize {
		batchEnd := batchStart + r.batchSize
		if batchEnd > len(symbols) {
			batchEnd = len(symbols)
		}
		batch := symbols[batchStart:batchEnd]

		results := make([]fetchResult, len(batch))
		var wg sync.WaitGroup
		for i, symbol := range batch {
			wg.Add(1)
			go func(i int, symbol string) {
				defer wg.Done()
				records, err := r.source.GetPriceTargetRecords(ctx, symbol)
				results[i] = fetchResult{symbol: symbol, records: records, err: err}
			}(i, symbol)
		}
		wg.Wait()

		for _, res := range results {
			if res.err != nil {
				errs = append(errs, valuation.NewSourceError("fmp-price-target", res.err))
				continue
			}
			added += mergeRecords(log, res.symbol, res.records)
		}

		if batchEnd < len(symbols) {
			select {
			case <-ctx.Done():
				return added, errs
			case <-time.After(r.batchDelay):
			}
		}
	}

	return added, errs
}

// mergeRecords appends records the log has not seen yet. Published date
// identifies a record within its ticker.
func mergeRecords(log *Log, symbol string, records []fmp.PriceTargetRecord) int {
	existing := log.Data[symbol]
	seen := make(map[string]bool, len(existing))
	for _, rec := range existing {
		seen[rec.PublishedDate] = true
	}

	added := 0
	for _, rec := range records {
		if seen[rec.PublishedDate] {
			continue
		}
		seen[rec.PublishedDate] = true
		existing = append(existing, LogRecord{
			Symbol:          symbol,
			PublishedDate:   rec.PublishedDate,
			AnalystName:     rec.AnalystName,
			AnalystCompany:  rec.AnalystCompany,
			PriceTarget:     rec.PriceTarget,
			AdjPriceTarget:  rec.AdjPriceTarget,
			PriceWhenPosted: rec.PriceWhenPosted,
		})
		added++
	}

	log.Data[symbol] = existing
	return added
}

// initTrendFrames makes sure every record carries the full horizon grid
func (r *Refresher) initTrendFrames(log *Log) {
	for symbol, records := range log.Data {
		for i := range records {
			if records[i].PriceTrend == nil {
				records[i].PriceTrend = make(map[string]*float64, len(Horizons))
			}
			for _, h := range Horizons {
				key := HorizonKey(h)
				if _, ok := records[i].PriceTrend[key]; !ok {
					records[i].PriceTrend[key] = nil
				}
			}
		}
		log.Data[symbol] = records
	}
}

// fillTrendQuotes resolves still-empty horizon cells from daily closes.
// Horizons that have not elapsed yet stay nil for a later run.
func (r *Refresher) fillTrendQuotes(ctx context.Context, log *Log) (int, []valuation.SourceError) {
	var errs []valuation.SourceError
	filled := 0
	today := dateutil.TodayUTC().Format(dateutil.ISODate)

	for symbol, records := range log.Data {
		for i := range records {
			rec := &records[i]
			if rec.PriceTrend == nil {
				continue
			}
			published := rec.PublishedDate
			if len(published) > 10 {
				published = published[:10]
			}
			for _, h := range Horizons {
				key := HorizonKey(h)
				if rec.PriceTrend[key] != nil {
					continue
				}
				target, err := dateutil.AddDays(published, h)
				if err != nil {
					errs = append(errs, valuation.NewSourceErrorf("analyst-log", "record %s/%s: %v", symbol, rec.PublishedDate, err))
					break
				}
				if target > today {
					continue
				}
				windowEnd, _ := dateutil.AddDays(target, 7)

				price, err := r.closeNear(ctx, symbol, target, windowEnd)
				if err != nil {
					errs = append(errs, valuation.NewSourceError("fmp-historical-price", err))
					continue
				}
				if price != nil {
					rec.PriceTrend[key] = price
					filled++
				}

				select {
				case <-ctx.Done():
					return filled, errs
				case <-time.After(r.fetchDelay):
				}
			}
		}
		log.Data[symbol] = records
	}

	return filled, errs
}

// closeNear returns the close of the first trading day in [from, to]
func (r *Refresher) closeNear(ctx context.Context, symbol, from, to string) (*float64, error) {
	rows, err := r.source.GetHistoricalPrices(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	close := rows[0].Close
	return &close, nil
}
