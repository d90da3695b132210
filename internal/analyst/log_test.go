package analyst

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5ys-5y5/getEvents/internal/fmp"
)

type fakePriceSource struct {
	mu         sync.Mutex
	targets    map[string][]fmp.PriceTargetRecord
	history    map[string][]fmp.HistoricalPrice
	targetErr  error
	historyErr error
	fetches    int
}

func (f *fakePriceSource) GetPriceTargetRecords(_ context.Context, symbol string) ([]fmp.PriceTargetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.targetErr != nil {
		return nil, f.targetErr
	}
	return f.targets[symbol], nil
}

func (f *fakePriceSource) GetHistoricalPrices(_ context.Context, symbol, _, _ string) ([]fmp.HistoricalPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[symbol], nil
}

func TestRefreshTargetsMergesByPublishedDate(t *testing.T) {
	source := &fakePriceSource{
		targets: map[string][]fmp.PriceTargetRecord{
			"ACME": {
				{Symbol: "ACME", PublishedDate: "2025-06-01", AnalystName: "A", PriceTarget: fp(100), PriceWhenPosted: fp(90)},
				{Symbol: "ACME", PublishedDate: "2025-05-01", AnalystName: "A", PriceTarget: fp(95), PriceWhenPosted: fp(85)},
			},
		},
	}
	r := NewRefresher(source, 2, 0, 0, 100)

	log := NewLog()
	// One record already known
	log.Data["ACME"] = []LogRecord{{Symbol: "ACME", PublishedDate: "2025-05-01"}}

	err := r.Refresh(context.Background(), log, []string{"ACME"}, RefreshOptions{Steps: []int{1}})
	require.NoError(t, err)

	assert.Len(t, log.Data["ACME"], 2)
	assert.Equal(t, 1, log.Meta.NewRecords)
	assert.Equal(t, 1, log.Meta.TickerCount)
	assert.Equal(t, 2, log.Meta.TotalRecords)
	assert.Empty(t, log.Meta.Errors)
}

func TestRefreshTargetsCollectsErrors(t *testing.T) {
	source := &fakePriceSource{targetErr: errors.New("quota exceeded")}
	r := NewRefresher(source, 3, 0, 0, 100)

	log := NewLog()
	err := r.Refresh(context.Background(), log, []string{"ACME", "BOLT"}, RefreshOptions{Steps: []int{1}})
	require.NoError(t, err)

	require.Len(t, log.Meta.Errors, 2)
	assert.Equal(t, "fmp-price-target", log.Meta.Errors[0].ServiceID)
	assert.Contains(t, log.Meta.Errors[0].ErrorMessage, "quota exceeded")
}

func TestRefreshErrorsAreCapped(t *testing.T) {
	source := &fakePriceSource{targetErr: errors.New("down")}
	r := NewRefresher(source, 10, 0, 0, 5)

	symbols := make([]string, 20)
	for i := range symbols {
		symbols[i] = "SYM"
	}

	log := NewLog()
	err := r.Refresh(context.Background(), log, symbols, RefreshOptions{Steps: []int{1}})
	require.NoError(t, err)
	assert.Len(t, log.Meta.Errors, 5)
}

func TestInitTrendFrames(t *testing.T) {
	r := NewRefresher(&fakePriceSource{}, 3, 0, 0, 100)

	log := NewLog()
	log.Data["ACME"] = []LogRecord{
		{Symbol: "ACME", PublishedDate: "2025-06-01"},
		{Symbol: "ACME", PublishedDate: "2025-05-01", PriceTrend: map[string]*float64{"D1": fp(50)}},
	}

	err := r.Refresh(context.Background(), log, nil, RefreshOptions{Steps: []int{2}})
	require.NoError(t, err)

	for _, rec := range log.Data["ACME"] {
		require.NotNil(t, rec.PriceTrend)
		assert.Len(t, rec.PriceTrend, len(Horizons))
	}
	// Existing cells survive framing
	require.NotNil(t, log.Data["ACME"][1].PriceTrend["D1"])
	assert.Equal(t, 50.0, *log.Data["ACME"][1].PriceTrend["D1"])
}

func TestFillTrendQuotesSkipsFutureHorizons(t *testing.T) {
	source := &fakePriceSource{
		history: map[string][]fmp.HistoricalPrice{
			"ACME": {
				{Date: "2025-06-04", Open: 101, High: 103, Low: 100, Close: 102},
				{Date: "2025-06-02", Open: 99, High: 101, Low: 98, Close: 100},
			},
		},
	}
	r := NewRefresher(source, 3, 0, 0, 100)

	log := NewLog()
	log.Data["ACME"] = []LogRecord{
		{Symbol: "ACME", PublishedDate: "2025-06-01"},
	}

	err := r.Refresh(context.Background(), log, nil, RefreshOptions{Steps: []int{2, 3}})
	require.NoError(t, err)

	rec := log.Data["ACME"][0]
	// Elapsed horizons take the earliest close in the window
	require.NotNil(t, rec.PriceTrend["D1"])
	assert.Equal(t, 100.0, *rec.PriceTrend["D1"])
	assert.Greater(t, log.Meta.FilledCells, 0)
}

func TestFillTrendQuotesOnlyTouchesEmptyCells(t *testing.T) {
	source := &fakePriceSource{
		history: map[string][]fmp.HistoricalPrice{
			"ACME": {{Date: "2025-06-02", Close: 100}},
		},
	}
	r := NewRefresher(source, 3, 0, 0, 100)

	grid := make(map[string]*float64, len(Horizons))
	for _, h := range Horizons {
		grid[HorizonKey(h)] = fp(42)
	}

	log := NewLog()
	log.Data["ACME"] = []LogRecord{
		{Symbol: "ACME", PublishedDate: "2025-06-01", PriceTrend: grid},
	}

	err := r.Refresh(context.Background(), log, nil, RefreshOptions{Steps: []int{3}})
	require.NoError(t, err)

	assert.Equal(t, 0, source.fetches)
	assert.Equal(t, 0, log.Meta.FilledCells)
	for _, h := range Horizons {
		assert.Equal(t, 42.0, *log.Data["ACME"][0].PriceTrend[HorizonKey(h)])
	}
}

func TestRefreshTestModeLimitsSymbols(t *testing.T) {
	source := &fakePriceSource{targets: map[string][]fmp.PriceTargetRecord{}}
	r := NewRefresher(source, 50, 0, 0, 100)

	symbols := make([]string, 25)
	for i := range symbols {
		symbols[i] = HorizonKey(i)
	}

	log := NewLog()
	err := r.Refresh(context.Background(), log, symbols, RefreshOptions{Steps: []int{1}, TestMode: true})
	require.NoError(t, err)
	// Only the leading symbols were touched; nothing added either way
	assert.Equal(t, 0, log.Meta.NewRecords)
}
