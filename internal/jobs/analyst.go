package jobs

import (
	"context"
	"fmt"

	"github.com/5ys-5y5/getEvents/internal/analyst"
	"github.com/5ys-5y5/getEvents/internal/logger"
	"github.com/5ys-5y5/getEvents/internal/store"
)

// AnalystRefresh runs the full analyst log pipeline on a schedule:
// collect new price targets, frame horizon grids, fill observed
// prices, then regenerate the rating.
type AnalystRefresh struct {
	symbols   *store.SymbolCache
	analysts  *store.AnalystStore
	refresher *analyst.Refresher
}

func NewAnalystRefresh(symbols *store.SymbolCache, analysts *store.AnalystStore, refresher *analyst.Refresher) *AnalystRefresh {
	return &AnalystRefresh{symbols: symbols, analysts: analysts, refresher: refresher}
}

func (j *AnalystRefresh) Name() string {
	return "analyst-refresh"
}

func (j *AnalystRefresh) Run(ctx context.Context) error {
	if err := j.symbols.Ensure(ctx); err != nil {
		return fmt.Errorf("symbol universe: %w", err)
	}

	log, err := j.analysts.LoadLog()
	if err != nil {
		return fmt.Errorf("load analyst log: %w", err)
	}

	if err := j.refresher.Refresh(ctx, log, j.symbols.Tickers(), analyst.RefreshOptions{}); err != nil {
		return fmt.Errorf("refresh analyst log: %w", err)
	}
	if err := j.analysts.SaveLog(log); err != nil {
		return fmt.Errorf("save analyst log: %w", err)
	}

	snapshot, err := j.analysts.LogSnapshot()
	if err != nil {
		return fmt.Errorf("snapshot analyst log: %w", err)
	}
	rating, err := analyst.GenerateRating(snapshot)
	if err != nil {
		// An empty log is normal on a fresh install
		logger.Warn(ctx, "Skipping rating generation", "error", err)
		return nil
	}
	if err := j.analysts.SaveRating(rating); err != nil {
		return fmt.Errorf("save analyst rating: %w", err)
	}

	logger.Info(ctx, "Analyst refresh completed",
		"tickerCount", log.Meta.TickerCount,
		"newRecords", log.Meta.NewRecords,
		"filledCells", log.Meta.FilledCells)
	return nil
}
