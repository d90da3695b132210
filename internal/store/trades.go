package store

import (
	"fmt"
	"os"
	"time"

	"github.com/5ys-5y5/getEvents/internal/tracker"
)

const trackedTradesFile = "trackedTrades.json"

// TradesPayload is the persisted tracked-trade collection
type TradesPayload struct {
	Meta struct {
		LastUpdated string `json:"lastUpdated"`
		TradeCount  int    `json:"tradeCount"`
	} `json:"meta"`
	Trades []tracker.TradeRecord `json:"trades"`
}

// TradeStore persists registered trades
type TradeStore struct {
	files *FileStore
}

// NewTradeStore creates a trade store on the file store
func NewTradeStore(files *FileStore) *TradeStore {
	return &TradeStore{files: files}
}

// Load reads all tracked trades, empty when none exist yet
func (s *TradeStore) Load() (*TradesPayload, error) {
	var payload TradesPayload
	if err := s.files.LoadJSON(trackedTradesFile, &payload); err != nil {
		if os.IsNotExist(err) {
			return &TradesPayload{Trades: []tracker.TradeRecord{}}, nil
		}
		return nil, fmt.Errorf("tracked trades: %w", err)
	}
	if payload.Trades == nil {
		payload.Trades = []tracker.TradeRecord{}
	}
	return &payload, nil
}

// Append adds trades and persists the collection, backing up the
// previous file first
func (s *TradeStore) Append(records ...tracker.TradeRecord) error {
	payload, err := s.Load()
	if err != nil {
		return err
	}
	if s.files.Exists(trackedTradesFile) {
		if _, err := s.files.CopyBackup(trackedTradesFile); err != nil {
			return fmt.Errorf("backup tracked trades: %w", err)
		}
	}
	payload.Trades = append(payload.Trades, records...)
	payload.Meta.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	payload.Meta.TradeCount = len(payload.Trades)
	return s.files.SaveJSON(trackedTradesFile, payload)
}

// ByModel returns the trades registered under one model identifier
func (s *TradeStore) ByModel(modelName string) ([]tracker.TradeRecord, error) {
	payload, err := s.Load()
	if err != nil {
		return nil, err
	}
	var out []tracker.TradeRecord
	for _, trade := range payload.Trades {
		if trade.ModelName == modelName {
			out = append(out, trade)
		}
	}
	return out, nil
}
