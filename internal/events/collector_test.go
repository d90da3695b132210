package events

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

type fakeRawSource struct {
	rows map[string][]map[string]interface{}
	errs map[string]error
}

func (f *fakeRawSource) GetRaw(_ context.Context, path string, _ url.Values) ([]map[string]interface{}, error) {
	if err := f.errs[path]; err != nil {
		return nil, err
	}
	return f.rows[path], nil
}

func testConfigs() []SourceConfig {
	return []SourceConfig{
		{Name: "earnings", Path: "/stable/earnings-calendar", FieldMap: map[string]string{"ticker": "symbol", "date": "date"}},
		{Name: "dividends", Path: "/stable/dividends-calendar", FieldMap: map[string]string{"ticker": "symbol", "date": "date"}},
	}
}

func TestCollectMergesSources(t *testing.T) {
	source := &fakeRawSource{
		rows: map[string][]map[string]interface{}{
			"/stable/earnings-calendar": {
				{"symbol": "ACME", "date": "2025-06-10"},
				{"symbol": "ACME", "date": "2025-06-10"}, // duplicate row
			},
			"/stable/dividends-calendar": {
				{"symbol": "BOLT", "date": "2025-06-11"},
			},
		},
	}
	c := NewCollector(source, testConfigs())

	got, errs := c.Collect(context.Background(), "2025-06-10", "2025-06-17", nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events after dedupe, got %d", len(got))
	}
}

func TestCollectSourceFailureIsPartial(t *testing.T) {
	source := &fakeRawSource{
		rows: map[string][]map[string]interface{}{
			"/stable/dividends-calendar": {{"symbol": "BOLT", "date": "2025-06-11"}},
		},
		errs: map[string]error{
			"/stable/earnings-calendar": errors.New("upstream 500"),
		},
	}
	c := NewCollector(source, testConfigs())

	got, errs := c.Collect(context.Background(), "2025-06-10", "2025-06-17", nil)
	if len(got) != 1 {
		t.Fatalf("expected surviving source's event, got %d", len(got))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].ServiceID != "earnings" {
		t.Errorf("expected error attributed to earnings, got %s", errs[0].ServiceID)
	}
}

func TestCollectFiltersBySymbols(t *testing.T) {
	source := &fakeRawSource{
		rows: map[string][]map[string]interface{}{
			"/stable/earnings-calendar": {
				{"symbol": "ACME", "date": "2025-06-10"},
				{"symbol": "GHOST", "date": "2025-06-10"},
			},
		},
	}
	c := NewCollector(source, testConfigs()[:1])

	got, _ := c.Collect(context.Background(), "2025-06-10", "2025-06-17", map[string]bool{"ACME": true})
	if len(got) != 1 || got[0].Ticker() != "ACME" {
		t.Fatalf("expected only ACME, got %v", got)
	}
}
