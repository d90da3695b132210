package store

import (
	"errors"
	"os"

	"github.com/5ys-5y5/getEvents/internal/events"
)

const eventCacheFile = "getEventCache.json"

// Event cache failure codes surfaced to API callers
var (
	ErrEventCacheNotAvailable = errors.New("GET_EVENT_CACHE_NOT_AVAILABLE")
	ErrCacheFileCorrupted     = errors.New("CACHE_FILE_CORRUPTED")
)

// EventCachePayload is the persisted result of the last event collection
type EventCachePayload struct {
	Meta   map[string]interface{} `json:"meta"`
	Events []events.Event         `json:"events"`
}

// EventCache persists the most recent event collection run
type EventCache struct {
	files *FileStore
}

// NewEventCache creates an event cache on the file store
func NewEventCache(files *FileStore) *EventCache {
	return &EventCache{files: files}
}

// Save persists an event payload
func (c *EventCache) Save(payload EventCachePayload) error {
	return c.files.SaveJSON(eventCacheFile, payload)
}

// Load reads the cached event payload. Missing and corrupted files are
// distinguished so callers can report the right failure.
func (c *EventCache) Load() (*EventCachePayload, error) {
	var payload EventCachePayload
	if err := c.files.LoadJSON(eventCacheFile, &payload); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrEventCacheNotAvailable
		}
		return nil, ErrCacheFileCorrupted
	}
	return &payload, nil
}

// Exists reports whether a cached payload is present
func (c *EventCache) Exists() bool {
	return c.files.Exists(eventCacheFile)
}

// Tickers returns the unique tickers of the cached events, in first-seen order
func (c *EventCache) Tickers() ([]string, error) {
	payload, err := c.Load()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range payload.Events {
		ticker := e.Ticker()
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		out = append(out, ticker)
	}
	return out, nil
}
