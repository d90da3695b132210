package events

import (
	"fmt"
)

// Event is one normalized calendar event. Remote payload fields are
// renamed through a configured field map, so the shape is open-ended
// beyond the identity fields.
type Event map[string]interface{}

// Ticker returns the event's ticker, empty when absent
func (e Event) Ticker() string {
	return stringField(e, "ticker")
}

// Date returns the event's date, empty when absent
func (e Event) Date() string {
	return stringField(e, "date")
}

// Source returns the upstream source name the event came from
func (e Event) Source() string {
	return stringField(e, "source")
}

func stringField(e Event, key string) string {
	if v, ok := e[key].(string); ok {
		return v
	}
	return ""
}

// Normalize renames raw payload fields through the field map
// (localKey <- remoteKey) and stamps the source name. Fields the map
// does not mention are dropped.
func Normalize(rows []map[string]interface{}, fieldMap map[string]string, source string) []Event {
	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		event := make(Event, len(fieldMap)+1)
		for localKey, remoteKey := range fieldMap {
			if v, ok := row[remoteKey]; ok {
				event[localKey] = v
			}
		}
		event["source"] = source
		out = append(out, event)
	}
	return out
}

// Deduplicate drops events sharing ticker, date, and source, keeping
// the first occurrence
func Deduplicate(events []Event) []Event {
	seen := make(map[string]bool, len(events))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		key := fmt.Sprintf("%s|%s|%s", e.Ticker(), e.Date(), e.Source())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// FilterBySymbols keeps only events whose ticker is in the universe
func FilterBySymbols(events []Event, symbols map[string]bool) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if symbols[e.Ticker()] {
			out = append(out, e)
		}
	}
	return out
}
