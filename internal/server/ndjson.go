package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/5ys-5y5/getEvents/internal/events"
	"github.com/5ys-5y5/getEvents/internal/logger"
)

// streamNDJSON writes the meta record followed by one event per line.
// Each line is a complete JSON document.
func (h *Handler) streamNDJSON(w http.ResponseWriter, meta map[string]interface{}, collected []events.Event) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	if err := enc.Encode(meta); err != nil {
		logger.Error(context.Background(), "Failed to stream meta line", "error", err)
		return
	}

	flusher, _ := w.(http.Flusher)
	for _, ev := range collected {
		if err := enc.Encode(ev); err != nil {
			logger.Error(context.Background(), "Failed to stream event line", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
