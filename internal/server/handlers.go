package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/5ys-5y5/getEvents/internal/analyst"
	"github.com/5ys-5y5/getEvents/internal/dateutil"
	"github.com/5ys-5y5/getEvents/internal/logger"
	"github.com/5ys-5y5/getEvents/internal/store"
	"github.com/5ys-5y5/getEvents/internal/tracker"
	"github.com/5ys-5y5/getEvents/internal/valuation"
)

// Handler serves all API endpoints
type Handler struct {
	deps Deps
}

// RegisterRoutes attaches every endpoint to the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/getEvent", h.handleGetEvent)
	r.Get("/getEventLatest", h.handleGetEventLatest)
	r.Get("/getValuation", h.handleGetValuation)
	r.Get("/refreshAnalystLog", h.handleRefreshAnalystLog)
	r.Get("/generateRating", h.handleGenerateRating)
	r.Post("/priceTracker", h.handlePriceTracker)
	r.Get("/trackedPrice", h.handleTrackedPrice)
	r.Get("/modelSummary", h.handleModelSummary)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(context.Background(), "Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleGetEvent collects calendar events for a relative date range and
// caches the result. With format=ndjson it streams one JSON line per
// event behind a meta line.
func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	startDate, err1 := strconv.Atoi(r.URL.Query().Get("startDate"))
	endDate, err2 := strconv.Atoi(r.URL.Query().Get("endDate"))
	if err1 != nil || err2 != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_DATE_RANGE", "startDate and endDate must be natural numbers")
		return
	}
	if err := dateutil.ValidateDateRange(startDate, endDate); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_DATE_RANGE", err.Error())
		return
	}

	if !h.deps.Client.HasAPIKey() {
		h.writeError(w, http.StatusInternalServerError, "API_KEY_MISSING", "no upstream API key configured")
		return
	}

	if err := h.deps.Symbols.Ensure(ctx); err != nil || h.deps.Symbols.Count() == 0 {
		h.writeError(w, http.StatusServiceUnavailable, "SYMBOLS_UNAVAILABLE", "symbol universe could not be loaded")
		return
	}

	fromDate := dateutil.DaysFromToday(startDate)
	toDate := dateutil.DaysFromToday(endDate)

	collected, collectErrs := h.deps.Collector.Collect(ctx, fromDate, toDate, h.deps.Symbols.SymbolSet())

	meta := map[string]interface{}{
		"type": "meta",
		"request": map[string]interface{}{
			"startDate": startDate,
			"endDate":   endDate,
			"fromDate":  fromDate,
			"toDate":    toDate,
		},
		"response": map[string]interface{}{
			"eventCount": len(collected),
			"duration":   time.Since(start).Milliseconds(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		},
		"collectionErrorChecklist": map[string]interface{}{
			"status": errorsOrEmpty(collectErrs),
		},
	}

	payload := store.EventCachePayload{Meta: meta, Events: collected}
	if err := h.deps.EventCache.Save(payload); err != nil {
		logger.Warn(ctx, "Failed to cache event payload", "error", err)
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "ndjson") {
		h.streamNDJSON(w, meta, collected)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"meta":   meta,
		"events": collected,
	})
}

func (h *Handler) handleGetEventLatest(w http.ResponseWriter, r *http.Request) {
	payload, err := h.deps.EventCache.Load()
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, store.ErrCacheFileCorrupted) {
			status = http.StatusInternalServerError
		}
		h.writeError(w, status, err.Error(), "no cached event payload is available")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"meta":   payload.Meta,
		"events": payload.Events,
	})
}

// valuationEntry is the per-ticker block of a valuation response
type valuationEntry struct {
	Ticker           string                       `json:"ticker"`
	Price            interface{}                  `json:"price"`
	Quantitative     *valuation.MetricSet         `json:"quantitative"`
	PeerQuantitative *valuation.PeerResult        `json:"peerQuantitative"`
	Qualitative      *valuation.QualitativeResult `json:"qualitative"`
	Metadata         map[string]interface{}       `json:"metadata"`
}

// handleGetValuation computes price, quantitative, peer, and
// qualitative blocks per ticker. Tickers come from the query or from
// the cached event payload when cache=true.
func (h *Handler) handleGetValuation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cacheParam := r.URL.Query().Get("cache")

	var tickers []string
	switch cacheParam {
	case "true":
		cached, err := h.deps.EventCache.Tickers()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "EVENT_CACHE_REQUIRED", "cache=true needs a previous getEvent run")
			return
		}
		tickers = cached
	case "", "false":
		raw := strings.TrimSpace(r.URL.Query().Get("tickers"))
		if raw == "" {
			h.writeError(w, http.StatusBadRequest, "TICKERS_REQUIRED", "tickers parameter is required when cache is not used")
			return
		}
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, strings.ToUpper(t))
			}
		}
	default:
		h.writeError(w, http.StatusBadRequest, "INVALID_CACHE_PARAM", "cache must be 'true' or 'false'")
		return
	}

	var allErrs []valuation.SourceError
	valuations := make([]valuationEntry, 0, len(tickers))
	for _, ticker := range tickers {
		entry := h.valuateTicker(r, ticker, &allErrs)
		valuations = append(valuations, entry)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"meta": map[string]interface{}{
			"type": "valuation",
			"request": map[string]interface{}{
				"cache":       cacheParam,
				"tickers":     tickers,
				"tickerCount": len(tickers),
			},
			"response": map[string]interface{}{
				"valuationCount": len(valuations),
				"duration":       time.Since(start).Milliseconds(),
				"timestamp":      time.Now().UTC().Format(time.RFC3339),
			},
			"collectionErrorChecklist": map[string]interface{}{
				"status": errorsOrEmpty(allErrs),
			},
		},
		"valuations": valuations,
	})
}

// valuateTicker assembles one ticker's valuation block. A panic inside
// any stage degrades to a placeholder entry instead of failing the
// whole request.
func (h *Handler) valuateTicker(r *http.Request, ticker string, allErrs *[]valuation.SourceError) (entry valuationEntry) {
	ctx := r.Context()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "Valuation panicked", "ticker", ticker, "panic", rec)
			entry = valuationEntry{
				Ticker: ticker,
				Metadata: map[string]interface{}{
					"calculatedAt": time.Now().UTC().Format(time.RFC3339),
					"error":        "valuation failed",
				},
			}
		}
	}()

	price, priceErrs := h.deps.Prices.GetPrice(ctx, ticker)
	*allErrs = append(*allErrs, priceErrs...)

	quant := h.deps.Calculator.Calculate(ctx, ticker)
	*allErrs = append(*allErrs, quant.Errors...)

	qual := h.deps.Calculator.CalculateQualitative(ctx, ticker)
	*allErrs = append(*allErrs, qual.Errors...)

	peer, peerErrs := h.deps.Calculator.CalculatePeers(ctx, ticker)
	*allErrs = append(*allErrs, peerErrs...)

	entry = valuationEntry{
		Ticker:           ticker,
		Quantitative:     &quant.Metrics,
		PeerQuantitative: peer,
		Qualitative:      &qual,
		Metadata: map[string]interface{}{
			"calculatedAt": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if price != nil {
		entry.Price = price
	}
	return entry
}

// handleRefreshAnalystLog runs the requested refresh steps against the
// analyst log. Step flags: priceTarget (merge new records), frame
// (initialize horizon grids), quote (fill observed prices); none means
// all three. generateRating=true regenerates the rating afterwards.
func (h *Handler) handleRefreshAnalystLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var steps []int
	if q.Get("priceTarget") == "true" {
		steps = append(steps, 1)
	}
	if q.Get("frame") == "true" {
		steps = append(steps, 2)
	}
	if q.Get("quote") == "true" {
		steps = append(steps, 3)
	}

	var symbols []string
	if raw := strings.TrimSpace(q.Get("tickers")); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				symbols = append(symbols, strings.ToUpper(t))
			}
		}
	} else {
		if err := h.deps.Symbols.Ensure(ctx); err != nil {
			h.writeError(w, http.StatusServiceUnavailable, "SYMBOLS_UNAVAILABLE", "symbol universe could not be loaded")
			return
		}
		symbols = h.deps.Symbols.Tickers()
	}

	log, err := h.deps.AnalystStore.LoadLog()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "ANALYST_LOG_UNREADABLE", err.Error())
		return
	}

	opts := analyst.RefreshOptions{Steps: steps, TestMode: q.Get("test") == "true"}
	if err := h.deps.Refresher.Refresh(ctx, log, symbols, opts); err != nil {
		h.writeError(w, http.StatusInternalServerError, "REFRESH_FAILED", err.Error())
		return
	}
	if err := h.deps.AnalystStore.SaveLog(log); err != nil {
		h.writeError(w, http.StatusInternalServerError, "ANALYST_LOG_WRITE_FAILED", err.Error())
		return
	}

	response := map[string]interface{}{
		"success": true,
		"meta":    log.Meta,
	}

	if q.Get("generateRating") == "true" {
		rating, err := h.generateAndSaveRating()
		if err != nil {
			response["rating"] = map[string]interface{}{"success": false, "error": err.Error()}
		} else {
			response["rating"] = map[string]interface{}{"success": true, "meta": rating.Meta}
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// handleGenerateRating regenerates the analyst rating from the cached
// log. No network calls happen here.
func (h *Handler) handleGenerateRating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.generateAndSaveRating()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, analyst.ErrEmptyLog) {
			status = http.StatusNotFound
		}
		h.writeJSON(w, status, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"meta":    rating.Meta,
	})
}

func (h *Handler) generateAndSaveRating() (*analyst.Rating, error) {
	snapshot, err := h.deps.AnalystStore.LogSnapshot()
	if err != nil {
		return nil, err
	}
	rating, err := analyst.GenerateRating(snapshot)
	if err != nil {
		return nil, err
	}
	if err := h.deps.AnalystStore.SaveRating(rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// handlePriceTracker registers trades from a tab-delimited body, one
// trade per line: position, modelName, ticker, purchaseDate. The
// response is multi-status: each line succeeds or fails on its own.
func (h *Handler) handlePriceTracker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "BODY_UNREADABLE", err.Error())
		return
	}

	requests, parseErrs := tracker.ParseTradeLines(string(body))
	if len(requests) == 0 && len(parseErrs) == 0 {
		h.writeError(w, http.StatusBadRequest, "EMPTY_BODY", "no trade lines in request body")
		return
	}

	if err := h.deps.Symbols.Ensure(ctx); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "SYMBOLS_UNAVAILABLE", "symbol universe could not be loaded")
		return
	}

	type lineResult struct {
		Status string                   `json:"status"`
		Trade  *tracker.TradeRecord     `json:"trade,omitempty"`
		Error  *tracker.ValidationError `json:"error,omitempty"`
	}

	results := make([]lineResult, 0, len(requests)+len(parseErrs))
	var created []tracker.TradeRecord
	for _, perr := range parseErrs {
		results = append(results, lineResult{Status: "error", Error: perr})
	}
	for _, req := range requests {
		record, verr := h.deps.Tracker.CreateTrade(ctx, req)
		if verr != nil {
			results = append(results, lineResult{Status: "error", Error: verr})
			continue
		}
		created = append(created, *record)
		results = append(results, lineResult{Status: "created", Trade: record})
	}

	if len(created) > 0 {
		if err := h.deps.TradeStore.Append(created...); err != nil {
			h.writeError(w, http.StatusInternalServerError, "TRADE_STORE_WRITE_FAILED", err.Error())
			return
		}
	}

	h.writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
		"results":      results,
		"createdCount": len(created),
		"errorCount":   len(results) - len(created),
	})
}

func (h *Handler) handleTrackedPrice(w http.ResponseWriter, r *http.Request) {
	payload, err := h.deps.TradeStore.Load()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "TRADE_STORE_UNREADABLE", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleModelSummary(w http.ResponseWriter, r *http.Request) {
	modelName := r.URL.Query().Get("model")
	if modelName == "" {
		h.writeError(w, http.StatusBadRequest, "MODEL_REQUIRED", "model parameter is required")
		return
	}

	trades, err := h.deps.TradeStore.ByModel(modelName)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "TRADE_STORE_UNREADABLE", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, tracker.GenerateModelSummary(modelName, trades))
}

func errorsOrEmpty(errs []valuation.SourceError) []valuation.SourceError {
	if errs == nil {
		return []valuation.SourceError{}
	}
	return errs
}
