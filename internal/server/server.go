package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/5ys-5y5/getEvents/internal/analyst"
	"github.com/5ys-5y5/getEvents/internal/events"
	"github.com/5ys-5y5/getEvents/internal/fmp"
	"github.com/5ys-5y5/getEvents/internal/logger"
	"github.com/5ys-5y5/getEvents/internal/market"
	"github.com/5ys-5y5/getEvents/internal/store"
	"github.com/5ys-5y5/getEvents/internal/tracker"
	"github.com/5ys-5y5/getEvents/internal/valuation"
)

// Deps wires the services the HTTP layer exposes
type Deps struct {
	Config       *store.Config
	Client       *fmp.Client
	Symbols      *store.SymbolCache
	EventCache   *store.EventCache
	AnalystStore *store.AnalystStore
	TradeStore   *store.TradeStore
	Collector    *events.Collector
	Calculator   *valuation.Calculator
	Prices       *market.PriceService
	Refresher    *analyst.Refresher
	Tracker      *tracker.Service
}

// Server is the HTTP front of the service
type Server struct {
	httpServer *http.Server
	handler    *Handler
}

// New builds the router and server around the wired dependencies
func New(deps Deps) *Server {
	h := &Handler{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h.RegisterRoutes(r)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", deps.Config.Server.Port),
			Handler:      r,
			ReadTimeout:  time.Duration(deps.Config.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(deps.Config.Server.WriteTimeout) * time.Second,
		},
		handler: h,
	}
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	logger.Info(context.Background(), "HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
