// Package api exposes a read-only live-status HTTP surface over a running
// engine: current status, portfolio snapshot, and every tracked order
// (open and terminal), grounded
// on the teacher's internal/server chi.Router + CORS setup and its
// {"data": ..., "metadata": {"timestamp": ...}} response envelope
// convention (internal/modules/market_hours/handlers).
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// StatusProvider supplies the data this API serves; internal/engine
// implements it against the live run state.
type StatusProvider interface {
	Status() StatusSnapshot
	Portfolio() PortfolioSnapshot
	Orders() []OrderSnapshot
}

// StatusSnapshot summarizes the run's current clock/mode.
type StatusSnapshot struct {
	Mode        string    `json:"mode"`
	CurrentTime time.Time `json:"currentTime"`
	InWarmup    bool      `json:"inWarmup"`
}

// PortfolioSnapshot summarizes account-level portfolio state.
type PortfolioSnapshot struct {
	TotalPortfolioValue float64            `json:"totalPortfolioValue"`
	CashByCurrency      map[string]float64 `json:"cashByCurrency"`
	MarginRemaining     float64            `json:"marginRemaining"`
	Positions           []PositionSnapshot `json:"positions"`
}

// PositionSnapshot is one held security.
type PositionSnapshot struct {
	Symbol      string  `json:"symbol"`
	HoldingsQty float64 `json:"holdingsQty"`
	AvgPrice    float64 `json:"avgPrice"`
	LastPrice   float64 `json:"lastPrice"`
	RealizedPnL float64 `json:"realizedPnL"`
}

// OrderSnapshot is one tracked order.
type OrderSnapshot struct {
	ID             int64   `json:"id"`
	Symbol         string  `json:"symbol"`
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	Quantity       float64 `json:"quantity"`
	FilledQuantity float64 `json:"filledQuantity"`
	AvgFillPrice   float64 `json:"avgFillPrice"`
}

// Server is the read-only status HTTP server.
type Server struct {
	router   *chi.Mux
	http     *http.Server
	log      zerolog.Logger
	provider StatusProvider
}

// New builds a Server bound to addr (host:port), serving data from
// provider.
func New(addr string, provider StatusProvider, log zerolog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      log.With().Str("component", "api").Logger(),
		provider: provider,
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(15 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/portfolio", s.handlePortfolio)
	s.router.Get("/orders", s.handleOrders)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) respond(w http.ResponseWriter, data interface{}) {
	envelope := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respond(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.provider.Status())
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.provider.Portfolio())
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.provider.Orders())
}

// ListenAndServe starts the server, blocking until it errors or is
// shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("starting status API")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
