package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SeriesReader is the read side of the series store.
type SeriesReader interface {
	Get(key string) (domain.Series, error)
	Keys() []string
}

// Server exposes health, readiness, metrics, and the dashboard read API.
type Server struct {
	httpServer *http.Server
	series     SeriesReader
	opts       domain.ViewOptions
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes. Views are built with opts unless a request overrides them.
func NewServer(addr string, ready sharedobs.ReadinessChecker, series SeriesReader, opts domain.ViewOptions, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		series:  series,
		opts:    opts,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.handleAPI(mux, "GET /api/v1/series", s.handleListSeries)
	s.handleAPI(mux, "GET /api/v1/series/{key}/ranking", s.handleRanking)
	s.handleAPI(mux, "GET /api/v1/series/{key}/table", s.handleTable)
	s.handleAPI(mux, "GET /api/v1/series/{key}/points", s.handlePoints)
	s.handleAPI(mux, "GET /api/v1/format", s.handleFormat)

	return s
}

// WithClock replaces the clock used to stamp views built on request.
func (s *Server) WithClock(c clockwork.Clock) *Server {
	s.clock = c
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleAPI registers h under pattern and counts responses by route and code.
func (s *Server) handleAPI(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.APIRequests.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
