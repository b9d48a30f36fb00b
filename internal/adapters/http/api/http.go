// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/tubesense/internal/domain/pipeline"
	"github.com/okian/tubesense/internal/domain/types"
	"golang.org/x/time/rate"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit queues a run. Returns an error kind the API maps to a status.
	Submit(ctx context.Context, req pipeline.Request) (types.Run, error)

	RunStatus(ctx context.Context, id string) (types.Run, error)
	ChannelRuns(ctx context.Context, channelID string, limit int) ([]types.Run, error)
	ChannelSummary(ctx context.Context, channelID string) (types.ChannelSummary, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	runsHandler     *RunsHandler
	channelsHandler *ChannelsHandler
	limiter         *rate.Limiter
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRateLimit limits run and channel requests to rps with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		runsHandler:     NewRunsHandler(deps),
		channelsHandler: NewChannelsHandler(deps, maxRunsLimit),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	limited := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(RateLimitMiddleware(s.limiter, h), endpoint)
	}
	mux.HandleFunc("POST /runs", limited(s.runsHandler.HandlePostRun, "runs"))
	mux.HandleFunc("GET /runs/{id}", limited(s.runsHandler.HandleGetRun, "run"))
	mux.HandleFunc("GET /channels/{id}/runs", limited(s.channelsHandler.HandleGetRuns, "channel_runs"))
	mux.HandleFunc("GET /channels/{id}/summary", limited(s.channelsHandler.HandleGetSummary, "channel_summary"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
