// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SchemaDependencies
	PublishDependencies
	LeaderboardDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	schemaHandler      *SchemaHandler
	publishHandler     *PublishHandler
	leaderboardHandler *LeaderboardHandler

	limiter *RateLimiter
	logger  logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRateLimiter limits POST /api/publish per client.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithLogger sets the logger used for request logs.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		schemaHandler:      NewSchemaHandler(deps),
		publishHandler:     NewPublishHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		logger:             logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	publish := s.publishHandler.HandlePublish
	if s.limiter != nil {
		publish = s.limiter.Middleware(publish)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/schema", s.wrap(s.schemaHandler.HandleGetSchema, "schema"))
	mux.HandleFunc("/api/publish", s.wrap(publish, "publish"))
	mux.HandleFunc("/api/data", s.wrap(s.leaderboardHandler.HandleGetData, "data"))
}

func (s *Server) wrap(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return RequestIDMiddleware(MetricsMiddleware(LoggingMiddleware(next, s.logger), endpoint))
}

// Shared response shapes.
type (
	schemaResponse struct {
		SchemaID string `json:"schemaId"`
	}
	publishResponse struct {
		Success bool   `json:"success"`
		TxHash  string `json:"txHash"`
	}
	errorResponse struct {
		Error string `json:"error"`
	}
)

// SchemaDependencies exposes the schema id records are published under.
type SchemaDependencies interface {
	SchemaID() common.Hash
}

// PublishDependencies stores one record and returns the tx hash.
type PublishDependencies interface {
	Publish(ctx context.Context, r model.Record) (string, error)
}

// LeaderboardDependencies builds the current leaderboard.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context) (model.Board, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
