// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/perfscore/internal/adapters/repository"
	service "github.com/okian/perfscore/internal/app"
	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/internal/domain/types"
)

const (
	defaultMaxLimit = 100
	maxBodyBytes    = 32 << 20
)

// Error codes carried in JSON error bodies.
const (
	codeBadRequest    = "bad_request"
	codeLimitExceeded = "limit_exceeded"
	codeNotFound      = "not_found"
	codeUnavailable   = "unavailable"
	codeTimeout       = "timeout"
	codeInternal      = "internal_error"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Score(ctx context.Context, q service.Query) (service.Cohort, error)
	ScoreDataset(ctx context.Context, ds repository.Dataset, q service.Query) (service.Cohort, error)
	Leaderboard(ctx context.Context, q service.Query, limit int) ([]Entry, error)
	EmployeeScore(ctx context.Context, employeeID string, q service.Query) (model.EmployeePerformanceScore, Entry, error)
	Cancel(employeeID string) bool
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLimit caps GET /leaderboard?limit.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithAllowedOrigins sets the CORS allow-list.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithLocation sets the zone used to read date-only query parameters.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxLimit int
	origins  []string
	loc      *time.Location

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	leaderboardHandler *LeaderboardHandler
	employeeHandler    *EmployeeHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxLimit: defaultMaxLimit,
		origins:  []string{"*"},
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}

	parser := queryParser{loc: s.loc}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.scoresHandler = NewScoresHandler(deps, parser)
	s.leaderboardHandler = NewLeaderboardHandler(deps, parser, s.maxLimit)
	s.employeeHandler = NewEmployeeHandler(deps, parser)
	return s
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Post("/scores", MetricsMiddleware(s.scoresHandler.HandlePostScores, "scores"))
	r.Get("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	r.Route("/employees/{id}", func(r chi.Router) {
		r.Get("/score", MetricsMiddleware(s.employeeHandler.HandleGetScore, "employee_score"))
		r.Delete("/score", MetricsMiddleware(s.employeeHandler.HandleCancel, "employee_cancel"))
	})

	return r
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

// writeFailure translates upstream errors to status codes.
func writeFailure(w http.ResponseWriter, op string, err error) {
	err = fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, ErrLimitExceeded):
		writeError(w, http.StatusBadRequest, codeLimitExceeded, err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, repository.ErrInvalidWindow),
		errors.Is(err, repository.ErrInvalidDataset):
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, codeTimeout, err)
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, err)
	}
}

// queryParser reads the shared from/to/ref/location parameters.
type queryParser struct {
	loc *time.Location
}

func (p queryParser) parseTime(raw string) (time.Time, error) {
	return model.ParseTime(raw, p.loc)
}

func (p queryParser) query(from, to, ref, location string) (service.Query, error) {
	var q service.Query
	var err error
	if q.Window.Start, err = p.parseTime(from); err != nil {
		return q, err
	}
	if q.Window.End, err = p.parseTime(to); err != nil {
		return q, err
	}
	if q.ReferenceDate, err = p.parseTime(ref); err != nil {
		return q, err
	}
	if q.Window.Start.IsZero() != q.Window.End.IsZero() {
		return q, fmt.Errorf("%w: from and to must be given together", ErrBadRequest)
	}
	q.LocationID = strings.TrimSpace(location)
	return q, nil
}

func (p queryParser) fromRequest(r *http.Request) (service.Query, error) {
	v := r.URL.Query()
	return p.query(v.Get("from"), v.Get("to"), v.Get("ref"), v.Get("location"))
}
