package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/perfscore/internal/app"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, q service.Query, limit int) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	parser   queryParser
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, parser queryParser, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		parser:   parser,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N&from&to&ref&location.
// limit defaults to the configured maximum.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"

	n := h.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeFailure(w, op, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeFailure(w, op, fmt.Errorf("%w: limit %d exceeds %d", ErrLimitExceeded, v, h.maxLimit))
			return
		}
		n = v
	}

	q, err := h.parser.fromRequest(r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	entries, err := h.deps.Leaderboard(r.Context(), q, n)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
