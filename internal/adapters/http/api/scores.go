package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/perfscore/internal/adapters/repository"
	service "github.com/okian/perfscore/internal/app"
	"github.com/okian/perfscore/internal/domain/leaderboard"
	"github.com/okian/perfscore/internal/domain/model"
)

const defaultTopN = 10

// ScoresDependencies defines the interface for cohort scoring.
type ScoresDependencies interface {
	Score(ctx context.Context, q service.Query) (service.Cohort, error)
	ScoreDataset(ctx context.Context, ds repository.Dataset, q service.Query) (service.Cohort, error)
}

// ScoresHandler handles cohort scoring requests.
type ScoresHandler struct {
	deps   ScoresDependencies
	parser queryParser
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies, parser queryParser) *ScoresHandler {
	return &ScoresHandler{deps: deps, parser: parser}
}

// scoresRequest is the body of POST /scores. Without a dataset the
// configured source is scored.
type scoresRequest struct {
	ReferenceDate string `json:"reference_date"`
	Window        struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"window"`
	LocationID  string              `json:"location_id"`
	EmployeeIDs []string            `json:"employee_ids"`
	TopN        *int                `json:"top_n"`
	Dataset     *repository.Dataset `json:"dataset"`
}

type scoresResponse struct {
	ReferenceDate time.Time                            `json:"reference_date"`
	Window        model.Window                         `json:"window"`
	Scores        []model.EmployeePerformanceScore     `json:"scores"`
	Top           []Entry                              `json:"top"`
	Locations     map[string]leaderboard.LocationGroup `json:"locations"`
	Failures      []service.Failure                    `json:"failures"`
}

// HandlePostScores handles POST /scores.
func (h *ScoresHandler) HandlePostScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_scores"

	var req scoresRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeFailure(w, op, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	q, err := h.parser.query(req.Window.Start, req.Window.End, req.ReferenceDate, req.LocationID)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	q.EmployeeIDs = req.EmployeeIDs

	topN := defaultTopN
	if req.TopN != nil {
		topN = *req.TopN
	}
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeFailure(w, op, fmt.Errorf("%w: top_n must be an integer", ErrBadRequest))
			return
		}
		topN = v
	}

	var cohort service.Cohort
	if req.Dataset != nil {
		cohort, err = h.deps.ScoreDataset(r.Context(), *req.Dataset, q)
	} else {
		cohort, err = h.deps.Score(r.Context(), q)
	}
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	failures := cohort.Failures
	if failures == nil {
		failures = []service.Failure{}
	}
	writeJSON(w, http.StatusOK, scoresResponse{
		ReferenceDate: cohort.ReferenceDate,
		Window:        cohort.Window,
		Scores:        cohort.Board.All(),
		Top:           cohort.Board.TopEntries(topN),
		Locations:     cohort.Board.ByLocation(),
		Failures:      failures,
	})
}
