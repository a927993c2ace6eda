package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/perfscore/internal/app"
	"github.com/okian/perfscore/internal/domain/model"
)

// EmployeeDependencies defines the interface for single-employee operations.
type EmployeeDependencies interface {
	EmployeeScore(ctx context.Context, employeeID string, q service.Query) (model.EmployeePerformanceScore, Entry, error)
	Cancel(employeeID string) bool
}

// EmployeeHandler handles per-employee requests.
type EmployeeHandler struct {
	deps   EmployeeDependencies
	parser queryParser
}

// NewEmployeeHandler creates a new employee handler.
func NewEmployeeHandler(deps EmployeeDependencies, parser queryParser) *EmployeeHandler {
	return &EmployeeHandler{deps: deps, parser: parser}
}

type employeeScoreResponse struct {
	Rank  int                            `json:"rank"`
	Score model.EmployeePerformanceScore `json:"score"`
}

type cancelResponse struct {
	EmployeeID string `json:"employee_id"`
	Cancelled  bool   `json:"cancelled"`
}

// HandleGetScore handles GET /employees/{id}/score?from&to&ref.
func (h *EmployeeHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_employee_score"

	id := chi.URLParam(r, "id")
	q, err := h.parser.fromRequest(r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	score, entry, err := h.deps.EmployeeScore(r.Context(), id, q)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, employeeScoreResponse{Rank: entry.Rank, Score: score})
}

// HandleCancel handles DELETE /employees/{id}/score, aborting in-flight scoring.
func (h *EmployeeHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, cancelResponse{EmployeeID: id, Cancelled: h.deps.Cancel(id)})
}
