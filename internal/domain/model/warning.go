package model

import (
	"time"

	"github.com/okian/perfscore/internal/domain/types"
)

// Warning is a disciplinary log entry. It is owned by an external workflow
// and treated as read-only.
type Warning struct {
	ID         string         `json:"id" yaml:"id"`
	EmployeeID string         `json:"employee_id" yaml:"employee_id"`
	EventDate  time.Time      `json:"event_date" yaml:"event_date"`
	Severity   types.Severity `json:"severity" yaml:"severity"`
	Category   types.Category `json:"category" yaml:"category"`
	Notes      string         `json:"notes,omitempty" yaml:"notes,omitempty"`
	Evidence   string         `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// WarningContribution is the per-warning breakdown of a penalty computation.
type WarningContribution struct {
	WarningID        string         `json:"warning_id"`
	EventDate        time.Time      `json:"event_date"`
	Severity         types.Severity `json:"severity"`
	Category         types.Category `json:"category"`
	AgeDays          int            `json:"age_days"`
	BasePoints       float64        `json:"base_points"`
	RepeatIndex      int            `json:"repeat_index"`
	RepeatMultiplier float64        `json:"repeat_multiplier"`
	DecayFactor      float64        `json:"decay_factor"`
	EffectivePoints  float64        `json:"effective_points"`
	MonthKey         string         `json:"month_key"`
}

// MonthlyPenalty holds the raw and capped penalty of one calendar month.
type MonthlyPenalty struct {
	Raw    float64 `json:"raw"`
	Capped float64 `json:"capped"`
}

// EmployeeWarningPenalty aggregates an employee's warning contributions.
type EmployeeWarningPenalty struct {
	EmployeeID       string                    `json:"employee_id"`
	TotalPenalty     float64                   `json:"total_penalty"`
	WarningCount     int                       `json:"warning_count"`
	Contributions    []WarningContribution     `json:"contributions"`
	MonthlyPenalties map[string]MonthlyPenalty `json:"monthly_penalties"`
}
