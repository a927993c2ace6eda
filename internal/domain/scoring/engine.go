package scoring

import (
	"time"

	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/internal/domain/penalty"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLocation sets the time zone used for warning ageing and month buckets.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// Engine produces EmployeePerformanceScore records. It is stateless and safe
// for concurrent use.
type Engine struct {
	loc       *time.Location
	penalties *penalty.Calculator
}

// NewEngine creates a scoring engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{loc: time.UTC}
	for _, opt := range opts {
		opt(e)
	}
	e.penalties = penalty.NewCalculator(penalty.WithLocation(e.loc))
	return e
}

// Score computes the full performance record for one employee. The
// reference date drives warning ageing and must be supplied by the caller.
func (e *Engine) Score(in model.EmployeeInputs, referenceDate time.Time) model.EmployeePerformanceScore {
	warnings := e.penalties.Calculate(in.Identity.EmployeeID, in.Warnings, referenceDate)
	components := Components(in.Raw)
	return Aggregate(in.Identity, in.Raw, components, warnings)
}

// Aggregate combines component scores and the warning penalty.
func Aggregate(id model.Identity, raw model.RawPerformanceInputs, components model.ComponentScores, warnings model.EmployeeWarningPenalty) model.EmployeePerformanceScore {
	base := BaseScore(components)
	return model.EmployeePerformanceScore{
		Identity:        id,
		ComponentScores: components,
		BaseScore:       base,
		WarningPenalty:  warnings,
		OverallScore:    OverallScore(base, warnings.TotalPenalty),
		Raw:             raw,
	}
}
