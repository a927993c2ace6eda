package penalty

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/perfscore/internal/domain/dedupe"
	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/internal/domain/types"
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithLocation sets the time zone used for calendar-day ageing and month
// bucketing.
func WithLocation(loc *time.Location) Option {
	return func(c *Calculator) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// Calculator computes EmployeeWarningPenalty values. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	loc *time.Location
}

// NewCalculator creates a Calculator that buckets in UTC unless configured
// otherwise.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{loc: time.UTC}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate computes the penalty for warnings relative to referenceDate.
// Warnings older than RetentionDays are ignored. Warnings sharing an
// ID are counted once.
func (c *Calculator) Calculate(employeeID string, warnings []model.Warning, referenceDate time.Time) model.EmployeeWarningPenalty {
	out := model.EmployeeWarningPenalty{
		EmployeeID:       employeeID,
		Contributions:    []model.WarningContribution{},
		MonthlyPenalties: map[string]model.MonthlyPenalty{},
	}

	sorted := sortedUnique(warnings)
	if len(sorted) == 0 {
		return out
	}

	priorsByCategory := make(map[types.Category][]time.Time)
	rawByMonth := make(map[string]decimal.Decimal)

	for _, w := range sorted {
		category := types.ParseCategory(string(w.Category))
		priors := priorsByCategory[category]
		repeatIndex := 0
		for _, p := range priors {
			if WithinRepeatWindow(p, w.EventDate, c.loc) {
				repeatIndex++
			}
		}
		priorsByCategory[category] = append(priors, w.EventDate)

		age := AgeDays(referenceDate, w.EventDate, c.loc)
		if age > RetentionDays {
			continue
		}

		base := BasePoints(w.Severity)
		multiplier := RepeatMultiplier(repeatIndex)
		decay := DecayFactor(age)
		effective := base.Mul(multiplier).Mul(decay)
		month := MonthKey(w.EventDate, c.loc)

		rawByMonth[month] = rawByMonth[month].Add(effective)
		out.Contributions = append(out.Contributions, model.WarningContribution{
			WarningID:        w.ID,
			EventDate:        w.EventDate,
			Severity:         types.ParseSeverity(string(w.Severity)),
			Category:         category,
			AgeDays:          age,
			BasePoints:       base.InexactFloat64(),
			RepeatIndex:      repeatIndex,
			RepeatMultiplier: multiplier.InexactFloat64(),
			DecayFactor:      decay.InexactFloat64(),
			EffectivePoints:  effective.InexactFloat64(),
			MonthKey:         month,
		})
	}

	total := decimal.Zero
	for month, raw := range rawByMonth {
		capped := capMonth(raw)
		total = total.Add(capped)
		out.MonthlyPenalties[month] = model.MonthlyPenalty{
			Raw:    raw.InexactFloat64(),
			Capped: capped.InexactFloat64(),
		}
	}
	out.TotalPenalty = total.InexactFloat64()
	out.WarningCount = len(out.Contributions)
	return out
}

// sortedUnique returns a deduplicated copy of warnings sorted by event date.
// Ties keep ID order so repeated calls produce identical output.
func sortedUnique(warnings []model.Warning) []model.Warning {
	out := dedupe.Unique(warnings, func(w model.Warning) string { return w.ID })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
