// Package penalty turns a disciplinary warning log into a capped, decayed,
// escalation-aware penalty.
package penalty

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/perfscore/internal/domain/types"
)

// Fixed penalty policy.
const (
	RetentionDays    = 90
	RepeatWindowDays = 60
	MonthlyCap       = 10
	monthKeyLayout   = "2006-01"
	secondsPerDay    = 24 * 60 * 60
)

var (
	decayFull   = decimal.NewFromInt(1)
	decayMid    = decimal.RequireFromString("0.6")
	decayLow    = decimal.RequireFromString("0.3")
	repeatFirst = decimal.NewFromInt(1)
	repeatOnce  = decimal.RequireFromString("1.5")
	repeatMax   = decimal.NewFromInt(2)
	monthlyCap  = decimal.NewFromInt(MonthlyCap)
)

// dayNumber maps t to its calendar day in loc, counted from the Unix epoch.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// AgeDays returns the number of calendar days from event to ref in loc.
// A negative value means the event lies after the reference date.
func AgeDays(ref, event time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return int(dayNumber(ref, loc) - dayNumber(event, loc))
}

// DecayFactor maps a warning age to its weight: full for the first 30 days,
// then 0.6, 0.3, and 0 past the retention horizon. Negative ages decay to 0.
func DecayFactor(ageDays int) decimal.Decimal {
	switch {
	case ageDays < 0:
		return decimal.Zero
	case ageDays <= 30:
		return decayFull
	case ageDays <= 60:
		return decayMid
	case ageDays <= RetentionDays:
		return decayLow
	default:
		return decimal.Zero
	}
}

// WithinRepeatWindow reports whether prior happened on the same day as this
// or up to RepeatWindowDays days before it.
func WithinRepeatWindow(prior, this time.Time, loc *time.Location) bool {
	diff := AgeDays(this, prior, loc)
	return diff >= 0 && diff <= RepeatWindowDays
}

// RepeatMultiplier escalates repeated offenses and saturates at 2.0.
func RepeatMultiplier(repeatIndex int) decimal.Decimal {
	switch {
	case repeatIndex <= 0:
		return repeatFirst
	case repeatIndex == 1:
		return repeatOnce
	default:
		return repeatMax
	}
}

// BasePoints returns the point value of a severity. Unknown values score as
// minor.
func BasePoints(sev types.Severity) decimal.Decimal {
	switch types.ParseSeverity(string(sev)) {
	case types.SeverityCritical:
		return decimal.NewFromInt(10)
	case types.SeverityMajor:
		return decimal.NewFromInt(5)
	default:
		return decimal.NewFromInt(2)
	}
}

// MonthKey buckets t by calendar month (YYYY-MM) in loc.
func MonthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(monthKeyLayout)
}

// capMonth applies the monthly ceiling.
func capMonth(raw decimal.Decimal) decimal.Decimal {
	return decimal.Min(raw, monthlyCap)
}
