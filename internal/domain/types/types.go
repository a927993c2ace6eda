// Package types contains common types used across the application
package types

import "strings"

// Severity is the disciplinary weight class of a warning.
type Severity string

// Known severities.
const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes a raw severity. Unknown or empty values are
// treated as minor.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMajor:
		return SeverityMajor
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityMinor
	}
}

// Category groups warnings so repeated offenses in the same area escalate.
type Category string

// Known categories.
const (
	CategoryAttendance    Category = "attendance"
	CategoryPunctuality   Category = "punctuality"
	CategoryTasks         Category = "tasks"
	CategoryHygieneSafety Category = "hygiene_safety"
	CategoryCustomer      Category = "customer"
	CategoryCashInventory Category = "cash_inventory"
	CategoryPolicy        Category = "policy"
	CategoryOther         Category = "other"
)

var knownCategories = map[Category]struct{}{
	CategoryAttendance:    {},
	CategoryPunctuality:   {},
	CategoryTasks:         {},
	CategoryHygieneSafety: {},
	CategoryCustomer:      {},
	CategoryCashInventory: {},
	CategoryPolicy:        {},
	CategoryOther:         {},
}

// ParseCategory normalizes a raw category. Missing or unknown values are
// bucketed as other.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownCategories[c]; ok {
		return c
	}
	return CategoryOther
}

// Entry represents a leaderboard entry
type Entry struct {
	Rank       int     `json:"rank"`
	EmployeeID string  `json:"employee_id"`
	Name       string  `json:"name"`
	LocationID string  `json:"location_id,omitempty"`
	Score      float64 `json:"score"`
}
