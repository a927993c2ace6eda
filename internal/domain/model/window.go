// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form accepted next to RFC3339.
const DateLayout = "2006-01-02"

// ErrInvalidTime reports input that is neither RFC3339 nor a calendar date.
var ErrInvalidTime = errors.New("invalid time; use RFC3339 or YYYY-MM-DD")

// ParseTime accepts RFC3339 or a calendar date at midnight in loc. Blank
// input yields the zero time.
func ParseTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return t, nil
}

// Window is a half-open reporting interval [Start, End).
type Window struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.End.After(w.Start)
}

// Request identifies one scoring computation: an employee, a window, an
// optional location filter and the explicit reference date used for ageing.
// Zone sets calendar-day boundaries; nil means UTC.
type Request struct {
	EmployeeID    string
	Window        Window
	LocationID    string
	ReferenceDate time.Time
	Zone          *time.Location
}
