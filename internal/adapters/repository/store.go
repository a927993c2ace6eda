// Package repository reads the raw employee records the scoring engine consumes.
package repository

import (
	"context"

	"github.com/okian/perfscore/internal/domain/model"
)

// Source provides read-only access to raw employee records.
type Source interface {
	// Inputs assembles the identity, raw counts and warnings for one request.
	// Returns ErrNotFound if the employee is unknown and ErrInvalidWindow if
	// the request window is empty.
	Inputs(ctx context.Context, req model.Request) (model.EmployeeInputs, error)

	// Employees lists employees ordered by ID. An empty locationID lists all.
	Employees(ctx context.Context, locationID string) ([]model.Employee, error)

	// Count returns the number of known employees.
	Count(ctx context.Context) int
}
