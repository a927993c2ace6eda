package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/perfscore/internal/domain/assembly"
	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/pkg/metrics"
)

// employeeRecords are the rows belonging to one employee.
type employeeRecords struct {
	employee    model.Employee
	shifts      []model.Shift
	attendance  []model.AttendanceLog
	tasks       []model.Task
	completions []model.TaskCompletion
	tests       []model.TestSubmission
	reviews     []model.Review
	warnings    []model.Warning
}

// MemorySource is an in-memory Source indexed by employee.
type MemorySource struct {
	mu         sync.RWMutex
	byID       map[string]*employeeRecords
	ids        []string
	locations  map[string]model.Location
	taskIndex  map[string]model.Task
	fetchDelay time.Duration
}

var _ Source = (*MemorySource)(nil)

// NewMemorySource indexes ds. Records referencing unknown employees are ignored.
func NewMemorySource(ds Dataset, opts ...Option) *MemorySource {
	s := &MemorySource{}
	for _, opt := range opts {
		opt(s)
	}
	s.Replace(ds)
	return s
}

// Replace swaps the indexed dataset atomically.
func (s *MemorySource) Replace(ds Dataset) {
	byID := make(map[string]*employeeRecords, len(ds.Employees))
	ids := make([]string, 0, len(ds.Employees))
	for _, e := range ds.Employees {
		if _, dup := byID[e.ID]; dup {
			continue
		}
		byID[e.ID] = &employeeRecords{employee: e}
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)

	locations := make(map[string]model.Location, len(ds.Locations))
	for _, l := range ds.Locations {
		locations[l.ID] = l
	}

	taskIndex := make(map[string]model.Task, len(ds.Tasks))
	for _, t := range ds.Tasks {
		if _, ok := taskIndex[t.ID]; !ok {
			taskIndex[t.ID] = t
		}
		if r := byID[t.AssigneeID]; r != nil {
			r.tasks = append(r.tasks, t)
		}
	}
	for _, v := range ds.Shifts {
		if r := byID[v.EmployeeID]; r != nil {
			r.shifts = append(r.shifts, v)
		}
	}
	for _, v := range ds.Attendance {
		if r := byID[v.EmployeeID]; r != nil {
			r.attendance = append(r.attendance, v)
		}
	}
	for _, v := range ds.Completions {
		if r := byID[v.EmployeeID]; r != nil {
			r.completions = append(r.completions, v)
		}
	}
	for _, v := range ds.Tests {
		if r := byID[v.EmployeeID]; r != nil {
			r.tests = append(r.tests, v)
		}
	}
	for _, v := range ds.Reviews {
		if r := byID[v.EmployeeID]; r != nil {
			r.reviews = append(r.reviews, v)
		}
	}
	for _, v := range ds.Warnings {
		if r := byID[v.EmployeeID]; r != nil {
			r.warnings = append(r.warnings, v)
		}
	}

	s.mu.Lock()
	s.byID = byID
	s.ids = ids
	s.locations = locations
	s.taskIndex = taskIndex
	s.mu.Unlock()
}

// Inputs implements Source.Inputs.
func (s *MemorySource) Inputs(ctx context.Context, req model.Request) (model.EmployeeInputs, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !req.Window.Valid() {
		metrics.RecordErrorByComponent("repository", "invalid_window")
		return model.EmployeeInputs{}, fmt.Errorf("%w: [%s, %s)", ErrInvalidWindow,
			req.Window.Start.Format(time.RFC3339), req.Window.End.Format(time.RFC3339))
	}
	if err := s.wait(ctx); err != nil {
		return model.EmployeeInputs{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[req.EmployeeID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.EmployeeInputs{}, fmt.Errorf("%w: %s", ErrNotFound, req.EmployeeID)
	}

	return assembly.Build(req, assembly.Records{
		Employee:    r.employee,
		Locations:   s.locations,
		Shifts:      r.shifts,
		Attendance:  r.attendance,
		Tasks:       r.tasks,
		Completions: r.completions,
		TaskIndex:   s.taskIndex,
		Tests:       r.tests,
		Reviews:     r.reviews,
		Warnings:    r.warnings,
	}), nil
}

// Employees implements Source.Employees.
func (s *MemorySource) Employees(ctx context.Context, locationID string) ([]model.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Employee, 0, len(s.ids))
	for _, id := range s.ids {
		e := s.byID[id].employee
		if locationID != "" && e.LocationID != locationID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Count implements Source.Count.
func (s *MemorySource) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Location returns a location by ID.
func (s *MemorySource) Location(id string) (model.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	return l, ok
}

func (s *MemorySource) wait(ctx context.Context) error {
	if s.fetchDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.fetchDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
