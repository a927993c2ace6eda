// Package assembly derives RawPerformanceInputs from raw source records for
// one employee, reporting window and reference date.
package assembly

import (
	"time"

	"github.com/okian/perfscore/internal/domain/dedupe"
	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/internal/domain/penalty"
	"github.com/okian/perfscore/internal/domain/tasks"
)

// warningLookbackDays keeps priors that can still escalate a retained warning.
const warningLookbackDays = penalty.RetentionDays + penalty.RepeatWindowDays

// Records are the raw rows of one employee. Shifts, attendance logs, direct
// tasks, completions, tests, reviews and warnings must already be restricted
// to the employee; Build applies the window, location and reference date.
type Records struct {
	Employee    model.Employee
	Locations   map[string]model.Location
	Shifts      []model.Shift
	Attendance  []model.AttendanceLog
	Tasks       []model.Task
	Completions []model.TaskCompletion
	// TaskIndex resolves parent tasks of attributed completions.
	TaskIndex map[string]model.Task
	Tests     []model.TestSubmission
	Reviews   []model.Review
	Warnings  []model.Warning
}

// Build assembles the engine inputs for req.
func Build(req model.Request, rec Records) model.EmployeeInputs {
	var raw model.RawPerformanceInputs
	shiftCounts(req, rec, &raw)
	taskCounts(req, rec, &raw)
	testCounts(req, rec, &raw)
	reviewCounts(req, rec, &raw)

	return model.EmployeeInputs{
		Identity: identity(rec),
		Raw:      raw,
		Warnings: warnings(req, rec),
	}
}

func identity(rec Records) model.Identity {
	return model.Identity{
		EmployeeID:   rec.Employee.ID,
		Name:         rec.Employee.Name,
		Role:         rec.Employee.Role,
		LocationID:   rec.Employee.LocationID,
		LocationName: rec.Locations[rec.Employee.LocationID].Name,
		AvatarURL:    rec.Employee.AvatarURL,
	}
}

func matchesLocation(filter, locationID string) bool {
	return filter == "" || locationID == "" || filter == locationID
}

// shiftCounts fills scheduled, attended, missed and punctuality counts. Only
// shifts that have ended by the reference date are scheduled.
func shiftCounts(req model.Request, rec Records, raw *model.RawPerformanceInputs) {
	logs := make(map[string]model.AttendanceLog)
	for _, l := range dedupe.Unique(rec.Attendance, func(l model.AttendanceLog) string { return l.ID }) {
		if _, ok := logs[l.ShiftID]; !ok && l.ShiftID != "" {
			logs[l.ShiftID] = l
		}
	}

	for _, s := range dedupe.Unique(rec.Shifts, func(s model.Shift) string { return s.ID }) {
		if !req.Window.Contains(s.Start) || !matchesLocation(req.LocationID, s.LocationID) {
			continue
		}
		end := s.End
		if end.IsZero() {
			end = s.Start
		}
		if end.After(req.ReferenceDate) {
			continue
		}
		raw.ScheduledShifts++

		log, checkedIn := logs[s.ID]
		if !checkedIn && requiresCheckIn(rec.Locations, s.LocationID) {
			raw.MissedShifts++
			continue
		}
		raw.AttendedShifts++

		if checkedIn {
			if late := lateMinutes(s, log); late > 0 {
				raw.LateCount++
				raw.TotalLateMinutes += late
			}
		}
	}
}

// requiresCheckIn treats unknown locations as requiring check-in.
func requiresCheckIn(locations map[string]model.Location, id string) bool {
	loc, ok := locations[id]
	if !ok {
		return true
	}
	return loc.RequiresCheckIn
}

// lateMinutes prefers an explicit value on the log and otherwise counts whole
// minutes between shift start and check-in.
func lateMinutes(s model.Shift, l model.AttendanceLog) int {
	if l.LateMinutes != nil {
		return max(0, *l.LateMinutes)
	}
	if l.CheckInAt == nil || !l.CheckInAt.After(s.Start) {
		return 0
	}
	return int(l.CheckInAt.Sub(s.Start) / time.Minute)
}

func taskCounts(req model.Request, rec Records, raw *model.RawPerformanceInputs) {
	direct := make([]model.Task, 0, len(rec.Tasks))
	for _, t := range rec.Tasks {
		if req.Window.Contains(t.CreatedAt) && matchesLocation(req.LocationID, t.LocationID) {
			direct = append(direct, t)
		}
	}
	attributed := make([]model.TaskCompletion, 0, len(rec.Completions))
	for _, c := range rec.Completions {
		if !req.Window.Contains(c.CompletedAt) {
			continue
		}
		if parent, ok := rec.TaskIndex[c.TaskID]; ok && !matchesLocation(req.LocationID, parent.LocationID) {
			continue
		}
		attributed = append(attributed, c)
	}

	c := tasks.Aggregate(tasks.Merge(direct, attributed, rec.TaskIndex), req.ReferenceDate)
	raw.TasksAssigned = c.Assigned
	raw.TasksCompleted = c.Completed
	raw.TasksCompletedOnTime = c.CompletedOnTime
	raw.TasksOverdue = c.Overdue
}

// testCounts counts every submission in the window; submissions without a
// score count toward the average as 0.
func testCounts(req model.Request, rec Records, raw *model.RawPerformanceInputs) {
	raw.TestScores = []float64{}
	for _, t := range dedupe.Unique(rec.Tests, func(t model.TestSubmission) string { return t.ID }) {
		if !req.Window.Contains(t.SubmittedAt) {
			continue
		}
		raw.TestsTaken++
		if t.Passed {
			raw.TestsPassed++
		}
		if t.Score != nil {
			raw.TestScores = append(raw.TestScores, *t.Score)
		}
	}
}

func reviewCounts(req model.Request, rec Records, raw *model.RawPerformanceInputs) {
	raw.ReviewScores = []float64{}
	for _, r := range dedupe.Unique(rec.Reviews, func(r model.Review) string { return r.ID }) {
		if !req.Window.Contains(r.ReviewedAt) {
			continue
		}
		raw.ReviewCount++
		if r.Score != nil {
			raw.ReviewScores = append(raw.ReviewScores, *r.Score)
		}
	}
}

// warnings keeps warnings dated on or before the reference day and recent
// enough to either contribute or escalate a contributing warning. Ages are
// whole calendar days in req.Zone, matching the penalty calculator.
func warnings(req model.Request, rec Records) []model.Warning {
	out := make([]model.Warning, 0, len(rec.Warnings))
	for _, w := range rec.Warnings {
		age := penalty.AgeDays(req.ReferenceDate, w.EventDate, req.Zone)
		if age < 0 || age > warningLookbackDays {
			continue
		}
		out = append(out, w)
	}
	return out
}
