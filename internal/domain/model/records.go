package model

import "time"

// The records below are the raw source rows the data layer reads. The engine
// never writes them.

// Employee is a staff member.
type Employee struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Role       string `json:"role" yaml:"role"`
	LocationID string `json:"location_id" yaml:"location_id"`
	AvatarURL  string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
}

// Location is a workplace. Shifts at locations that do not require check-in
// count as attended without an attendance log.
type Location struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	RequiresCheckIn bool   `json:"requires_check_in" yaml:"requires_check_in"`
}

// Shift is a scheduled work slot.
type Shift struct {
	ID         string    `json:"id" yaml:"id"`
	EmployeeID string    `json:"employee_id" yaml:"employee_id"`
	LocationID string    `json:"location_id" yaml:"location_id"`
	Start      time.Time `json:"start" yaml:"start"`
	End        time.Time `json:"end" yaml:"end"`
}

// AttendanceLog records a check-in against a shift. LateMinutes, when set,
// overrides the value derived from CheckInAt.
type AttendanceLog struct {
	ID          string     `json:"id" yaml:"id"`
	ShiftID     string     `json:"shift_id" yaml:"shift_id"`
	EmployeeID  string     `json:"employee_id" yaml:"employee_id"`
	CheckInAt   *time.Time `json:"check_in_at,omitempty" yaml:"check_in_at,omitempty"`
	LateMinutes *int       `json:"late_minutes,omitempty" yaml:"late_minutes,omitempty"`
}

// Task is a unit of work assigned directly to an employee.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	AssigneeID  string     `json:"assignee_id" yaml:"assignee_id"`
	LocationID  string     `json:"location_id,omitempty" yaml:"location_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	DueAt       *time.Time `json:"due_at,omitempty" yaml:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Late        *bool      `json:"late,omitempty" yaml:"late,omitempty"`
}

// TaskCompletion credits a completed task to an employee, for example a
// role- or location-scoped task that somebody picked up.
type TaskCompletion struct {
	ID          string    `json:"id" yaml:"id"`
	TaskID      string    `json:"task_id" yaml:"task_id"`
	EmployeeID  string    `json:"employee_id" yaml:"employee_id"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
	Late        *bool     `json:"late,omitempty" yaml:"late,omitempty"`
}

// TestSubmission is a graded test attempt.
type TestSubmission struct {
	ID          string    `json:"id" yaml:"id"`
	EmployeeID  string    `json:"employee_id" yaml:"employee_id"`
	SubmittedAt time.Time `json:"submitted_at" yaml:"submitted_at"`
	Score       *float64  `json:"score,omitempty" yaml:"score,omitempty"`
	Passed      bool      `json:"passed" yaml:"passed"`
}

// Review is a performance review of an employee.
type Review struct {
	ID         string    `json:"id" yaml:"id"`
	EmployeeID string    `json:"employee_id" yaml:"employee_id"`
	ReviewedAt time.Time `json:"reviewed_at" yaml:"reviewed_at"`
	Score      *float64  `json:"score,omitempty" yaml:"score,omitempty"`
}
