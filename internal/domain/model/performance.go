package model

// Identity is the passthrough description of an employee.
type Identity struct {
	EmployeeID   string `json:"employee_id"`
	Name         string `json:"name"`
	Role         string `json:"role,omitempty"`
	LocationID   string `json:"location_id,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

// RawPerformanceInputs are the per-employee counts for one window.
type RawPerformanceInputs struct {
	ScheduledShifts int `json:"scheduled_shifts"`
	AttendedShifts  int `json:"attended_shifts"`
	MissedShifts    int `json:"missed_shifts"`

	LateCount        int `json:"late_count"`
	TotalLateMinutes int `json:"total_late_minutes"`

	TasksAssigned        int `json:"tasks_assigned"`
	TasksCompleted       int `json:"tasks_completed"`
	TasksCompletedOnTime int `json:"tasks_completed_on_time"`
	TasksOverdue         int `json:"tasks_overdue"`

	TestsTaken  int       `json:"tests_taken"`
	TestsPassed int       `json:"tests_passed"`
	TestScores  []float64 `json:"test_scores"`

	ReviewCount  int       `json:"review_count"`
	ReviewScores []float64 `json:"review_scores"`
}

// ComponentScores are the five independent 0-100 sub-scores.
type ComponentScores struct {
	Attendance        float64 `json:"attendance_score"`
	Punctuality       float64 `json:"punctuality_score"`
	Task              float64 `json:"task_score"`
	Test              float64 `json:"test_score"`
	PerformanceReview float64 `json:"performance_review_score"`
}

// EmployeePerformanceScore is the final computed record for one employee.
type EmployeePerformanceScore struct {
	Identity
	ComponentScores
	BaseScore      float64                `json:"base_score"`
	WarningPenalty EmployeeWarningPenalty `json:"warning_penalty"`
	OverallScore   float64                `json:"overall_score"`
	Raw            RawPerformanceInputs   `json:"raw"`
}

// EmployeeInputs bundles everything the engine needs for one employee.
type EmployeeInputs struct {
	Identity Identity
	Raw      RawPerformanceInputs
	Warnings []Warning
}
