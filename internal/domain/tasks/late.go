package tasks

import "time"

// ResolveOnTime decides whether a completion was on time. The first
// available signal wins:
//  1. the completion's own late flag
//  2. the parent task's late flag
//  3. completion timestamp compared to the due timestamp
//  4. on time when there is no due timestamp
func ResolveOnTime(completionLate, taskLate *bool, completedAt time.Time, dueAt *time.Time) bool {
	switch {
	case completionLate != nil:
		return !*completionLate
	case taskLate != nil:
		return !*taskLate
	case dueAt != nil:
		return !completedAt.After(*dueAt)
	default:
		return true
	}
}
