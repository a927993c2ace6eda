package tasks_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/okian/perfscore/internal/domain/tasks"
)

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

func TestResolveOnTime(t *testing.T) {
	due := time.Date(2026, 10, 10, 17, 0, 0, 0, time.UTC)
	early := due.Add(-time.Hour)
	late := due.Add(time.Hour)

	tests := []struct {
		name           string
		completionLate *bool
		taskLate       *bool
		completedAt    time.Time
		dueAt          *time.Time
		want           bool
	}{
		{"completion flag late beats everything", boolPtr(true), boolPtr(false), early, timePtr(due), false},
		{"completion flag on time beats late timestamp", boolPtr(false), boolPtr(true), late, timePtr(due), true},
		{"task flag used when completion flag unset", nil, boolPtr(true), early, timePtr(due), false},
		{"task flag on time beats late timestamp", nil, boolPtr(false), late, timePtr(due), true},
		{"timestamp before due", nil, nil, early, timePtr(due), true},
		{"timestamp exactly at due", nil, nil, due, timePtr(due), true},
		{"timestamp after due", nil, nil, late, timePtr(due), false},
		{"no due date assumes on time", nil, nil, late, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tasks.ResolveOnTime(tt.completionLate, tt.taskLate, tt.completedAt, tt.dueAt))
		})
	}
}
