// Package tasks merges directly assigned tasks with completions attributed
// to an employee and derives task aggregates.
package tasks

import (
	"sort"
	"time"

	"github.com/okian/perfscore/internal/domain/dedupe"
	"github.com/okian/perfscore/internal/domain/model"
)

// Source tells which stream an Item came from.
type Source string

// Streams merged into the task aggregate.
const (
	SourceDirect     Source = "direct"
	SourceAttributed Source = "attributed"
)

// Item is one unit of work counted for an employee.
type Item struct {
	TaskID         string
	Source         Source
	DueAt          *time.Time
	CompletedAt    *time.Time
	CompletionLate *bool
	TaskLate       *bool
}

// Completed reports whether the item has a completion timestamp.
func (it Item) Completed() bool {
	return it.CompletedAt != nil
}

// OnTime resolves whether a completed item was finished on time.
func (it Item) OnTime() bool {
	if it.CompletedAt == nil {
		return false
	}
	return ResolveOnTime(it.CompletionLate, it.TaskLate, *it.CompletedAt, it.DueAt)
}

// Counts are the task aggregates of one employee and window.
type Counts struct {
	Assigned        int
	Completed       int
	CompletedOnTime int
	Overdue         int
}

// Merge unions the direct stream with the attributed stream, excluding any
// completion whose task is already counted as a direct assignment.
// parents resolves the due date and late flag of attributed tasks; it may be
// nil. Both streams are deduplicated by task id.
func Merge(direct []model.Task, attributed []model.TaskCompletion, parents map[string]model.Task) []Item {
	completions := sortedCompletions(attributed)

	firstCompletion := make(map[string]model.TaskCompletion, len(completions))
	for _, c := range completions {
		if _, ok := firstCompletion[c.TaskID]; !ok {
			firstCompletion[c.TaskID] = c
		}
	}

	counted := dedupe.NewSet(dedupe.WithCapacity(len(direct) + len(completions)))
	items := make([]Item, 0, len(direct)+len(completions))

	for _, t := range direct {
		if t.ID == "" || counted.SeenAndRecord(t.ID) {
			continue
		}
		it := Item{
			TaskID:      t.ID,
			Source:      SourceDirect,
			DueAt:       t.DueAt,
			CompletedAt: t.CompletedAt,
			TaskLate:    t.Late,
		}
		if c, ok := firstCompletion[t.ID]; ok {
			if it.CompletedAt == nil {
				completedAt := c.CompletedAt
				it.CompletedAt = &completedAt
			}
			it.CompletionLate = c.Late
		}
		items = append(items, it)
	}

	for _, c := range completions {
		if c.TaskID == "" || counted.SeenAndRecord(c.TaskID) {
			continue
		}
		completedAt := c.CompletedAt
		it := Item{
			TaskID:         c.TaskID,
			Source:         SourceAttributed,
			CompletedAt:    &completedAt,
			CompletionLate: c.Late,
		}
		if p, ok := parents[c.TaskID]; ok {
			it.DueAt = p.DueAt
			it.TaskLate = p.Late
		}
		items = append(items, it)
	}
	return items
}

// Aggregate counts merged items relative to referenceDate.
func Aggregate(items []Item, referenceDate time.Time) Counts {
	var c Counts
	for _, it := range items {
		c.Assigned++
		switch {
		case it.Completed():
			c.Completed++
			if it.OnTime() {
				c.CompletedOnTime++
			}
		case it.DueAt != nil && it.DueAt.Before(referenceDate):
			c.Overdue++
		}
	}
	return c
}

func sortedCompletions(in []model.TaskCompletion) []model.TaskCompletion {
	out := make([]model.TaskCompletion, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.Before(out[j].CompletedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
