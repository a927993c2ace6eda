// Package scoring converts raw performance counts into component scores and
// combines them with the warning penalty into an overall score.
package scoring

import (
	"math"

	"github.com/okian/perfscore/internal/domain/model"
)

// Fixed scoring constants. Weights are equal across the five components.
const (
	maxScore       = 100
	componentCount = 5

	pointsPerLateArrival = 5
	lateArrivalCap       = 100
	minutesPerLatePoint  = 10
	lateMinutesCap       = 50
)

// Components computes the five independent sub-scores. Components without
// observations default to 100.
func Components(in model.RawPerformanceInputs) model.ComponentScores {
	return model.ComponentScores{
		Attendance:        AttendanceScore(in.AttendedShifts, in.ScheduledShifts),
		Punctuality:       PunctualityScore(in.LateCount, in.TotalLateMinutes),
		Task:              TaskScore(in.TasksCompletedOnTime, in.TasksAssigned),
		Test:              AverageScore(in.TestScores, in.TestsTaken),
		PerformanceReview: AverageScore(in.ReviewScores, in.ReviewCount),
	}
}

// AttendanceScore is the attended share of scheduled past shifts.
func AttendanceScore(attended, scheduled int) float64 {
	return ratioScore(attended, scheduled)
}

// PunctualityScore deducts 5 points per late arrival (capped at 100) and one
// point per full 10 late minutes (capped at 50).
func PunctualityScore(lateCount, totalLateMinutes int) float64 {
	lateCount = nonNegative(lateCount)
	totalLateMinutes = nonNegative(totalLateMinutes)
	arrivals := min(pointsPerLateArrival*lateCount, lateArrivalCap)
	minutes := min(totalLateMinutes/minutesPerLatePoint, lateMinutesCap)
	return float64(max(0, maxScore-arrivals-minutes))
}

// TaskScore is the on-time share of assigned tasks.
func TaskScore(completedOnTime, assigned int) float64 {
	return ratioScore(completedOnTime, assigned)
}

// AverageScore averages scores over max(observations, len(scores)) so that
// observations without a usable score count as 0. Each score is clamped to
// [0,100]; non-finite values count as 0.
func AverageScore(scores []float64, observations int) float64 {
	n := max(nonNegative(observations), len(scores))
	if n == 0 {
		return maxScore
	}
	var sum float64
	for _, s := range scores {
		sum += Clamp(finite(s))
	}
	return Clamp(sum / float64(n))
}

// BaseScore is the unweighted mean of the five components.
func BaseScore(c model.ComponentScores) float64 {
	sum := c.Attendance + c.Punctuality + c.Task + c.Test + c.PerformanceReview
	return Clamp(sum / componentCount)
}

// OverallScore subtracts the warning penalty from the base score.
func OverallScore(base, penalty float64) float64 {
	return Clamp(finite(base) - finite(penalty))
}

// Clamp bounds v to [0,100].
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(maxScore, v))
}

func ratioScore(num, den int) float64 {
	den = nonNegative(den)
	if den == 0 {
		return maxScore
	}
	return Clamp(maxScore * float64(nonNegative(num)) / float64(den))
}

func nonNegative(v int) int {
	return max(0, v)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
