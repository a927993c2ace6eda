// Package leaderboard orders and groups a cohort of computed scores for
// presentation. It never recomputes scores.
package leaderboard

import (
	"sort"

	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/internal/domain/types"
)

// LocationGroup is the ranked membership of one location.
type LocationGroup struct {
	LocationID   string                           `json:"location_id"`
	LocationName string                           `json:"location_name"`
	Members      []model.EmployeePerformanceScore `json:"members"`
}

// Board is a ranked cohort.
type Board struct {
	ranked []model.EmployeePerformanceScore
}

// Rank sorts a copy of scores by overall score descending. Ties keep their
// input order.
func Rank(scores []model.EmployeePerformanceScore) Board {
	ranked := make([]model.EmployeePerformanceScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverallScore > ranked[j].OverallScore
	})
	return Board{ranked: ranked}
}

// All returns the full ranked list.
func (b Board) All() []model.EmployeePerformanceScore {
	return b.ranked
}

// Len returns the cohort size.
func (b Board) Len() int {
	return len(b.ranked)
}

// TopN returns at most n leading records. Non-positive n yields an empty
// slice.
func (b Board) TopN(n int) []model.EmployeePerformanceScore {
	if n <= 0 {
		return []model.EmployeePerformanceScore{}
	}
	return b.ranked[:min(n, len(b.ranked))]
}

// Entries returns 1-based leaderboard rows for the ranked list.
func (b Board) Entries() []types.Entry {
	return entries(b.ranked)
}

// TopEntries returns rows for the first n records.
func (b Board) TopEntries(n int) []types.Entry {
	return entries(b.TopN(n))
}

// Position returns the 1-based rank of an employee, or 0 when absent.
func (b Board) Position(employeeID string) int {
	for i, s := range b.ranked {
		if s.EmployeeID == employeeID {
			return i + 1
		}
	}
	return 0
}

// ByLocation groups the ranked list by location id. Every record lands in
// exactly one group; records without a location share the "" group.
func (b Board) ByLocation() map[string]LocationGroup {
	groups := make(map[string]LocationGroup)
	for _, s := range b.ranked {
		g, ok := groups[s.LocationID]
		if !ok {
			g = LocationGroup{LocationID: s.LocationID}
		}
		if g.LocationName == "" {
			g.LocationName = s.LocationName
		}
		g.Members = append(g.Members, s)
		groups[s.LocationID] = g
	}
	return groups
}

func entries(scores []model.EmployeePerformanceScore) []types.Entry {
	out := make([]types.Entry, len(scores))
	for i, s := range scores {
		out[i] = types.Entry{
			Rank:       i + 1,
			EmployeeID: s.EmployeeID,
			Name:       s.Name,
			LocationID: s.LocationID,
			Score:      s.OverallScore,
		}
	}
	return out
}
