package rating

import (
	"slices"
	"sort"
	"strings"

	"league-elo/internal/config"
)

// LaneRank is a participant's standing against same-role opponents.
type LaneRank struct {
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
	Percentile float64 `json:"percentile"`
	GroupSize  int     `json:"groupSize"`
}

// PriorityFunc returns the stat weights for a role.
type PriorityFunc func(role string) map[string]float64

// CompareLanes ranks participants within their role group. roles and metrics
// are indexed like the match's participants; the result is keyed by that index.
// Groups with a single member get no entry.
func CompareLanes(roles []string, metrics []Metrics, priorities PriorityFunc) map[int]LaneRank {
	groups := make(map[string][]int)
	var order []string
	for i, role := range roles {
		role = strings.ToUpper(role)
		if _, ok := groups[role]; !ok {
			order = append(order, role)
		}
		groups[role] = append(groups[role], i)
	}

	ranks := make(map[int]LaneRank, len(roles))
	for _, role := range order {
		members := groups[role]
		if len(members) < 2 {
			continue
		}

		weights := priorities(role)
		scores := make(map[int]float64, len(members))
		for _, idx := range members {
			scores[idx] = laneScore(metrics[idx], weights)
		}

		sorted := slices.Clone(members)
		sort.SliceStable(sorted, func(a, b int) bool {
			return scores[sorted[a]] > scores[sorted[b]]
		})

		n := len(sorted)
		for pos, idx := range sorted {
			rank := pos + 1
			ranks[idx] = LaneRank{
				Score:      scores[idx],
				Rank:       rank,
				Percentile: float64(n-rank+1) / float64(n),
				GroupSize:  n,
			}
		}
	}
	return ranks
}

func laneScore(m Metrics, weights map[string]float64) float64 {
	var score float64
	for _, stat := range config.AllStats {
		score += Normalize(stat, m) * weights[stat]
	}
	return score
}
