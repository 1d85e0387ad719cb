package rating

import (
	"math"

	"league-elo/internal/config"
)

const (
	hybridMinWinGain     = 5
	hybridMinWeightScore = 0.1
	hybridPoorScore      = 0.7
	hybridPoorPenalty    = 1.1
)

// Hybrid rewards winners on a scalar scale and splits a fixed loss pool across
// each losing team by inverse performance. The two branches are intentionally
// not symmetric.
type Hybrid struct{}

func (Hybrid) Name() string { return config.MethodHybrid }

func (Hybrid) Enabled(cfg config.Rating) bool {
	return cfg.MethodEnabled(config.MethodHybrid)
}

func (Hybrid) Compute(m *Match, cfg config.Rating) []Change {
	hc := cfg.CalculationMethods.Hybrid
	changes := make([]Change, len(m.Participants))

	for _, teamID := range m.TeamIDs {
		members := m.Teams[teamID]
		if m.TeamWin[teamID] {
			for _, idx := range members {
				changes[idx] = apply(m, idx, HybridWinDelta(m.Scores[idx], hc))
			}
			continue
		}

		scores := make([]float64, len(members))
		for k, idx := range members {
			scores[k] = m.Scores[idx]
		}
		for k, delta := range HybridLossDeltas(scores, hc.BaseEloChange) {
			idx := members[k]
			changes[idx] = apply(m, idx, delta)
		}
	}
	return changes
}

// HybridWinDelta is a winner's gain. Below-average winners get a reduced gain
// with a floor.
func HybridWinDelta(score float64, hc config.HybridMethod) int {
	if score < 1 {
		return round(math.Max(hybridMinWinGain, hc.BaseEloChange*hc.WinBonusReduction))
	}
	return round(hc.BaseEloChange + (score-1)*hc.PerformanceMultiplier)
}

// HybridLossDeltas distributes a pool of -base*len(scores) across one losing
// team, weighted by inverse performance. Every delta is at most -1.
func HybridLossDeltas(scores []float64, base float64) []int {
	deltas := make([]int, len(scores))
	if len(scores) == 0 {
		return deltas
	}

	pool := -base * float64(len(scores))
	weights := make([]float64, len(scores))
	var total float64
	for i, s := range scores {
		weights[i] = 1 / math.Max(hybridMinWeightScore, s)
		total += weights[i]
	}

	for i, s := range scores {
		d := pool * weights[i] / total
		if s < hybridPoorScore {
			d *= hybridPoorPenalty
		}
		deltas[i] = min(round(d), -1)
	}
	return deltas
}
