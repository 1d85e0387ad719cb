package rating

import "league-elo/internal/config"

// LaneRelative blends lane rank, team outcome and individual score without
// any Elo expectation.
type LaneRelative struct{}

func (LaneRelative) Name() string { return config.MethodLaneComparison }

func (LaneRelative) Enabled(cfg config.Rating) bool {
	return cfg.MethodEnabled(config.MethodLaneComparison)
}

func (LaneRelative) Compute(m *Match, cfg config.Rating) []Change {
	lc := cfg.CalculationMethods.LaneComparison
	changes := make([]Change, len(m.Participants))

	for i := range m.Participants {
		var laneBonus float64
		if lr, ok := m.LaneRanks[i]; ok {
			laneBonus = (lr.Percentile - 0.5) * 2 * lc.MaxLaneBonus
		}

		teamBonus := -lc.MaxTeamBonus
		if m.Won(i) {
			teamBonus = lc.MaxTeamBonus
		}

		individualBonus := (m.Scores[i] - 1) * lc.MaxIndividualBonus

		delta := round(laneBonus*lc.LaneWeight + teamBonus*lc.TeamWeight + individualBonus*lc.IndividualWeight)
		changes[i] = apply(m, i, delta)
	}
	return changes
}
