package rating

import (
	"math"

	"league-elo/internal/config"
)

// Traditional is paired Elo expectation on team averages plus a bounded
// individual performance modifier.
type Traditional struct{}

func (Traditional) Name() string { return config.MethodTraditional }

func (Traditional) Enabled(cfg config.Rating) bool {
	return cfg.MethodEnabled(config.MethodTraditional)
}

func (Traditional) Compute(m *Match, cfg config.Rating) []Change {
	tc := cfg.CalculationMethods.Traditional
	changes := make([]Change, len(m.Participants))

	for i, p := range m.Participants {
		own := m.teamAverage(p.TeamID)
		opp := m.teamAverage(m.opponent(p.TeamID))
		expected := ExpectedScore(own, opp)

		actual := 0.0
		if m.Won(i) {
			actual = 1
		}

		modifier := PerformanceModifier(m.Scores[i], tc.MinPerformanceBonus, tc.MaxPerformanceBonus)
		delta := round(cfg.KFactor*(actual-expected)*tc.TeamResultWeight + modifier*tc.PerformanceWeight)
		changes[i] = apply(m, i, delta)
	}
	return changes
}

// ExpectedScore is the classical Elo win expectation of a side rated own
// against a side rated opp.
func ExpectedScore(own, opp float64) float64 {
	return 1 / (1 + math.Pow(10, (opp-own)/400))
}

// PerformanceModifier maps a composite score to a bounded bonus; a score of 1
// is neutral.
func PerformanceModifier(score, minBonus, maxBonus float64) float64 {
	return clamp((score-1)*100, minBonus, maxBonus)
}
