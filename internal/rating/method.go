package rating

import (
	"errors"
	"math"

	"league-elo/internal/config"
	"league-elo/internal/domain"
)

var ErrTeamCount = errors.New("match must have exactly two teams")

// Match is the per-computation context shared by every method. Slices are
// indexed like Participants; nothing in it is written back to the inputs.
type Match struct {
	Participants []domain.Participant
	Names        []string
	Roles        []string
	Metrics      []Metrics
	Scores       []float64
	LaneRanks    map[int]LaneRank
	Ratings      []int

	// TeamIDs holds the two team ids in first-seen order.
	TeamIDs [2]int
	Teams   map[int][]int
	TeamWin map[int]bool
}

// Won reports the outcome of participant i's team.
func (m *Match) Won(i int) bool {
	return m.TeamWin[m.Participants[i].TeamID]
}

func (m *Match) opponent(teamID int) int {
	if m.TeamIDs[0] == teamID {
		return m.TeamIDs[1]
	}
	return m.TeamIDs[0]
}

func (m *Match) teamAverage(teamID int) float64 {
	members := m.Teams[teamID]
	if len(members) == 0 {
		return 0
	}
	var sum int
	for _, idx := range members {
		sum += m.Ratings[idx]
	}
	return float64(sum) / float64(len(members))
}

// Change is one method's verdict for one participant.
type Change struct {
	Delta     int
	NewRating int
}

// Method is a rating methodology. Compute returns one Change per participant,
// in participant order.
type Method interface {
	Name() string
	Enabled(cfg config.Rating) bool
	Compute(m *Match, cfg config.Rating) []Change
}

// apply enforces that losers always lose rating and that ratings never go
// below zero. The recorded delta keeps its computed value when floored.
func apply(m *Match, i, delta int) Change {
	if !m.Won(i) && delta >= 0 {
		delta = -1
	}
	return Change{
		Delta:     delta,
		NewRating: max(0, m.Ratings[i]+delta),
	}
}

// round rounds half toward positive infinity.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
