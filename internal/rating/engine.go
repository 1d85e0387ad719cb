package rating

import (
	"fmt"

	"github.com/rs/zerolog"

	"league-elo/internal/config"
	"league-elo/internal/domain"
)

// Outcome is the result of one match computation.
type Outcome struct {
	Method    string               `json:"method"`
	Results   []domain.MatchResult `json:"results"`
	Metrics   []Metrics            `json:"metrics"`
	LaneRanks map[int]LaneRank     `json:"-"`
}

type Engine struct {
	methods []Method
	logger  zerolog.Logger
}

func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		methods: []Method{Traditional{}, LaneRelative{}, Hybrid{}},
		logger:  logger,
	}
}

// Compute rates one match. currentRatings is keyed by participant name; missing
// players start at cfg.BaseElo. Inputs are never modified. On ErrTeamCount the
// outcome still carries every participant with a zero delta.
func (e *Engine) Compute(participants []domain.Participant, currentRatings map[string]int, cfg config.Rating) (*Outcome, error) {
	if len(participants) == 0 {
		return nil, domain.ErrNoParticipants
	}

	m := e.newMatch(participants, currentRatings, cfg)
	out := &Outcome{
		Method:    config.MethodNone,
		Results:   baseResults(m),
		Metrics:   m.Metrics,
		LaneRanks: m.LaneRanks,
	}

	if len(m.Teams) != 2 {
		return out, fmt.Errorf("%w: got %d", ErrTeamCount, len(m.Teams))
	}
	e.resolveOutcomes(m)
	for i := range out.Results {
		out.Results[i].Win = m.Won(i)
	}

	authority := e.authority(cfg)
	if authority == nil {
		return out, nil
	}
	out.Method = authority.Name()

	for _, method := range e.methods {
		if !method.Enabled(cfg) {
			continue
		}
		changes := method.Compute(m, cfg)
		for i, c := range changes {
			r := &out.Results[i]
			if r.Methods == nil {
				r.Methods = make(map[string]domain.MethodChange, len(e.methods))
			}
			r.Methods[method.Name()] = domain.MethodChange{Delta: c.Delta, NewRating: c.NewRating}

			if method.Name() == authority.Name() {
				r.Delta = c.Delta
				r.NewRating = c.NewRating
				r.Method = method.Name()
			}
		}
	}
	return out, nil
}

// Compare runs every method regardless of what cfg enables. cfg itself is not
// modified.
func (e *Engine) Compare(participants []domain.Participant, currentRatings map[string]int, cfg config.Rating) (*Outcome, error) {
	return e.Compute(participants, currentRatings, cfg.WithAllMethods())
}

// authority is the first enabled method in priority order, then in registry
// order for enabled methods the priority list leaves out.
func (e *Engine) authority(cfg config.Rating) Method {
	for _, name := range cfg.MethodPriority {
		for _, method := range e.methods {
			if method.Name() == name && method.Enabled(cfg) {
				return method
			}
		}
	}
	for _, method := range e.methods {
		if method.Enabled(cfg) {
			return method
		}
	}
	return nil
}

func (e *Engine) newMatch(participants []domain.Participant, currentRatings map[string]int, cfg config.Rating) *Match {
	n := len(participants)
	m := &Match{
		Participants: participants,
		Names:        make([]string, n),
		Roles:        make([]string, n),
		Metrics:      make([]Metrics, n),
		Scores:       make([]float64, n),
		Ratings:      make([]int, n),
		Teams:        make(map[int][]int),
		TeamWin:      make(map[int]bool),
	}

	e.validate(participants)
	avgDuration := averageDuration(participants)

	var teamOrder []int
	for i, p := range participants {
		m.Names[i] = p.Name()
		m.Roles[i] = p.Role()
		m.Metrics[i] = Extract(p, avgDuration)
		m.Scores[i] = PerformanceScore(m.Metrics[i], cfg.PerformanceWeights)

		m.Ratings[i] = cfg.BaseElo
		if r, ok := currentRatings[m.Names[i]]; ok {
			m.Ratings[i] = r
		}

		if _, ok := m.Teams[p.TeamID]; !ok {
			teamOrder = append(teamOrder, p.TeamID)
		}
		m.Teams[p.TeamID] = append(m.Teams[p.TeamID], i)
	}
	if len(teamOrder) == 2 {
		m.TeamIDs = [2]int{teamOrder[0], teamOrder[1]}
	}

	m.LaneRanks = CompareLanes(m.Roles, m.Metrics, cfg.LanePriorities)
	return m
}

// resolveOutcomes takes the first team's result from its first member and
// gives the second team the opposite, so exactly one team wins. Participants
// whose own flag disagrees are logged and overruled.
func (e *Engine) resolveOutcomes(m *Match) {
	first, second := m.TeamIDs[0], m.TeamIDs[1]
	win := m.Participants[m.Teams[first][0]].Win
	m.TeamWin[first] = win
	m.TeamWin[second] = !win

	for _, teamID := range m.TeamIDs {
		for _, idx := range m.Teams[teamID] {
			if m.Participants[idx].Win != m.TeamWin[teamID] {
				e.logger.Warn().
					Int("team_id", teamID).
					Str("player", m.Names[idx]).
					Bool("reported_win", m.Participants[idx].Win).
					Msg("win flag contradicts match outcome, overruling")
			}
		}
	}
}

func (e *Engine) validate(participants []domain.Participant) {
	for i, p := range participants {
		if p.TeamID == 0 {
			e.logger.Warn().Int("index", i).Str("player", p.Name()).Msg("participant missing teamId")
		}
		if p.TimePlayed <= 0 {
			e.logger.Warn().Int("index", i).Str("player", p.Name()).Msg("participant missing timePlayed, using match average")
		}
	}
}

func averageDuration(participants []domain.Participant) float64 {
	var sum float64
	var n int
	for _, p := range participants {
		if p.TimePlayed > 0 {
			sum += p.TimePlayed
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func baseResults(m *Match) []domain.MatchResult {
	results := make([]domain.MatchResult, len(m.Participants))
	for i, p := range m.Participants {
		results[i] = domain.MatchResult{
			Name:             m.Names[i],
			Team:             p.TeamID,
			Win:              p.Win,
			Role:             m.Roles[i],
			OldRating:        m.Ratings[i],
			NewRating:        m.Ratings[i],
			Method:           config.MethodNone,
			PerformanceScore: m.Scores[i],
		}
		if lr, ok := m.LaneRanks[i]; ok {
			rank, pct := lr.Rank, lr.Percentile
			results[i].LaneRank = &rank
			results[i].LaneRankPercentile = &pct
		}
	}
	return results
}
