package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"league-elo/internal/constants"
	"league-elo/internal/domain"
	"league-elo/internal/repository"
)

const (
	CategoryElo     = "elo"
	CategoryGames   = "games"
	CategoryWinRate = "winrate"
	CategoryKills   = "kills"
)

var Categories = []string{CategoryElo, CategoryGames, CategoryWinRate, CategoryKills}

const recentHistory = 5

// PlayerService serves read-only views over stored ratings.
type PlayerService struct {
	ratings repository.RatingStore
	games   repository.GameStore
	logger  zerolog.Logger
}

func NewPlayerService(ratings repository.RatingStore, games repository.GameStore, logger zerolog.Logger) *PlayerService {
	return &PlayerService{ratings: ratings, games: games, logger: logger}
}

type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Name     string  `json:"name"`
	Rating   int     `json:"elo"`
	Games    int     `json:"games"`
	WinLoss  string  `json:"winLoss"`
	WinRate  float64 `json:"winRate"`
	AvgKills float64 `json:"avgKills"`
}

type LeaderboardSummary struct {
	TotalPlayers  int               `json:"totalPlayers"`
	AverageRating int               `json:"averageElo"`
	TotalGames    int               `json:"totalGames"`
	HighestRating *LeaderboardEntry `json:"highestElo,omitempty"`
	MostGames     *LeaderboardEntry `json:"mostGames,omitempty"`
	BestWinRate   *LeaderboardEntry `json:"bestWinRate,omitempty"`
}

type Leaderboard struct {
	MinGames int                `json:"minGames"`
	Players  []LeaderboardEntry `json:"players"`
	Summary  LeaderboardSummary `json:"summary"`
}

type PlayerDetail struct {
	domain.RatingRecord
	WinRate float64                     `json:"winRate"`
	KDA     float64                     `json:"kda"`
	Recent  []domain.RatingHistoryEntry `json:"recent"`
}

type Stats struct {
	domain.StoreStats
	AverageRating    int `json:"averageElo"`
	TotalGamesPlayed int `json:"totalGamesPlayed"`
}

// Leaderboard lists players with at least minGames games by rating.
func (s *PlayerService) Leaderboard(ctx context.Context, minGames int) (*Leaderboard, error) {
	players, err := s.ratings.List(ctx, minGames)
	if err != nil {
		return nil, err
	}

	entries := toEntries(players)
	lb := &Leaderboard{MinGames: minGames, Players: entries}
	lb.Summary.TotalPlayers = len(entries)
	if len(entries) == 0 {
		return lb, nil
	}

	var ratingSum int
	for i := range entries {
		ratingSum += entries[i].Rating
		lb.Summary.TotalGames += entries[i].Games
		if lb.Summary.MostGames == nil || entries[i].Games > lb.Summary.MostGames.Games {
			lb.Summary.MostGames = &entries[i]
		}
		if entries[i].Games >= constants.MinGamesForWinRate &&
			(lb.Summary.BestWinRate == nil || entries[i].WinRate > lb.Summary.BestWinRate.WinRate) {
			lb.Summary.BestWinRate = &entries[i]
		}
	}
	lb.Summary.HighestRating = &entries[0]
	lb.Summary.AverageRating = int(math.Round(float64(ratingSum) / float64(len(entries))))
	return lb, nil
}

// Top ranks players by category. winrate requires constants.MinGamesForWinRate
// games, the others constants.DefaultLeaderboardMinGames.
func (s *PlayerService) Top(ctx context.Context, category string, limit int) ([]LeaderboardEntry, error) {
	category = strings.ToLower(category)
	if !slices.Contains(Categories, category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if limit <= 0 {
		limit = constants.DefaultTopLimit
	}

	minGames := constants.DefaultLeaderboardMinGames
	if category == CategoryWinRate {
		minGames = constants.MinGamesForWinRate
	}

	players, err := s.ratings.List(ctx, minGames)
	if err != nil {
		return nil, err
	}

	switch category {
	case CategoryGames:
		sort.SliceStable(players, func(i, j int) bool { return players[i].Games > players[j].Games })
	case CategoryWinRate:
		sort.SliceStable(players, func(i, j int) bool { return players[i].WinRate() > players[j].WinRate() })
	case CategoryKills:
		sort.SliceStable(players, func(i, j int) bool { return players[i].AvgKills > players[j].AvgKills })
	}

	if len(players) > limit {
		players = players[:limit]
	}
	return toEntries(players), nil
}

func (s *PlayerService) Player(ctx context.Context, name string) (*PlayerDetail, error) {
	rec, err := s.ratings.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	d := &PlayerDetail{RatingRecord: *rec, WinRate: rec.WinRate()}
	if rec.AvgDeaths > 0 {
		d.KDA = (rec.AvgKills + rec.AvgAssists) / rec.AvgDeaths
	} else {
		d.KDA = rec.AvgKills + rec.AvgAssists
	}

	recent := rec.RatingHistory[max(0, len(rec.RatingHistory)-recentHistory):]
	d.Recent = slices.Clone(recent)
	slices.Reverse(d.Recent)
	return d, nil
}

func (s *PlayerService) Stats(ctx context.Context) (*Stats, error) {
	storeStats, err := s.games.Stats(ctx)
	if err != nil {
		return nil, err
	}

	players, err := s.ratings.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	st := &Stats{StoreStats: storeStats}
	var ratingSum int
	for _, p := range players {
		ratingSum += p.Rating
		st.TotalGamesPlayed += p.Games
	}
	if len(players) > 0 {
		st.AverageRating = int(math.Round(float64(ratingSum) / float64(len(players))))
	}
	return st, nil
}

func toEntries(players []domain.RatingRecord) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = LeaderboardEntry{
			Rank:     i + 1,
			Name:     p.Name,
			Rating:   p.Rating,
			Games:    p.Games,
			WinLoss:  p.WinLoss,
			WinRate:  p.WinRate(),
			AvgKills: p.AvgKills,
		}
	}
	return entries
}
