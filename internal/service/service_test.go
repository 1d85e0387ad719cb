package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-elo/internal/api"
	"league-elo/internal/config"
	"league-elo/internal/domain"
	"league-elo/internal/gamefile"
	"league-elo/internal/ledger"
	"league-elo/internal/rating"
	"league-elo/internal/repository"
)

type fixture struct {
	cfg     *config.Config
	stores  *repository.Stores
	matches *MatchService
	players *PlayerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	cfg := &config.Config{
		Rating:   config.DefaultRating(),
		GamesDir: t.TempDir(),
	}

	stores, err := repository.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "elo.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	l := ledger.New(stores.Ratings, cfg, logger)
	return &fixture{
		cfg:     cfg,
		stores:  stores,
		matches: NewMatchService(rating.NewEngine(logger), l, stores.Games, cfg, logger),
		players: NewPlayerService(stores.Ratings, stores.Games, logger),
	}
}

func participant(name string, team int, win bool) domain.Participant {
	return domain.Participant{
		RiotIDGameName:              name,
		TeamID:                      team,
		Win:                         win,
		IndividualPosition:          "MIDDLE",
		Kills:                       5,
		Deaths:                      5,
		Assists:                     5,
		TimePlayed:                  1800,
		TotalDamageDealtToChampions: 15000,
		TotalMinionsKilled:          240,
		GoldEarned:                  11000,
		VisionScore:                 60,
	}
}

func twoVsTwo(winners, losers [2]string) []domain.Participant {
	return []domain.Participant{
		participant(winners[0], 100, true), participant(winners[1], 100, true),
		participant(losers[0], 200, false), participant(losers[1], 200, false),
	}
}

func TestProcessParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.matches.ProcessParticipants(ctx, "g1", twoVsTwo([2]string{"a", "b"}, [2]string{"c", "d"}), false)
	require.NoError(t, err)
	assert.Equal(t, config.MethodTraditional, res.Method)
	require.Len(t, res.Results, 4)

	rec, err := f.stores.Ratings.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, res.Results[0].NewRating, rec.Rating)
	assert.Greater(t, rec.Rating, 1000)

	loser, err := f.stores.Ratings.Load(ctx, "c")
	require.NoError(t, err)
	assert.Less(t, loser.Rating, 1000)
	assert.Equal(t, "0:1", loser.WinLoss)

	game, err := f.stores.Games.Get(ctx, "g1")
	require.NoError(t, err)
	assert.NotNil(t, game.ProcessedAt)
	assert.Equal(t, domain.SourceAPI, game.Source)

	_, err = f.matches.ProcessParticipants(ctx, "g1", twoVsTwo([2]string{"a", "b"}, [2]string{"c", "d"}), false)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = f.matches.ProcessParticipants(ctx, "g1", twoVsTwo([2]string{"a", "b"}, [2]string{"c", "d"}), true)
	require.NoError(t, err)
	rec, err = f.stores.Ratings.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Games)
}

func TestProcessTeamCountDoesNotCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	participants := []domain.Participant{participant("a", 100, true), participant("b", 100, true)}
	_, err := f.matches.ProcessParticipants(ctx, "solo", participants, false)
	require.ErrorIs(t, err, rating.ErrTeamCount)

	_, err = f.stores.Ratings.Load(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	game, err := f.stores.Games.Get(ctx, "solo")
	require.NoError(t, err)
	assert.Nil(t, game.ProcessedAt)
}

func TestProcessPendingInStartOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	games := []*domain.Game{
		{GameID: "late", Source: domain.SourceImport, StartedAt: base.Add(time.Hour), Participants: twoVsTwo([2]string{"c", "d"}, [2]string{"a", "b"})},
		{GameID: "early", Source: domain.SourceImport, StartedAt: base, Participants: twoVsTwo([2]string{"a", "b"}, [2]string{"c", "d"})},
		{GameID: "broken", Source: domain.SourceImport, StartedAt: base.Add(30 * time.Minute), Participants: []domain.Participant{participant("a", 100, true)}},
	}
	for _, g := range games {
		require.NoError(t, f.stores.Games.Save(ctx, g))
	}

	items, err := f.matches.ProcessPending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "early", items[0].GameID)
	assert.NoError(t, items[0].Err)
	assert.Equal(t, "broken", items[1].GameID)
	assert.ErrorIs(t, items[1].Err, rating.ErrTeamCount)
	assert.NotEmpty(t, items[1].Error)
	assert.Equal(t, "late", items[2].GameID)
	assert.NoError(t, items[2].Err)

	// "a" won first, so their second game starts above base.
	assert.Greater(t, items[2].Results[2].OldRating, 1000)

	rec, err := f.stores.Ratings.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Games)
	assert.Equal(t, "1:1", rec.WinLoss)
	require.Len(t, rec.RatingHistory, 2)
	assert.Equal(t, "late", rec.RatingHistory[1].GameID)

	stats, err := f.players.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Players)
	assert.Equal(t, 2, stats.ProcessedGames)
	assert.Equal(t, 1, stats.PendingGames)
	assert.Equal(t, 8, stats.TotalGamesPlayed)
}

func TestProcessBatchContinuesOnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.stores.Games.Save(ctx, &domain.Game{
		GameID: "ok", Source: domain.SourceImport, Participants: twoVsTwo([2]string{"a", "b"}, [2]string{"c", "d"}),
	}))

	items := f.matches.ProcessBatch(ctx, []string{"missing", "ok"}, false)

	require.Len(t, items, 2)
	assert.ErrorIs(t, items[0].Err, repository.ErrNotFound)
	assert.NoError(t, items[1].Err)
	assert.Len(t, items[1].Results, 4)
}

func TestCompareDoesNotPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.matches.Compare(ctx, "x", twoVsTwo([2]string{"a", "b"}, [2]string{"c", "d"}))
	require.NoError(t, err)
	for _, r := range out.Results {
		assert.Len(t, r.Methods, len(config.AllMethods))
	}

	_, err = f.stores.Ratings.Load(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, f.cfg.Rating.CalculationMethods.Hybrid.Enabled)

	_, err = f.matches.Compare(ctx, "missing", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := gamefile.Write(f.cfg.GamesDir, "1", twoVsTwo([2]string{"a", "b"}, [2]string{"c", "d"}))
	require.NoError(t, err)
	_, err = gamefile.Write(f.cfg.GamesDir, "2", nil)
	require.NoError(t, err)

	summary, err := f.matches.Import(ctx, f.cfg.GamesDir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, []string{"2"}, summary.Failed)

	game, err := f.stores.Games.Get(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, game.Participants, 4)
	assert.Equal(t, domain.SourceImport, game.Source)
}

func seedPlayers(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	players := []*domain.RatingRecord{
		{Name: "ace", Rating: 1300, Games: 6, TotalWins: 3, TotalLosses: 3, AvgKills: 4, WinLoss: "3:3"},
		{Name: "bolt", Rating: 1200, Games: 10, TotalWins: 9, TotalLosses: 1, AvgKills: 2, WinLoss: "9:1"},
		{Name: "cinder", Rating: 1100, Games: 3, TotalWins: 3, TotalLosses: 0, AvgKills: 9, WinLoss: "3:0"},
		{Name: "dusk", Rating: 1500, Games: 1, TotalWins: 1, AvgKills: 20, WinLoss: "1:0"},
	}
	for _, p := range players {
		p.CreatedAt, p.UpdatedAt = now, now
	}
	require.NoError(t, f.stores.Ratings.SaveAll(ctx, players))
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)
	seedPlayers(t, f)

	lb, err := f.players.Leaderboard(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, lb.Players, 3)
	assert.Equal(t, "ace", lb.Players[0].Name)
	assert.Equal(t, 1, lb.Players[0].Rank)
	assert.Equal(t, 3, lb.Summary.TotalPlayers)
	assert.Equal(t, 1200, lb.Summary.AverageRating)
	assert.Equal(t, 19, lb.Summary.TotalGames)
	assert.Equal(t, "ace", lb.Summary.HighestRating.Name)
	assert.Equal(t, "bolt", lb.Summary.MostGames.Name)
	assert.Equal(t, "bolt", lb.Summary.BestWinRate.Name)

	empty, err := f.players.Leaderboard(context.Background(), 100)
	require.NoError(t, err)
	assert.Empty(t, empty.Players)
	assert.Nil(t, empty.Summary.HighestRating)
}

func TestTop(t *testing.T) {
	f := newFixture(t)
	seedPlayers(t, f)
	ctx := context.Background()

	tests := []struct {
		category string
		expected []string
	}{
		{CategoryElo, []string{"ace", "bolt", "cinder"}},
		{CategoryGames, []string{"bolt", "ace", "cinder"}},
		{CategoryWinRate, []string{"bolt", "ace"}},
		{"KILLS", []string{"cinder", "ace", "bolt"}},
	}

	for _, test := range tests {
		t.Run(test.category, func(t *testing.T) {
			entries, err := f.players.Top(ctx, test.category, 0)
			require.NoError(t, err)

			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Name
			}
			assert.Equal(t, test.expected, names)
		})
	}

	entries, err := f.players.Top(ctx, CategoryElo, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = f.players.Top(ctx, "deaths", 5)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestPlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := f.matches.ProcessParticipants(ctx, fmt.Sprintf("g%d", i), twoVsTwo([2]string{"a", "b"}, [2]string{"c", "d"}), false)
		require.NoError(t, err)
	}

	d, err := f.players.Player(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 7, d.Games)
	assert.Equal(t, 1.0, d.WinRate)
	assert.Equal(t, 2.0, d.KDA)
	require.Len(t, d.Recent, 5)
	assert.Equal(t, "g6", d.Recent[0].GameID, "most recent first")

	_, err = f.players.Player(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

type fakeRiot struct {
	mu      sync.Mutex
	matches map[string]*api.MatchResponse
	fetched []string
}

func (f *fakeRiot) Enabled() bool { return true }

func (f *fakeRiot) GetRateLimitInfo() api.RateLimitInfo {
	return api.RateLimitInfo{AppLimit: "20:1,100:120", AppCount: "3:1,3:120"}
}

func (f *fakeRiot) GetAccountByRiotID(_ context.Context, gameName, _ string) (*api.AccountResponse, error) {
	return &api.AccountResponse{Puuid: "puuid-" + gameName}, nil
}

func (f *fakeRiot) GetMatchIDs(_ context.Context, _ string, count int) ([]string, error) {
	ids := []string{"OC1_3", "OC1_1", "OC1_2"}
	return ids[:min(count, len(ids))], nil
}

func (f *fakeRiot) GetMatch(_ context.Context, id string) (*api.MatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, id)
	m, ok := f.matches[id]
	if !ok {
		return nil, &api.APIError{Status: 404}
	}
	return m, nil
}

func riotMatch(id string, gameID int64, start time.Time) *api.MatchResponse {
	return &api.MatchResponse{
		Metadata: api.MatchMetadata{MatchID: id},
		Info: api.MatchInfo{
			GameID:             gameID,
			GameStartTimestamp: start.UnixMilli(),
			GameDuration:       1800,
			Participants:       twoVsTwo([2]string{"a", "b"}, [2]string{"c", "d"}),
		},
	}
}

func TestFetchByRiotID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	riot := &fakeRiot{matches: map[string]*api.MatchResponse{
		"OC1_1": riotMatch("OC1_1", 1, base),
		"OC1_2": riotMatch("OC1_2", 2, base.Add(time.Hour)),
		"OC1_3": riotMatch("OC1_3", 3, base.Add(2*time.Hour)),
	}}
	svc := newFetchService(riot, f.stores.Games, f.cfg, zerolog.Nop())

	res, err := svc.FetchByRiotID(ctx, "a", "OCE", 0)
	require.NoError(t, err)
	assert.Equal(t, "puuid-a", res.Puuid)
	require.Len(t, res.Games, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{res.Games[0].GameID, res.Games[1].GameID, res.Games[2].GameID})
	assert.ElementsMatch(t, []string{"OC1_1", "OC1_2", "OC1_3"}, riot.fetched)

	pending, err := f.stores.Games.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	ids, err := gamefile.List(f.cfg.GamesDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	limit := svc.RateLimit()
	require.NotNil(t, limit)
	assert.Equal(t, "20:1,100:120", limit.AppLimit)
}

func TestFetchFailsOnMissingMatch(t *testing.T) {
	f := newFixture(t)
	riot := &fakeRiot{matches: map[string]*api.MatchResponse{}}
	svc := newFetchService(riot, f.stores.Games, f.cfg, zerolog.Nop())

	_, err := svc.FetchByRiotID(context.Background(), "a", "OCE", 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchDisabled(t *testing.T) {
	f := newFixture(t)
	client := api.NewRiotClient(&config.Config{}, zerolog.Nop())
	svc := NewFetchService(client, f.stores.Games, f.cfg, zerolog.Nop())

	_, err := svc.FetchByRiotID(context.Background(), "a", "b", 1)
	assert.ErrorIs(t, err, api.ErrRiotDisabled)
	assert.Nil(t, svc.RateLimit())
}
