package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-elo/internal/api"
	"league-elo/internal/config"
	"league-elo/internal/constants"
	"league-elo/internal/domain"
	"league-elo/internal/ledger"
	"league-elo/internal/rating"
	"league-elo/internal/repository"
	"league-elo/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	cfg := &config.Config{Rating: config.DefaultRating()}

	stores, err := repository.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "elo.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	matches := service.NewMatchService(rating.NewEngine(logger), ledger.New(stores.Ratings, cfg, logger), stores.Games, cfg, logger)
	fetcher := service.NewFetchService(api.NewRiotClient(cfg, logger), stores.Games, cfg, logger)
	players := service.NewPlayerService(stores.Ratings, stores.Games, logger)

	ts := httptest.NewServer(NewRouter(matches, fetcher, players, logger))
	t.Cleanup(ts.Close)
	return ts
}

func participants() []domain.Participant {
	p := func(name string, team int, win bool) domain.Participant {
		return domain.Participant{
			RiotIDGameName:     name,
			TeamID:             team,
			Win:                win,
			IndividualPosition: "TOP",
			Kills:              3,
			Deaths:             3,
			Assists:            3,
			TimePlayed:         1500,
		}
	}
	return []domain.Participant{p("a", 100, true), p("b", 200, false)}
}

func oversized() []domain.Participant {
	p := participants()
	p[0].RiotIDGameName = strings.Repeat("x", constants.MaxRequestBodyBytes)
	return p
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestProcessGameEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/games/g1", participants())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res service.ProcessResult
	decode(t, resp, &res)
	assert.Equal(t, "g1", res.GameID)
	assert.Equal(t, config.MethodTraditional, res.Method)
	require.Len(t, res.Results, 2)
	assert.Positive(t, res.Results[0].Delta)
	assert.Negative(t, res.Results[1].Delta)

	resp = post(t, ts.URL+"/api/games/g1", participants())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = post(t, ts.URL+"/api/games/g1?force=true", participants())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, ts.URL+"/api/players/a")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail service.PlayerDetail
	decode(t, resp, &detail)
	assert.Equal(t, 2, detail.Games)
	assert.Len(t, detail.Recent, 2)
}

func TestProcessGameErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{name: "unknown stored game", path: "/api/games/missing", status: http.StatusNotFound},
		{name: "single team", path: "/api/games/solo", body: participants()[:1], status: http.StatusUnprocessableEntity},
		{name: "malformed body", path: "/api/games/bad", body: "nope", status: http.StatusBadRequest},
		{name: "oversized body", path: "/api/games/big", body: oversized(), status: http.StatusRequestEntityTooLarge},
		{name: "oversized compare body", path: "/api/games/big/compare", body: oversized(), status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var e errorResponse
			decode(t, resp, &e)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestCompareEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/games/g1/compare", participants())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome rating.Outcome
	decode(t, resp, &outcome)
	require.Len(t, outcome.Results, 2)
	assert.Len(t, outcome.Results[0].Methods, len(config.AllMethods))

	resp = get(t, ts.URL+"/api/players/a")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardAndStats(t *testing.T) {
	ts := newTestServer(t)

	for _, id := range []string{"g1", "g2"} {
		resp := post(t, ts.URL+"/api/games/"+id, participants())
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := get(t, ts.URL+"/api/leaderboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lb service.Leaderboard
	decode(t, resp, &lb)
	require.Len(t, lb.Players, 2)
	assert.Equal(t, "a", lb.Players[0].Name)

	resp = get(t, ts.URL+"/api/leaderboard?category=games&limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var top []service.LeaderboardEntry
	decode(t, resp, &top)
	assert.Len(t, top, 1)

	resp = get(t, ts.URL+"/api/leaderboard?category=assists")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = get(t, ts.URL+"/api/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		service.Stats
		RiotRateLimit *api.RateLimitInfo `json:"riotRateLimit"`
	}
	decode(t, resp, &stats)
	assert.Equal(t, 2, stats.Players)
	assert.Equal(t, 2, stats.ProcessedGames)
	assert.Equal(t, 4, stats.TotalGamesPlayed)
	assert.Nil(t, stats.RiotRateLimit, "riot is disabled in tests")
}

func TestProcessPendingEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/games/process", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batch batchResponse
	decode(t, resp, &batch)
	assert.Zero(t, batch.Processed)
	assert.Zero(t, batch.Failed)
}

func TestFetchDisabled(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/fetch/Faker/KR1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
