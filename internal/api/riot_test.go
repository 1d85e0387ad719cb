package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-elo/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *RiotClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := newRiotClient("test-key", srv.URL, srv.URL, zerolog.Nop())
	c.retryDelay = 10 * time.Millisecond
	return c
}

func TestGetAccountByRiotID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Riot-Token"))
		assert.Equal(t, "/riot/account/v1/accounts/by-riot-id/Hide on bush/KR1", r.URL.Path)

		w.Header().Set("X-App-Rate-Limit", "20:1,100:120")
		w.Header().Set("X-App-Rate-Limit-Count", "1:1,1:120")
		w.Write([]byte(`{"puuid":"abc","gameName":"Hide on bush","tagLine":"KR1"}`))
	}))

	acc, err := c.GetAccountByRiotID(context.Background(), "Hide on bush", "KR1")
	require.NoError(t, err)
	assert.Equal(t, "abc", acc.Puuid)

	rl := c.GetRateLimitInfo()
	assert.Equal(t, "20:1,100:120", rl.AppLimit)
	assert.Equal(t, "1:1,1:120", rl.AppCount)
}

func TestGetMatchIDsAndMatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lol/match/v5/matches/by-puuid/abc/ids", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		w.Write([]byte(`["OC1_1","OC1_2"]`))
	})
	mux.HandleFunc("/lol/match/v5/matches/OC1_1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"metadata": {"matchId": "OC1_1"},
			"info": {
				"gameId": 1,
				"gameMode": "CLASSIC",
				"gameDuration": 1800,
				"gameStartTimestamp": 1700000000000,
				"participants": [
					{"riotIdGameName": "a", "teamId": 100, "win": true, "kills": 7, "challenges": {"soloKills": 2}},
					{"riotIdGameName": "b", "teamId": 200, "win": false}
				]
			}
		}`))
	})
	c := newTestClient(t, mux)

	ids, err := c.GetMatchIDs(context.Background(), "abc", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"OC1_1", "OC1_2"}, ids)

	m, err := c.GetMatch(context.Background(), "OC1_1")
	require.NoError(t, err)

	g := m.Game()
	assert.Equal(t, "1", g.GameID)
	assert.Equal(t, "OC1_1", g.MatchID)
	assert.Equal(t, domain.SourceRiot, g.Source)
	assert.Equal(t, int64(1800), g.DurationSeconds)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), g.StartedAt)
	require.Len(t, g.Participants, 2)
	assert.Equal(t, 7, g.Participants[0].Kills)
	assert.Equal(t, 2.0, g.Participants[0].Challenge().SoloKills)
}

func TestRateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"puuid":"abc"}`))
	}))

	acc, err := c.GetAccountByRiotID(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "abc", acc.Puuid)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRateLimitExhausted(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.GetAccountByRiotID(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestAPIErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))

	_, err := c.GetMatch(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestDisabledClient(t *testing.T) {
	c := newRiotClient("", "http://127.0.0.1:1", "http://127.0.0.1:1", zerolog.Nop())

	assert.False(t, c.Enabled())
	_, err := c.GetMatch(context.Background(), "x")
	assert.ErrorIs(t, err, ErrRiotDisabled)
}

func TestMatchGameIDFallback(t *testing.T) {
	m := &MatchResponse{Metadata: MatchMetadata{MatchID: "OC1_9"}}
	assert.Equal(t, "OC1_9", m.GameID())

	assert.Equal(t, "unknown_game", (&MatchResponse{}).GameID())
}
