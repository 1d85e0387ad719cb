package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"league-elo/internal/config"
	"league-elo/internal/constants"
	"league-elo/internal/domain"
)

var (
	ErrRiotDisabled = errors.New("riot api key not configured")
	ErrRateLimited  = errors.New("riot api rate limit exceeded")
)

// APIError is a non-success response from the Riot API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("riot api error: %d: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	if e.Status == fasthttp.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

type RiotClient struct {
	apiKey     string
	accountURL string
	matchURL   string
	client     *fasthttp.Client
	logger     zerolog.Logger
	retryDelay time.Duration

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	AppLimit    string `json:"app_limit"`
	AppCount    string `json:"app_count"`
	MethodLimit string `json:"method_limit"`
	MethodCount string `json:"method_count"`

	// seconds to wait, from the last 429
	RetryAfter int `json:"retry_after"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewRiotClient(cfg *config.Config, logger zerolog.Logger) *RiotClient {
	return newRiotClient(
		cfg.RiotAPIKey,
		fmt.Sprintf("https://%s.api.riotgames.com", cfg.RiotAccountRegion),
		fmt.Sprintf("https://%s.api.riotgames.com", cfg.RiotRegion),
		logger,
	)
}

func newRiotClient(apiKey, accountURL, matchURL string, logger zerolog.Logger) *RiotClient {
	return &RiotClient{
		apiKey:     apiKey,
		accountURL: accountURL,
		matchURL:   matchURL,
		logger:     logger,
		retryDelay: constants.RiotDefaultRetry,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{UpdatedAt: time.Now()},
	}
}

func (c *RiotClient) Enabled() bool {
	return c.apiKey != ""
}

func (c *RiotClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *RiotClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if v := string(resp.Header.Peek("X-App-Rate-Limit")); v != "" {
		c.rateLimit.AppLimit = v
	}
	if v := string(resp.Header.Peek("X-App-Rate-Limit-Count")); v != "" {
		c.rateLimit.AppCount = v
	}
	if v := string(resp.Header.Peek("X-Method-Rate-Limit")); v != "" {
		c.rateLimit.MethodLimit = v
	}
	if v := string(resp.Header.Peek("X-Method-Rate-Limit-Count")); v != "" {
		c.rateLimit.MethodCount = v
	}
	c.rateLimit.RetryAfter = retryAfter(resp)
	c.rateLimit.UpdatedAt = time.Now()
}

func (c *RiotClient) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*AccountResponse, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.accountURL, url.PathEscape(gameName), url.PathEscape(tagLine))
	return doRequest[AccountResponse](ctx, c, u)
}

func (c *RiotClient) GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d",
		c.matchURL, url.PathEscape(puuid), count)
	ids, err := doRequest[[]string](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (c *RiotClient) GetMatch(ctx context.Context, matchID string) (*MatchResponse, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.matchURL, url.PathEscape(matchID))
	return doRequest[MatchResponse](ctx, c, u)
}

// doRequest performs a GET and decodes the JSON body. A 429 is retried after
// the Retry-After delay until constants.RiotMaxAttempts is reached.
func doRequest[T any](ctx context.Context, client *RiotClient, url string) (*T, error) {
	if !client.Enabled() {
		return nil, ErrRiotDisabled
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", client.apiKey)

	for attempt := 1; ; attempt++ {
		resp.Reset()

		var err error
		if deadline, ok := ctx.Deadline(); ok {
			err = client.client.DoDeadline(req, resp, deadline)
		} else {
			err = client.client.DoTimeout(req, resp, constants.ExternalAPITimeout)
		}
		if err != nil {
			return nil, fmt.Errorf("riot request failed: %w", err)
		}

		client.updateRateLimit(resp)

		if resp.StatusCode() == fasthttp.StatusTooManyRequests {
			if attempt >= constants.RiotMaxAttempts {
				return nil, ErrRateLimited
			}
			wait := time.Duration(retryAfter(resp)) * time.Second
			if wait <= 0 {
				wait = client.retryDelay
			}
			client.logger.Warn().
				Str("url", url).
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("rate limited, waiting")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		if resp.StatusCode() != fasthttp.StatusOK {
			return nil, &APIError{Status: resp.StatusCode(), Body: string(resp.Body())}
		}

		var result T
		if err := json.Unmarshal(resp.Body(), &result); err != nil {
			return nil, fmt.Errorf("failed to decode riot response: %w", err)
		}
		return &result, nil
	}
}

func retryAfter(resp *fasthttp.Response) int {
	v := string(resp.Header.Peek("Retry-After"))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

type AccountResponse struct {
	Puuid    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type MatchResponse struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameID             int64                `json:"gameId"`
	GameMode           string               `json:"gameMode"`
	GameDuration       int64                `json:"gameDuration"`
	GameStartTimestamp int64                `json:"gameStartTimestamp"`
	Participants       []domain.Participant `json:"participants"`
}

// GameID is the numeric game id when present, else the match id.
func (m *MatchResponse) GameID() string {
	if m.Info.GameID != 0 {
		return strconv.FormatInt(m.Info.GameID, 10)
	}
	if m.Metadata.MatchID != "" {
		return m.Metadata.MatchID
	}
	return "unknown_game"
}

// Game converts the match into a stored game awaiting processing.
func (m *MatchResponse) Game() *domain.Game {
	return &domain.Game{
		GameID:          m.GameID(),
		MatchID:         m.Metadata.MatchID,
		Source:          domain.SourceRiot,
		GameMode:        m.Info.GameMode,
		StartedAt:       time.UnixMilli(m.Info.GameStartTimestamp).UTC(),
		DurationSeconds: m.Info.GameDuration,
		Participants:    m.Info.Participants,
	}
}
