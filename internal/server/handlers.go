package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"league-elo/internal/api"
	"league-elo/internal/constants"
	"league-elo/internal/domain"
	"league-elo/internal/rating"
	"league-elo/internal/service"
)

// Handler serves the rating JSON API.
type Handler struct {
	matches *service.MatchService
	fetcher *service.FetchService
	players *service.PlayerService
	logger  zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type statsResponse struct {
	*service.Stats
	RiotRateLimit *api.RateLimitInfo `json:"riotRateLimit,omitempty"`
}

type batchResponse struct {
	Processed int                 `json:"processed"`
	Failed    int                 `json:"failed"`
	Games     []service.BatchItem `json:"games"`
}

// ProcessGame rates a game. With a participants body the game is stored first,
// otherwise the stored game is used.
func (h *Handler) ProcessGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	force := queryBool(r, "force")

	participants, err := decodeParticipants(w, r)
	if err != nil {
		h.writeError(w, r, bodyStatus(err), err)
		return
	}

	var res *service.ProcessResult
	if len(participants) > 0 {
		res, err = h.matches.ProcessParticipants(r.Context(), gameID, participants, force)
	} else {
		res, err = h.matches.ProcessGame(r.Context(), gameID, force)
	}
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	participants, err := decodeParticipants(w, r)
	if err != nil {
		h.writeError(w, r, bodyStatus(err), err)
		return
	}

	outcome, err := h.matches.Compare(r.Context(), gameID, participants)
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) ProcessPending(w http.ResponseWriter, r *http.Request) {
	items, err := h.matches.ProcessPending(r.Context())
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}

	resp := batchResponse{Games: items}
	for _, it := range items {
		if it.Err != nil {
			resp.Failed++
		} else {
			resp.Processed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Player(w http.ResponseWriter, r *http.Request) {
	detail, err := h.players.Player(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Leaderboard returns the full leaderboard, or the top players of a category
// when ?category= is given.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if category := r.URL.Query().Get("category"); category != "" {
		entries, err := h.players.Top(r.Context(), category, queryInt(r, "limit", constants.DefaultTopLimit))
		if err != nil {
			h.writeError(w, r, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	lb, err := h.players.Leaderboard(r.Context(), queryInt(r, "minGames", constants.DefaultLeaderboardMinGames))
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.players.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats, RiotRateLimit: h.fetcher.RateLimit()})
}

func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	res, err := h.fetcher.FetchByRiotID(
		r.Context(),
		chi.URLParam(r, "gameName"),
		chi.URLParam(r, "tagLine"),
		queryInt(r, "count", constants.RiotDefaultCount),
	)
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeParticipants(w http.ResponseWriter, r *http.Request) ([]domain.Participant, error) {
	body := http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes)
	var participants []domain.Participant
	if err := json.NewDecoder(body).Decode(&participants); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return participants, nil
}

func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyProcessed):
		return http.StatusConflict
	case errors.Is(err, rating.ErrTeamCount),
		errors.Is(err, domain.ErrNoParticipants),
		errors.Is(err, service.ErrUnknownCategory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, api.ErrRiotDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, api.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := zerolog.Ctx(r.Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = &h.logger
	}

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}
