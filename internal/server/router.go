package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"league-elo/internal/middleware"
	"league-elo/internal/service"
)

func NewRouter(
	matchSvc *service.MatchService,
	fetchSvc *service.FetchService,
	playerSvc *service.PlayerService,
	logger zerolog.Logger,
) http.Handler {
	h := &Handler{matches: matchSvc, fetcher: fetchSvc, players: playerSvc, logger: logger}

	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/games", func(r chi.Router) {
			r.Post("/process", h.ProcessPending)
			r.Post("/{gameID}", h.ProcessGame)
			r.Post("/{gameID}/compare", h.Compare)
		})

		r.Get("/players/{name}", h.Player)
		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/stats", h.Stats)

		r.Post("/fetch/{gameName}/{tagLine}", h.Fetch)
	})

	return r
}
