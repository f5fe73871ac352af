package gametest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

func (h *handlers) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Post("/games", h.createGame)
	r.Post("/games/by-code/{code}", h.findByCode)

	r.Route("/games/{gameID}", func(r chi.Router) {
		r.Delete("/", h.deleteGame)
		r.Get("/state", h.state)
		r.Post("/join", h.join)

		r.Post("/start", mutate(h, func(g *game, req types.PlayerActionRequest) error { return g.start(req.PlayerID) }))
		r.Post("/reveal", mutate(h, func(g *game, req types.PlayerActionRequest) error { return g.reveal(req.PlayerID) }))
		r.Post("/ai", mutate(h, func(g *game, req types.AddAIRequest) error { return g.addAI(req.PlayerID, req.AIName) }))
		r.Post("/players/remove", mutate(h, func(g *game, req types.TargetRequest) error {
			return g.removePlayer(req.PlayerID, req.TargetPlayerID)
		}))

		r.Post("/night/advance", mutate(h, func(g *game, req types.PlayerActionRequest) error { return g.advanceNight(req.PlayerID) }))
		r.Post("/night/resolve", mutate(h, func(g *game, req types.PlayerActionRequest) error { return g.advanceNight(req.PlayerID) }))
		r.Post("/night/wolf", mutate(h, func(g *game, req types.TargetRequest) error {
			return g.submitWolf(req.PlayerID, req.TargetPlayerID)
		}))
		r.Post("/night/detect", mutate(h, func(g *game, req types.TargetRequest) error {
			return g.submitDetective(req.PlayerID, req.TargetPlayerID)
		}))

		r.Post("/turns/next", mutate(h, func(g *game, req types.PlayerActionRequest) error { return g.advanceTurn(req.PlayerID) }))
		r.Post("/turns/speech", h.speech)
		r.Post("/round/finish", mutate(h, func(g *game, req types.PlayerActionRequest) error { return g.finishRound(req.PlayerID) }))

		r.Post("/vote", mutate(h, func(g *game, req types.VoteRequest) error { return g.vote(req.PlayerID, req.TargetPlayerID) }))
		r.Post("/vote/ai", mutate(h, func(g *game, req types.PlayerActionRequest) error { return g.aiVotes(req.PlayerID) }))
		r.Post("/vote/apply", mutate(h, func(g *game, req types.TargetRequest) error {
			return g.applyVotes(req.PlayerID, req.TargetPlayerID)
		}))

		r.Post("/chat", mutate(h, func(g *game, req types.ChatRequest) error { return g.postChat(req.PlayerID, req.Text) }))
		r.Get("/debug", h.debugGet)
		r.Post("/debug", h.debugSet)

		r.Get("/players/{playerID}", h.assignment)
		r.Post("/players/{playerID}/audio", h.upload)
		r.Get("/players/{playerID}/audio/archive", h.archive)
		r.Get("/audio/{clipID}", h.fetchAudio)
	})
	return r
}
