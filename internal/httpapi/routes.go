package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rps-arena/internal/game"
	"github.com/DoyleJ11/rps-arena/internal/queue"
	"github.com/DoyleJ11/rps-arena/internal/solo"
)

type Deps struct {
	Queue       *queue.Service
	Games       *game.Service
	Solo        *solo.Registry
	Log         *zap.Logger
	CORSOrigins []string
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	// Public routes
	r.Get("/healthz", Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/elements", Elements)

		r.Post("/matchmaking/join", JoinQueue(d.Queue, log))
		r.Post("/matchmaking/leave", LeaveQueue(d.Queue, log))

		r.Post("/game/state", GameState(d.Games, log))
		r.Post("/game/choice", SubmitChoice(d.Games, log))
		r.Post("/game/next", NextRound(d.Games, log))
		r.Post("/game/forfeit", Forfeit(d.Games, log))

		r.Post("/play", PlayRound(d.Solo, log))
		r.Post("/reset", ResetSession(d.Solo, log))
	})
	return r
}
