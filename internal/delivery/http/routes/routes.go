package routes

import (
	"log"

	"jobmatch/internal/delivery/http/handler"
	"jobmatch/internal/delivery/http/middleware"
	"jobmatch/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	jobs   *handler.JobsHandler
	match  *handler.MatchHandler

	auth *middleware.AuthMiddleware
	hub  *ws.Hub

	logger *log.Logger
}

func NewRegistry(
	health *handler.HealthHandler,
	jobs *handler.JobsHandler,
	match *handler.MatchHandler,
	auth *middleware.AuthMiddleware,
	hub *ws.Hub,
	logger *log.Logger,
) *Registry {
	return &Registry{
		health: health,
		jobs:   jobs,
		match:  match,
		auth:   auth,
		hub:    hub,
		logger: logger,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	app.Get("/health", r.health.Check)

	api := app.Group("/api")
	r.registerV1(api.Group("/v1"))
}

func (r *Registry) registerV1(v1 fiber.Router) {
	// Public surface: browsing postings needs no identity.
	v1.Get("/jobs", r.jobs.List)

	if r.hub != nil {
		v1.Get("/ws/matches", ws.Handler(r.hub, r.logger))
	}

	authed := v1.Group("", r.auth.Middleware())
	authed.Get("/matched", r.match.GetMatched)
	authed.Post("/refresh-scores", r.match.RefreshScores)
	authed.Get("/jobs/:job_id/score", r.match.GetJobScore)
	authed.Post("/jobs/refresh-embeddings", r.jobs.RefreshEmbeddings)
}
