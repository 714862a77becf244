package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"jobmatch/internal/config"
	"jobmatch/internal/delivery/http/handler"
	"jobmatch/internal/delivery/http/middleware"
	"jobmatch/internal/delivery/http/routes"
	"jobmatch/internal/embedding"
	"jobmatch/internal/pkg/token"
	"jobmatch/internal/repository"
	"jobmatch/internal/usecase"
	"jobmatch/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

// Bootstrap wires infrastructure, usecases and the HTTP surface. The
// returned cleanup stops the websocket hub and closes the pool.
func Bootstrap(cfg config.Config) (*App, func() error, error) {
	logger := log.Default()

	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	provider, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
		MaxRetries: cfg.Embedding.MaxRetries,
		RetryBase:  cfg.Embedding.RetryBase,
	}, logger)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	profiles := repository.NewPostgresProfileRepository(c.DB)
	jobs := repository.NewPostgresJobRepository(c.DB)
	matches := repository.NewPostgresMatchRepository(c.DB)

	hub := ws.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	embeddings := usecase.NewEmbeddingUsecase(profiles, jobs, provider, cfg.Embedding.Workers, logger)
	embeddings.SetRateLimit(cfg.Embedding.RPS)
	scores := usecase.NewMatchScoreUsecase(
		profiles, jobs, matches, embeddings, c.Cache,
		hub.NotifyScoresRefreshed,
		cfg.Scoring.Workers, cfg.Scoring.BatchTimeout, logger,
	)
	queries := usecase.NewMatchQueryUsecase(profiles, jobs, matches, c.Cache, cfg.Scoring.CacheTTL, logger)

	registry := routes.NewRegistry(
		handler.NewHealthHandler(c.DB),
		handler.NewJobsHandler(queries, embeddings),
		handler.NewMatchHandler(queries, scores),
		middleware.NewAuthMiddleware(token.NewHMACVerifier(cfg.Token.Secret)),
		hub,
		logger,
	)

	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})
	f.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	f.Use(middleware.NewErrorMiddleware(logger).Middleware())
	registry.Register(f)

	cleanup := func() error {
		stopHub()
		return c.Close()
	}
	return &App{Fiber: f}, cleanup, nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
