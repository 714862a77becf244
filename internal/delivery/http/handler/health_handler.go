package handler

import (
	"context"
	"time"

	"jobmatch/internal/database"
	"jobmatch/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type HealthHandler struct {
	db database.DB
}

func NewHealthHandler(db database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(c fiber.Ctx) error {
	status := "ok"
	dbStatus := "up"

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status = "degraded"
			dbStatus = "down"
		}
	}

	return response.Success(c, fiber.StatusOK, "health check", fiber.Map{
		"status":   status,
		"database": dbStatus,
	})
}
