package handler

import (
	"strconv"

	"jobmatch/internal/delivery/http/dto"
	"jobmatch/internal/delivery/http/middleware"
	"jobmatch/internal/pkg/response"
	"jobmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

const (
	defaultJobsLimit = 20
	maxJobsLimit     = 100
)

type JobsHandler struct {
	queries    usecase.MatchQueryUsecase
	embeddings usecase.EmbeddingUsecase
}

func NewJobsHandler(queries usecase.MatchQueryUsecase, embeddings usecase.EmbeddingUsecase) *JobsHandler {
	return &JobsHandler{queries: queries, embeddings: embeddings}
}

// List serves the public recent-postings listing. No auth, no
// personalization: every entry carries match_score 0.
func (h *JobsHandler) List(c fiber.Ctx) error {
	limit := queryInt(c, "limit", defaultJobsLimit)
	if limit <= 0 || limit > maxJobsLimit {
		limit = defaultJobsLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	jobs, err := h.queries.ListJobs(c.Context(), limit, offset)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, "Failed to list jobs", nil, err)
	}

	return response.Success(c, fiber.StatusOK, "jobs retrieved", dto.FromJobs(jobs))
}

// RefreshEmbeddings re-embeds postings whose content changed since their
// vector was generated. Long-running but idempotent.
func (h *JobsHandler) RefreshEmbeddings(c fiber.Ctx) error {
	refreshed, err := h.embeddings.BackfillJobEmbeddings(c.Context())
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, "Failed to refresh job embeddings", nil, err)
	}

	return response.Success(c, fiber.StatusOK, "job embeddings refreshed", dto.RefreshEmbeddingsResponse{
		EmbeddingsRefreshed: refreshed,
	})
}

func queryInt(c fiber.Ctx, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
