package handler

import (
	"errors"

	"jobmatch/internal/delivery/http/dto"
	"jobmatch/internal/delivery/http/middleware"
	"jobmatch/internal/pkg/response"
	"jobmatch/internal/repository"
	"jobmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchHandler struct {
	queries usecase.MatchQueryUsecase
	scores  usecase.MatchScoreUsecase
}

func NewMatchHandler(queries usecase.MatchQueryUsecase, scores usecase.MatchScoreUsecase) *MatchHandler {
	return &MatchHandler{queries: queries, scores: scores}
}

// GetMatched returns every posting ranked for the caller's active profile.
// A user without an active profile gets an empty listing, not an error.
func (h *MatchHandler) GetMatched(c fiber.Ctx) error {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return err
	}

	jobs, err := h.queries.GetMatchedJobsForUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveProfile) {
			return response.Success(c, fiber.StatusOK, "no active profile", dto.MatchedJobListResponse{
				Jobs: []dto.MatchedJobResponse{},
			})
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, "Failed to get matched jobs", nil, err)
	}

	return response.Success(c, fiber.StatusOK, "matched jobs retrieved", dto.FromMatchedJobs(jobs))
}

// RefreshScores runs a scoring batch for the caller's active profile and
// reports how many scores the batch wrote.
func (h *MatchHandler) RefreshScores(c fiber.Ctx) error {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return err
	}

	n, err := h.scores.RefreshScoresForUser(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoActiveProfile):
			return response.Success(c, fiber.StatusOK, "no active profile", dto.RefreshScoresResponse{})
		case errors.Is(err, usecase.ErrProfileEmbeddingMissing), errors.Is(err, usecase.ErrEmbeddingGeneration):
			return middleware.NewAppError(fiber.StatusBadGateway, "Embedding generation failed", nil, err)
		case errors.Is(err, repository.ErrProfileNotFound):
			return middleware.NewAppError(fiber.StatusNotFound, "Profile not found", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, "Failed to refresh scores", nil, err)
	}

	return response.Success(c, fiber.StatusOK, "scores refreshed", dto.RefreshScoresResponse{ScoresComputed: n})
}

// GetJobScore returns the caller's score for one posting; an uncomputed
// score reads as 0.
func (h *MatchHandler) GetJobScore(c fiber.Ctx) error {
	userID, err := userIDFromCtx(c)
	if err != nil {
		return err
	}

	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	score, found, err := h.queries.GetJobScoreForUser(c.Context(), userID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			return middleware.NewAppError(fiber.StatusNotFound, "Job not found", nil, err)
		case errors.Is(err, repository.ErrNoActiveProfile):
			return response.Success(c, fiber.StatusOK, "no active profile", dto.JobScoreResponse{JobID: jobID})
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, "Failed to get job score", nil, err)
	}

	return response.Success(c, fiber.StatusOK, "job score retrieved", dto.JobScoreResponse{
		JobID:      jobID,
		MatchScore: score,
		Computed:   found,
	})
}

func userIDFromCtx(c fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return userID, nil
}
