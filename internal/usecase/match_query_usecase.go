package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jobmatch/internal/domain/job"
	"jobmatch/internal/repository"

	"github.com/google/uuid"
)

// MatchedJob is one entry of the ranked listing. JSON tags double as the
// cache representation.
type MatchedJob struct {
	JobID      uuid.UUID  `json:"job_id"`
	Title      string     `json:"title"`
	Company    string     `json:"company"`
	Location   string     `json:"location"`
	Link       string     `json:"link"`
	MatchScore float64    `json:"match_score"`
	ComputedAt *time.Time `json:"computed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// MatchQueryUsecase is the read side of matching: it never writes scores
// and never triggers embedding generation.
type MatchQueryUsecase interface {
	GetMatchedJobsForUser(ctx context.Context, userID uuid.UUID) ([]MatchedJob, error)
	GetJobScoreForUser(ctx context.Context, userID, jobID uuid.UUID) (float64, bool, error)
	ListJobs(ctx context.Context, limit, offset int) ([]job.Job, error)
}

type MatchQuery struct {
	profiles repository.ProfileRepository
	jobs     repository.JobRepository
	matches  repository.MatchRepository
	cache    MatchCache
	cacheTTL time.Duration
	logger   *log.Logger
}

func NewMatchQueryUsecase(
	profiles repository.ProfileRepository,
	jobs repository.JobRepository,
	matches repository.MatchRepository,
	cache MatchCache,
	cacheTTL time.Duration,
	logger *log.Logger,
) *MatchQuery {
	return &MatchQuery{
		profiles: profiles,
		jobs:     jobs,
		matches:  matches,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetMatchedJobsForUser returns every posting for the user's active
// profile, scored ones first. Postings with no computed score appear with
// score 0 so callers see the full set regardless of scoring completeness.
func (u *MatchQuery) GetMatchedJobsForUser(ctx context.Context, userID uuid.UUID) ([]MatchedJob, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	p, err := u.profiles.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveProfile) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	key := matchesCacheKey(p.ID)
	if u.cache != nil {
		var cached []MatchedJob
		if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	rows, err := u.matches.ListRankedForProfile(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	out := make([]MatchedJob, 0, len(rows))
	for _, r := range rows {
		out = append(out, MatchedJob{
			JobID:      r.JobID,
			Title:      r.Title,
			Company:    r.Company,
			Location:   r.Location,
			Link:       r.Link,
			MatchScore: r.Score,
			ComputedAt: r.ComputedAt,
			CreatedAt:  r.CreatedAt,
		})
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, out, u.cacheTTL); err != nil && u.logger != nil {
			u.logger.Printf("[MatchQuery] cache write failed | key=%s err=%v", key, err)
		}
	}

	return out, nil
}

// GetJobScoreForUser returns the cached score for one posting, reporting
// whether a score has been computed at all.
func (u *MatchQuery) GetJobScoreForUser(ctx context.Context, userID, jobID uuid.UUID) (float64, bool, error) {
	if userID == uuid.Nil {
		return 0, false, ErrUnauthorized
	}
	if jobID == uuid.Nil {
		return 0, false, repository.ErrJobNotFound
	}

	exists, err := u.jobs.ExistsByID(ctx, jobID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if !exists {
		return 0, false, repository.ErrJobNotFound
	}

	p, err := u.profiles.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveProfile) {
			return 0, false, err
		}
		return 0, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	score, found, err := u.matches.GetScore(ctx, p.ID, jobID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return score, found, nil
}

// ListJobs is the unauthenticated recent-postings listing; scores are not
// resolved here.
func (u *MatchQuery) ListJobs(ctx context.Context, limit, offset int) ([]job.Job, error) {
	jobs, err := u.jobs.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return jobs, nil
}
