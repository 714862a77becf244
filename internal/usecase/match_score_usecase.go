package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"jobmatch/internal/domain/matching"
	"jobmatch/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrProfileEmbeddingMissing = errors.New("profile embedding missing")
)

// Notifier is invoked after a batch writes at least one score.
type Notifier func(profileID uuid.UUID, scoresComputed int)

// MatchScoreUsecase owns all writes to the match score store. A batch
// scores one profile against every posting; job failures inside a batch are
// counted and skipped, never fatal.
type MatchScoreUsecase interface {
	ComputeMatchScoresForProfile(ctx context.Context, profileID uuid.UUID) (int, error)
	RefreshScoresForUser(ctx context.Context, userID uuid.UUID) (int, error)
	UpdateProfileEmbedding(ctx context.Context, profileID uuid.UUID) (matching.Vector, error)
}

type MatchScore struct {
	profiles   repository.ProfileRepository
	jobs       repository.JobRepository
	matches    repository.MatchRepository
	embeddings EmbeddingUsecase
	cache      MatchCache
	notify     Notifier

	workers      int
	batchTimeout time.Duration

	group  singleflight.Group
	logger *log.Logger
	now    func() time.Time
}

func NewMatchScoreUsecase(
	profiles repository.ProfileRepository,
	jobs repository.JobRepository,
	matches repository.MatchRepository,
	embeddings EmbeddingUsecase,
	cache MatchCache,
	notify Notifier,
	workers int,
	batchTimeout time.Duration,
	logger *log.Logger,
) *MatchScore {
	if workers <= 0 {
		workers = 8
	}
	return &MatchScore{
		profiles:     profiles,
		jobs:         jobs,
		matches:      matches,
		embeddings:   embeddings,
		cache:        cache,
		notify:       notify,
		workers:      workers,
		batchTimeout: batchTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// ComputeMatchScoresForProfile runs one scoring batch for the profile and
// returns the number of scores written. Concurrent triggers for the same
// profile coalesce into the in-flight run; different profiles run
// independently.
func (u *MatchScore) ComputeMatchScoresForProfile(ctx context.Context, profileID uuid.UUID) (int, error) {
	if profileID == uuid.Nil {
		return 0, repository.ErrProfileNotFound
	}

	v, err, _ := u.group.Do(profileID.String(), func() (any, error) {
		return u.runBatch(ctx, profileID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// RefreshScoresForUser resolves the user's active profile, brings its
// embedding up to date, then runs a scoring batch for it.
func (u *MatchScore) RefreshScoresForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, ErrUnauthorized
	}

	p, err := u.profiles.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveProfile) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if _, err := u.embeddings.EnsureProfileEmbedding(ctx, p.ID); err != nil {
		return 0, err
	}

	return u.ComputeMatchScoresForProfile(ctx, p.ID)
}

func (u *MatchScore) UpdateProfileEmbedding(ctx context.Context, profileID uuid.UUID) (matching.Vector, error) {
	return u.embeddings.EnsureProfileEmbedding(ctx, profileID)
}

func (u *MatchScore) runBatch(ctx context.Context, profileID uuid.UUID) (int, error) {
	if u.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.batchTimeout)
		defer cancel()
	}

	if err := u.acquireLock(ctx, profileID); err != nil {
		return 0, err
	}
	defer u.releaseLock(profileID)

	p, err := u.profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if !p.HasEmbedding() {
		// Nothing to score against; fatal for the whole batch.
		return 0, ErrProfileEmbeddingMissing
	}

	jobs, err := u.jobs.ListForScoring(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	profileVec := matching.Vector(p.Embedding)
	computedAt := u.now().UTC()

	var computed, skipped atomic.Int64

	// Each job writes a disjoint (profile, job) key, so job-level scoring
	// parallelizes freely within the per-profile exclusion.
	g := new(errgroup.Group)
	g.SetLimit(u.workers)

	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		if !j.HasEmbedding() {
			// No data is not a zero score.
			skipped.Add(1)
			continue
		}

		j := j
		g.Go(func() error {
			score, err := matching.Cosine(profileVec, matching.Vector(j.Embedding))
			if err != nil {
				skipped.Add(1)
				if u.logger != nil {
					u.logger.Printf("[Scoring] skipped job | profile_id=%s job_id=%s err=%v", p.ID, j.ID, err)
				}
				return nil
			}

			err = u.matches.Upsert(ctx, repository.ScoreUpsert{
				ProfileID:  p.ID,
				JobID:      j.ID,
				Score:      score,
				ComputedAt: computedAt,
			})
			if err != nil {
				skipped.Add(1)
				if u.logger != nil {
					u.logger.Printf("[Scoring] upsert failed | profile_id=%s job_id=%s err=%v", p.ID, j.ID, err)
				}
				return nil
			}

			computed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	n := int(computed.Load())
	if s := skipped.Load(); s > 0 && u.logger != nil {
		u.logger.Printf("[Scoring] partial batch | profile_id=%s computed=%d skipped=%d", p.ID, n, s)
	}
	if ctx.Err() != nil && u.logger != nil {
		// Partially written scores stay valid; report what landed.
		u.logger.Printf("[Scoring] batch cut short | profile_id=%s computed=%d err=%v", p.ID, n, ctx.Err())
	}

	if n > 0 {
		if u.cache != nil {
			_ = u.cache.Delete(context.WithoutCancel(ctx), matchesCacheKey(p.ID))
		}
		if u.notify != nil {
			u.notify(p.ID, n)
		}
	}

	return n, nil
}

// acquireLock extends the per-profile exclusion across instances. The lock
// waits rather than failing so a second trigger still observes a full run.
func (u *MatchScore) acquireLock(ctx context.Context, profileID uuid.UUID) error {
	if u.cache == nil {
		return nil
	}
	ttl := u.batchTimeout
	if ttl <= 0 {
		ttl = time.Minute
	}
	for {
		ok, err := u.cache.SetIfNotExists(ctx, scoringLockKey(profileID), "1", ttl)
		if ok || err != nil {
			// Cache errors degrade to in-process exclusion only.
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrInternal, ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (u *MatchScore) releaseLock(profileID uuid.UUID) {
	if u.cache == nil {
		return
	}
	_ = u.cache.Delete(context.Background(), scoringLockKey(profileID))
}
