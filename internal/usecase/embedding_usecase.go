package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"jobmatch/internal/domain/matching"
	"jobmatch/internal/embedding"
	"jobmatch/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmbeddingGeneration = errors.New("embedding generation failed")
	ErrInternal            = errors.New("internal error")
)

// EmbeddingUsecase keeps stored embeddings in step with entity content.
// A vector is regenerated only when none is stored or the content hash no
// longer matches; unchanged content never reaches the provider again.
type EmbeddingUsecase interface {
	EnsureProfileEmbedding(ctx context.Context, profileID uuid.UUID) (matching.Vector, error)
	EnsureJobEmbedding(ctx context.Context, jobID uuid.UUID) (matching.Vector, error)
	BackfillJobEmbeddings(ctx context.Context) (int, error)
}

type Embedding struct {
	profiles repository.ProfileRepository
	jobs     repository.JobRepository
	provider embedding.Provider
	workers  int
	rps      int
	logger   *log.Logger
}

func NewEmbeddingUsecase(
	profiles repository.ProfileRepository,
	jobs repository.JobRepository,
	provider embedding.Provider,
	workers int,
	logger *log.Logger,
) *Embedding {
	if workers <= 0 {
		workers = 4
	}
	return &Embedding{
		profiles: profiles,
		jobs:     jobs,
		provider: provider,
		workers:  workers,
		logger:   logger,
	}
}

// SetRateLimit caps provider calls during backfill passes to rps per
// second; rps <= 0 leaves passes unthrottled.
func (u *Embedding) SetRateLimit(rps int) {
	u.rps = rps
}

func (u *Embedding) EnsureProfileEmbedding(ctx context.Context, profileID uuid.UUID) (matching.Vector, error) {
	if profileID == uuid.Nil {
		return nil, repository.ErrProfileNotFound
	}

	p, err := u.profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return u.ensure(ctx, p.EmbeddingText(), p.Embedding, p.ContentHash, func(vec matching.Vector, hash string) error {
		return u.profiles.SaveEmbedding(ctx, p.ID, vec, hash)
	})
}

func (u *Embedding) EnsureJobEmbedding(ctx context.Context, jobID uuid.UUID) (matching.Vector, error) {
	if jobID == uuid.Nil {
		return nil, repository.ErrJobNotFound
	}

	j, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return u.ensure(ctx, j.EmbeddingText(), j.Embedding, j.ContentHash, func(vec matching.Vector, hash string) error {
		return u.jobs.SaveEmbedding(ctx, j.ID, vec, hash)
	})
}

// BackfillJobEmbeddings regenerates missing or stale job embeddings with a
// fixed-size worker pool; the provider is rate limited, so the pass never
// fans out unbounded. Returns the number of embeddings refreshed.
func (u *Embedding) BackfillJobEmbeddings(ctx context.Context) (int, error) {
	jobs, err := u.jobs.ListForEmbedding(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	stale := jobs[:0]
	for _, j := range jobs {
		if !j.HasEmbedding() || j.ContentHash != ContentHash(j.EmbeddingText()) {
			stale = append(stale, j)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	pool := embedding.NewPool(u.workers, len(stale))
	if u.rps > 0 {
		pool.SetRateLimit(u.rps)
	}
	for _, j := range stale {
		j := j
		pool.Submit(func(taskCtx context.Context) error {
			_, err := u.ensure(taskCtx, j.EmbeddingText(), j.Embedding, j.ContentHash, func(vec matching.Vector, hash string) error {
				return u.jobs.SaveEmbedding(taskCtx, j.ID, vec, hash)
			})
			if err != nil && u.logger != nil {
				u.logger.Printf("[Embedding] backfill failed | job_id=%s err=%v", j.ID, err)
			}
			return err
		})
	}
	pool.Close()

	refreshed := 0
	for res := range pool.Run(ctx) {
		if res.Err == nil {
			refreshed++
		}
	}
	return refreshed, nil
}

func (u *Embedding) ensure(
	ctx context.Context,
	text string,
	current []float64,
	currentHash string,
	save func(matching.Vector, string) error,
) (matching.Vector, error) {
	hash := ContentHash(text)
	if len(current) > 0 && currentHash == hash {
		return matching.Vector(current), nil
	}

	vec, err := u.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingGeneration, err)
	}
	if len(vec) == 0 {
		// Never persist a partial or empty vector.
		return nil, fmt.Errorf("%w: provider returned empty vector", ErrEmbeddingGeneration)
	}

	if err := save(vec, hash); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingGeneration, err)
	}
	return vec, nil
}

// ContentHash identifies the content an embedding was generated from; a
// changed hash marks the stored vector stale.
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
