package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"jobmatch/internal/domain/job"
	"jobmatch/internal/domain/profile"
	"jobmatch/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScoreUsecase(profiles *fakeProfileRepo, jobs *fakeJobRepo, matches *fakeMatchRepo, cache MatchCache, notify Notifier) *MatchScore {
	emb := NewEmbeddingUsecase(profiles, jobs, &fakeProvider{}, 2, nil)
	return NewMatchScoreUsecase(profiles, jobs, matches, emb, cache, notify, 4, time.Minute, nil)
}

func TestComputeMatchScores_RankedScenario(t *testing.T) {
	p := profile.Profile{ID: uuid.New(), UserID: uuid.New(), Embedding: []float64{1, 0, 0}, IsActive: true}
	j1 := job.Job{ID: uuid.New(), Title: "Exact", Embedding: []float64{1, 0, 0}, CreatedAt: time.Now().Add(-time.Hour)}
	j2 := job.Job{ID: uuid.New(), Title: "Orthogonal", Embedding: []float64{0, 1, 0}, CreatedAt: time.Now()}

	profiles := newFakeProfileRepo(p)
	jobs := newFakeJobRepo(j1, j2)
	matches := newFakeMatchRepo(jobs)
	uc := newScoreUsecase(profiles, jobs, matches, nil, nil)

	n, err := uc.ComputeMatchScoresForProfile(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s1, ok, err := matches.GetScore(context.Background(), p.ID, j1.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 1.0, s1, 1e-9)

	s2, ok, err := matches.GetScore(context.Background(), p.ID, j2.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.0, s2, 1e-9)

	// The ranked listing puts the exact match first despite being older.
	query := NewMatchQueryUsecase(profiles, jobs, matches, nil, 0, nil)
	ranked, err := query.GetMatchedJobsForUser(context.Background(), p.UserID)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, j1.ID, ranked[0].JobID)
	assert.Equal(t, j2.ID, ranked[1].JobID)
}

func TestComputeMatchScores_SkipsMalformedVector(t *testing.T) {
	p := profile.Profile{ID: uuid.New(), Embedding: []float64{1, 0, 0}}
	profiles := newFakeProfileRepo(p)

	js := make([]job.Job, 0, 10)
	for i := 0; i < 9; i++ {
		js = append(js, job.Job{ID: uuid.New(), Embedding: []float64{0, 1, 0}})
	}
	// Wrong dimensionality: skipped, not scored as zero.
	js = append(js, job.Job{ID: uuid.New(), Embedding: []float64{1, 2}})

	jobs := newFakeJobRepo(js...)
	matches := newFakeMatchRepo(jobs)
	uc := newScoreUsecase(profiles, jobs, matches, nil, nil)

	n, err := uc.ComputeMatchScoresForProfile(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, 9, matches.count())
}

func TestComputeMatchScores_SkipsJobsWithoutEmbedding(t *testing.T) {
	p := profile.Profile{ID: uuid.New(), Embedding: []float64{1, 0}}
	profiles := newFakeProfileRepo(p)
	jobs := newFakeJobRepo(
		job.Job{ID: uuid.New(), Embedding: []float64{0, 1}},
		job.Job{ID: uuid.New()},
	)
	matches := newFakeMatchRepo(jobs)
	uc := newScoreUsecase(profiles, jobs, matches, nil, nil)

	n, err := uc.ComputeMatchScoresForProfile(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestComputeMatchScores_Idempotent(t *testing.T) {
	p := profile.Profile{ID: uuid.New(), Embedding: []float64{1, 0}}
	profiles := newFakeProfileRepo(p)
	jobs := newFakeJobRepo(
		job.Job{ID: uuid.New(), Embedding: []float64{1, 0}},
		job.Job{ID: uuid.New(), Embedding: []float64{0, 1}},
	)
	matches := newFakeMatchRepo(jobs)
	uc := newScoreUsecase(profiles, jobs, matches, nil, nil)

	n1, err := uc.ComputeMatchScoresForProfile(context.Background(), p.ID)
	require.NoError(t, err)
	n2, err := uc.ComputeMatchScoresForProfile(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, n1, n2)
	// Upsert invariant: still one row per (profile, job) pair.
	assert.Equal(t, 2, matches.count())
}

func TestComputeMatchScores_MissingProfileEmbedding(t *testing.T) {
	p := profile.Profile{ID: uuid.New()}
	profiles := newFakeProfileRepo(p)
	jobs := newFakeJobRepo(job.Job{ID: uuid.New(), Embedding: []float64{1, 0}})
	uc := newScoreUsecase(profiles, jobs, newFakeMatchRepo(jobs), nil, nil)

	_, err := uc.ComputeMatchScoresForProfile(context.Background(), p.ID)
	require.ErrorIs(t, err, ErrProfileEmbeddingMissing)
}

func TestComputeMatchScores_ProfileNotFound(t *testing.T) {
	jobs := newFakeJobRepo()
	uc := newScoreUsecase(newFakeProfileRepo(), jobs, newFakeMatchRepo(jobs), nil, nil)

	_, err := uc.ComputeMatchScoresForProfile(context.Background(), uuid.New())
	require.ErrorIs(t, err, repository.ErrProfileNotFound)
}

// stallMatchRepo lets exactly one upsert through, then blocks the rest
// until the batch context expires.
type stallMatchRepo struct {
	*fakeMatchRepo
	mu    sync.Mutex
	first bool
}

func (r *stallMatchRepo) Upsert(ctx context.Context, s repository.ScoreUpsert) error {
	r.mu.Lock()
	if !r.first {
		r.first = true
		r.mu.Unlock()
		return r.fakeMatchRepo.Upsert(ctx, s)
	}
	r.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func TestComputeMatchScores_TimeoutKeepsPartialScores(t *testing.T) {
	p := profile.Profile{ID: uuid.New(), Embedding: []float64{1, 0}}
	profiles := newFakeProfileRepo(p)

	js := make([]job.Job, 0, 5)
	for i := 0; i < 5; i++ {
		js = append(js, job.Job{ID: uuid.New(), Embedding: []float64{1, 0}})
	}
	jobs := newFakeJobRepo(js...)
	matches := &stallMatchRepo{fakeMatchRepo: newFakeMatchRepo(jobs)}

	emb := NewEmbeddingUsecase(profiles, jobs, &fakeProvider{}, 2, nil)
	uc := NewMatchScoreUsecase(profiles, jobs, matches, emb, nil, nil, 2, 50*time.Millisecond, nil)

	n, err := uc.ComputeMatchScoresForProfile(context.Background(), p.ID)

	// A cut-short batch is not an error; it reports what landed.
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, matches.count(), "scores written before the deadline stay valid")
}

func TestComputeMatchScores_CoalescesConcurrentTriggers(t *testing.T) {
	p := profile.Profile{ID: uuid.New(), Embedding: []float64{1, 0}}
	profiles := newFakeProfileRepo(p)
	jobs := newFakeJobRepo(job.Job{ID: uuid.New(), Embedding: []float64{1, 0}})
	jobs.listGate = make(chan struct{})
	matches := newFakeMatchRepo(jobs)
	uc := newScoreUsecase(profiles, jobs, matches, nil, nil)

	var wg sync.WaitGroup
	results := make([]int, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = uc.ComputeMatchScoresForProfile(context.Background(), p.ID)
		}(i)
	}

	// Wait for the first batch to reach the gated job listing, give the
	// second trigger time to join it, then release.
	deadline := time.Now().Add(2 * time.Second)
	for jobs.listCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(jobs.listGate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, results[0])
	assert.Equal(t, 1, results[1])
	assert.Equal(t, int32(1), jobs.listCalls.Load(), "second trigger should coalesce into the in-flight batch")
}

func TestComputeMatchScores_InvalidatesCacheAndNotifies(t *testing.T) {
	p := profile.Profile{ID: uuid.New(), Embedding: []float64{1, 0}}
	profiles := newFakeProfileRepo(p)
	jobs := newFakeJobRepo(job.Job{ID: uuid.New(), Embedding: []float64{1, 0}})
	matches := newFakeMatchRepo(jobs)

	cache := newMemCache()
	require.NoError(t, cache.SetJSON(context.Background(), matchesCacheKey(p.ID), []MatchedJob{}, 0))

	var notifiedProfile uuid.UUID
	var notifiedCount int
	uc := newScoreUsecase(profiles, jobs, matches, cache, func(id uuid.UUID, n int) {
		notifiedProfile = id
		notifiedCount = n
	})

	n, err := uc.ComputeMatchScoresForProfile(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var out []MatchedJob
	hit, err := cache.GetJSON(context.Background(), matchesCacheKey(p.ID), &out)
	require.NoError(t, err)
	assert.False(t, hit, "stale ranked cache should be invalidated")

	assert.Equal(t, p.ID, notifiedProfile)
	assert.Equal(t, 1, notifiedCount)
}

func TestRefreshScoresForUser_EmbedsThenScores(t *testing.T) {
	userID := uuid.New()
	p := profile.Profile{ID: uuid.New(), UserID: userID, Data: "resume", IsActive: true}
	profiles := newFakeProfileRepo(p)
	jobs := newFakeJobRepo(job.Job{ID: uuid.New(), Embedding: []float64{1, 0}})
	matches := newFakeMatchRepo(jobs)

	provider := &fakeProvider{vec: []float64{1, 0}}
	emb := NewEmbeddingUsecase(profiles, jobs, provider, 2, nil)
	uc := NewMatchScoreUsecase(profiles, jobs, matches, emb, nil, nil, 4, time.Minute, nil)

	n, err := uc.RefreshScoresForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int32(1), provider.calls.Load(), "profile embedding should be generated before scoring")
	assert.Equal(t, 1, matches.count())
}

func TestRefreshScoresForUser_NoActiveProfile(t *testing.T) {
	jobs := newFakeJobRepo()
	uc := newScoreUsecase(newFakeProfileRepo(), jobs, newFakeMatchRepo(jobs), nil, nil)

	_, err := uc.RefreshScoresForUser(context.Background(), uuid.New())
	require.ErrorIs(t, err, repository.ErrNoActiveProfile)
}

func TestUpdateProfileEmbedding_Delegates(t *testing.T) {
	p := profile.Profile{ID: uuid.New(), Data: "resume"}
	profiles := newFakeProfileRepo(p)
	jobs := newFakeJobRepo()
	provider := &fakeProvider{vec: []float64{0.1, 0.2}}
	emb := NewEmbeddingUsecase(profiles, jobs, provider, 2, nil)
	uc := NewMatchScoreUsecase(profiles, jobs, newFakeMatchRepo(jobs), emb, nil, nil, 4, time.Minute, nil)

	vec, err := uc.UpdateProfileEmbedding(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	assert.Equal(t, int32(1), provider.calls.Load())
}
