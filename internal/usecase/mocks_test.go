package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"jobmatch/internal/domain/job"
	"jobmatch/internal/domain/matching"
	"jobmatch/internal/domain/profile"
	"jobmatch/internal/repository"

	"github.com/google/uuid"
)

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]profile.Profile
	getCalls atomic.Int32
	saves    atomic.Int32
}

func newFakeProfileRepo(ps ...profile.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: make(map[uuid.UUID]profile.Profile)}
	for _, p := range ps {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (profile.Profile, error) {
	r.getCalls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return profile.Profile{}, repository.ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) GetActiveByUserID(_ context.Context, userID uuid.UUID) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.UserID == userID && p.IsActive {
			return p, nil
		}
	}
	return profile.Profile{}, repository.ErrNoActiveProfile
}

func (r *fakeProfileRepo) SaveEmbedding(_ context.Context, id uuid.UUID, embedding []float64, contentHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.Embedding = embedding
	p.ContentHash = contentHash
	r.profiles[id] = p
	r.saves.Add(1)
	return nil
}

type fakeJobRepo struct {
	mu        sync.Mutex
	jobs      []job.Job
	saves     atomic.Int32
	listCalls atomic.Int32

	// listGate, when set, blocks ListForScoring until closed.
	listGate chan struct{}
}

func newFakeJobRepo(js ...job.Job) *fakeJobRepo {
	return &fakeJobRepo{jobs: js}
}

func (r *fakeJobRepo) GetByID(_ context.Context, id uuid.UUID) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return job.Job{}, repository.ErrJobNotFound
}

func (r *fakeJobRepo) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeJobRepo) ListRecent(_ context.Context, limit, offset int) ([]job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]job.Job, len(r.jobs))
	copy(out, r.jobs)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeJobRepo) ListForScoring(_ context.Context) ([]job.Job, error) {
	r.listCalls.Add(1)
	if r.listGate != nil {
		<-r.listGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]job.Job, len(r.jobs))
	copy(out, r.jobs)
	return out, nil
}

func (r *fakeJobRepo) ListForEmbedding(ctx context.Context) ([]job.Job, error) {
	return r.ListForScoring(ctx)
}

func (r *fakeJobRepo) SaveEmbedding(_ context.Context, id uuid.UUID, embedding []float64, contentHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, j := range r.jobs {
		if j.ID == id {
			r.jobs[i].Embedding = embedding
			r.jobs[i].ContentHash = contentHash
			r.saves.Add(1)
			return nil
		}
	}
	return repository.ErrJobNotFound
}

func (r *fakeJobRepo) UpsertJobs(_ context.Context, ups []repository.JobUpsert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range ups {
		r.jobs = append(r.jobs, job.Job{
			ID: u.ID, Title: u.Title, Company: u.Company, Link: u.Link,
			Description: u.Description, Location: u.Location, CreatedAt: time.Now().UTC(),
		})
	}
	return nil
}

// fakeMatchRepo is the keyed-map rendition of the score store: one entry
// per (profile, job), overwritten on conflict.
type fakeMatchRepo struct {
	mu     sync.Mutex
	scores map[[2]uuid.UUID]repository.ScoreUpsert
	jobs   *fakeJobRepo
}

func newFakeMatchRepo(jobs *fakeJobRepo) *fakeMatchRepo {
	return &fakeMatchRepo{scores: make(map[[2]uuid.UUID]repository.ScoreUpsert), jobs: jobs}
}

func (r *fakeMatchRepo) Upsert(_ context.Context, s repository.ScoreUpsert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[[2]uuid.UUID{s.ProfileID, s.JobID}] = s
	return nil
}

func (r *fakeMatchRepo) GetScore(_ context.Context, profileID, jobID uuid.UUID) (float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scores[[2]uuid.UUID{profileID, jobID}]
	if !ok {
		return 0, false, nil
	}
	return s.Score, true, nil
}

func (r *fakeMatchRepo) ListRankedForProfile(ctx context.Context, profileID uuid.UUID) ([]repository.RankedJob, error) {
	jobs, err := r.jobs.ListForScoring(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.RankedJob, 0, len(jobs))
	for _, j := range jobs {
		rj := repository.RankedJob{
			JobID: j.ID, Title: j.Title, Company: j.Company,
			Location: j.Location, Link: j.Link, CreatedAt: j.CreatedAt,
		}
		if s, ok := r.scores[[2]uuid.UUID{profileID, j.ID}]; ok {
			rj.Score = s.Score
			t := s.ComputedAt
			rj.ComputedAt = &t
		}
		out = append(out, rj)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeMatchRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scores)
}

type fakeProvider struct {
	vec    matching.Vector
	byText map[string]matching.Vector
	err    error
	calls  atomic.Int32
}

func (p *fakeProvider) Embed(_ context.Context, text string) (matching.Vector, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	if v, ok := p.byText[text]; ok {
		return v, nil
	}
	return p.vec, nil
}

func (p *fakeProvider) Dimensions() int {
	return len(p.vec)
}

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{m: make(map[string][]byte)}
}

func (c *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = b
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *memCache) SetIfNotExists(_ context.Context, key string, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; ok {
		return false, nil
	}
	c.m[key] = []byte(value)
	return true, nil
}
