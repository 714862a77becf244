package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobmatch/internal/database"
	"jobmatch/internal/domain/job"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrJobNotFound = errors.New("job not found")

// JobUpsert is the ingestion boundary: the external scraping collaborator
// lands postings through it. Embeddings are never written here.
type JobUpsert struct {
	ID          uuid.UUID
	Title       string
	Company     string
	Link        string
	Description string
	Location    string
}

type JobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (job.Job, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	ListRecent(ctx context.Context, limit, offset int) ([]job.Job, error)
	// ListForScoring returns every posting with whatever embedding is
	// stored; entries without one are the caller's to skip.
	ListForScoring(ctx context.Context) ([]job.Job, error)
	ListForEmbedding(ctx context.Context) ([]job.Job, error)
	SaveEmbedding(ctx context.Context, id uuid.UUID, embedding []float64, contentHash string) error
	UpsertJobs(ctx context.Context, jobs []JobUpsert) error
}

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (job.Job, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, COALESCE(title, ''), COALESCE(company, ''), COALESCE(link, ''),
		        COALESCE(description, ''), COALESCE(location, ''),
		        COALESCE(embedding, '{}'), COALESCE(content_hash, ''), created_at
		 FROM jobs WHERE id = $1`,
		id,
	)
	var j job.Job
	err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Link, &j.Description, &j.Location, &j.Embedding, &j.ContentHash, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, ErrJobNotFound
		}
		return job.Job{}, err
	}
	return j, nil
}

func (r *PostgresJobRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)`, id)
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

func (r *PostgresJobRepository) ListRecent(ctx context.Context, limit, offset int) ([]job.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, COALESCE(title, ''), COALESCE(company, ''), COALESCE(link, ''),
		        COALESCE(description, ''), COALESCE(location, ''), created_at
		 FROM jobs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.Job, 0)
	for rows.Next() {
		var j job.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Link, &j.Description, &j.Location, &j.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresJobRepository) ListForScoring(ctx context.Context) ([]job.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, COALESCE(embedding, '{}'), created_at FROM jobs`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.Job, 0)
	for rows.Next() {
		var j job.Job
		if err := rows.Scan(&j.ID, &j.Embedding, &j.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresJobRepository) ListForEmbedding(ctx context.Context) ([]job.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, COALESCE(title, ''), COALESCE(company, ''), COALESCE(link, ''),
		        COALESCE(description, ''), COALESCE(location, ''),
		        COALESCE(embedding, '{}'), COALESCE(content_hash, ''), created_at
		 FROM jobs`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.Job, 0)
	for rows.Next() {
		var j job.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Link, &j.Description, &j.Location, &j.Embedding, &j.ContentHash, &j.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresJobRepository) SaveEmbedding(ctx context.Context, id uuid.UUID, embedding []float64, contentHash string) error {
	if id == uuid.Nil {
		return ErrJobNotFound
	}
	affected, err := r.db.Exec(ctx,
		`UPDATE jobs SET embedding = $2, content_hash = $3 WHERE id = $1`,
		id, embedding, contentHash,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *PostgresJobRepository) UpsertJobs(ctx context.Context, jobs []JobUpsert) error {
	for _, j := range jobs {
		if j.ID == uuid.Nil {
			j.ID = uuid.New()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO jobs (id, title, company, link, description, location, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (link) DO UPDATE SET
				title = EXCLUDED.title,
				company = EXCLUDED.company,
				description = EXCLUDED.description,
				location = EXCLUDED.location`,
			j.ID, j.Title, j.Company, j.Link, j.Description, j.Location, time.Now().UTC(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
