package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobmatch/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ScoreUpsert struct {
	ProfileID  uuid.UUID
	JobID      uuid.UUID
	Score      float64
	ComputedAt time.Time
}

// RankedJob is one row of the ranked join between jobs and cached scores.
// Jobs with no computed score carry Score 0 and a nil ComputedAt.
type RankedJob struct {
	JobID      uuid.UUID
	Title      string
	Company    string
	Location   string
	Link       string
	Score      float64
	ComputedAt *time.Time
	CreatedAt  time.Time
}

type MatchRepository interface {
	// Upsert enforces the one-row-per-(profile, job) invariant through the
	// store's atomic conflict resolution.
	Upsert(ctx context.Context, s ScoreUpsert) error
	GetScore(ctx context.Context, profileID, jobID uuid.UUID) (float64, bool, error)
	ListRankedForProfile(ctx context.Context, profileID uuid.UUID) ([]RankedJob, error)
}

type PostgresMatchRepository struct {
	db database.DB
}

func NewPostgresMatchRepository(db database.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

func (r *PostgresMatchRepository) Upsert(ctx context.Context, s ScoreUpsert) error {
	if s.ProfileID == uuid.Nil || s.JobID == uuid.Nil {
		return errors.New("upsert requires profile and job ids")
	}
	if s.ComputedAt.IsZero() {
		s.ComputedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO profile_job_matches (profile_id, job_id, match_score, computed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (profile_id, job_id) DO UPDATE SET
			match_score = EXCLUDED.match_score,
			computed_at = EXCLUDED.computed_at`,
		s.ProfileID, s.JobID, s.Score, s.ComputedAt,
	)
	return err
}

func (r *PostgresMatchRepository) GetScore(ctx context.Context, profileID, jobID uuid.UUID) (float64, bool, error) {
	var score float64
	row := r.db.QueryRow(ctx,
		`SELECT match_score FROM profile_job_matches WHERE profile_id = $1 AND job_id = $2`,
		profileID, jobID,
	)
	if err := row.Scan(&score); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return score, true, nil
}

func (r *PostgresMatchRepository) ListRankedForProfile(ctx context.Context, profileID uuid.UUID) ([]RankedJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT j.id, COALESCE(j.title, ''), COALESCE(j.company, ''), COALESCE(j.location, ''),
		        COALESCE(j.link, ''), COALESCE(m.match_score, 0), m.computed_at, j.created_at
		 FROM jobs j
		 LEFT JOIN profile_job_matches m
		   ON m.job_id = j.id AND m.profile_id = $1
		 ORDER BY COALESCE(m.match_score, 0) DESC, j.created_at DESC`,
		profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RankedJob, 0)
	for rows.Next() {
		var rj RankedJob
		if err := rows.Scan(&rj.JobID, &rj.Title, &rj.Company, &rj.Location, &rj.Link, &rj.Score, &rj.ComputedAt, &rj.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
