package repository

import (
	"context"
	"database/sql"
	"errors"

	"jobmatch/internal/database"
	"jobmatch/internal/domain/profile"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoActiveProfile = errors.New("no active profile")
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (profile.Profile, error)
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (profile.Profile, error)
	SaveEmbedding(ctx context.Context, id uuid.UUID, embedding []float64, contentHash string) error
}

type PostgresProfileRepository struct {
	db database.DB
}

func NewPostgresProfileRepository(db database.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

const profileColumns = `id, user_id, COALESCE(data, ''), COALESCE(embedding, '{}'), COALESCE(content_hash, ''), is_active, created_at, updated_at`

func (r *PostgresProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (profile.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	)
	return scanProfile(row, ErrProfileNotFound)
}

func (r *PostgresProfileRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (profile.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 AND is_active`,
		userID,
	)
	return scanProfile(row, ErrNoActiveProfile)
}

// SaveEmbedding is the single persisted write per successful regeneration.
func (r *PostgresProfileRepository) SaveEmbedding(ctx context.Context, id uuid.UUID, embedding []float64, contentHash string) error {
	if id == uuid.Nil {
		return ErrProfileNotFound
	}
	affected, err := r.db.Exec(ctx,
		`UPDATE profiles SET embedding = $2, content_hash = $3, updated_at = now() WHERE id = $1`,
		id, embedding, contentHash,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func scanProfile(row database.Row, notFound error) (profile.Profile, error) {
	var p profile.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Data, &p.Embedding, &p.ContentHash, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, notFound
		}
		return profile.Profile{}, err
	}
	return p, nil
}
