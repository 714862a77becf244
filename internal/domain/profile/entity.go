package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a candidate's structured resume data plus the derived
// embedding used for matching. At most one profile per user is active.
type Profile struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Data        string
	Embedding   []float64
	ContentHash string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EmbeddingText is the textual representation sent to the embedding provider.
func (p Profile) EmbeddingText() string {
	return p.Data
}

func (p Profile) HasEmbedding() bool {
	return len(p.Embedding) > 0
}
