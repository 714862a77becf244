package job

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job is a posting ingested by an external collaborator. The embedding is
// derived from the posting text and mutated only by the embedding usecase.
type Job struct {
	ID          uuid.UUID
	Title       string
	Company     string
	Link        string
	Description string
	Location    string
	Embedding   []float64
	ContentHash string
	CreatedAt   time.Time
}

// EmbeddingText is the textual representation sent to the embedding provider.
func (j Job) EmbeddingText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{j.Title, j.Company, j.Location, j.Description} {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "\n")
}

func (j Job) HasEmbedding() bool {
	return len(j.Embedding) > 0
}
