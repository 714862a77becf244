package dto

import (
	"time"

	"jobmatch/internal/usecase"

	"github.com/google/uuid"
)

type MatchedJobResponse struct {
	JobID      uuid.UUID  `json:"job_id"`
	Title      string     `json:"title"`
	Company    string     `json:"company"`
	Location   string     `json:"location"`
	Link       string     `json:"link"`
	MatchScore float64    `json:"match_score"`
	ComputedAt *time.Time `json:"computed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type MatchedJobListResponse struct {
	Jobs  []MatchedJobResponse `json:"jobs"`
	Total int                  `json:"total"`
}

func FromMatchedJobs(items []usecase.MatchedJob) MatchedJobListResponse {
	out := make([]MatchedJobResponse, 0, len(items))
	for _, it := range items {
		out = append(out, MatchedJobResponse{
			JobID:      it.JobID,
			Title:      it.Title,
			Company:    it.Company,
			Location:   it.Location,
			Link:       it.Link,
			MatchScore: it.MatchScore,
			ComputedAt: it.ComputedAt,
			CreatedAt:  it.CreatedAt,
		})
	}
	return MatchedJobListResponse{Jobs: out, Total: len(out)}
}
