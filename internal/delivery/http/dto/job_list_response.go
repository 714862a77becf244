package dto

import (
	"time"

	"jobmatch/internal/domain/job"

	"github.com/google/uuid"
)

// JobResponse is the unauthenticated posting shape. The listing carries no
// personalized ranking, so match_score is always 0 here.
type JobResponse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	Location   string    `json:"location"`
	Link       string    `json:"link"`
	MatchScore float64   `json:"match_score"`
	CreatedAt  time.Time `json:"created_at"`
}

type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Total int           `json:"total"`
}

func FromJobs(items []job.Job) JobListResponse {
	out := make([]JobResponse, 0, len(items))
	for _, j := range items {
		out = append(out, JobResponse{
			ID:        j.ID,
			Title:     j.Title,
			Company:   j.Company,
			Location:  j.Location,
			Link:      j.Link,
			CreatedAt: j.CreatedAt,
		})
	}
	return JobListResponse{Jobs: out, Total: len(out)}
}
