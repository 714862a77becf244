package dto

import "github.com/google/uuid"

type JobScoreResponse struct {
	JobID      uuid.UUID `json:"job_id"`
	MatchScore float64   `json:"match_score"`
	Computed   bool      `json:"computed"`
}
