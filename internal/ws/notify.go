package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ScoresRefreshedEvent tells listening clients that a scoring batch
// finished and the ranked listing for the profile changed.
type ScoresRefreshedEvent struct {
	Type           string    `json:"type"`
	ProfileID      uuid.UUID `json:"profile_id"`
	ScoresComputed int       `json:"scores_computed"`
	At             time.Time `json:"at"`
}

const EventScoresRefreshed = "scores_refreshed"

func (h *Hub) NotifyScoresRefreshed(profileID uuid.UUID, scoresComputed int) {
	msg, err := json.Marshal(ScoresRefreshedEvent{
		Type:           EventScoresRefreshed,
		ProfileID:      profileID,
		ScoresComputed: scoresComputed,
		At:             time.Now().UTC(),
	})
	if err != nil {
		return
	}
	h.Broadcast(msg)
}
