package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MatchCache fronts the ranked match responses and backs the cross-instance
// scoring lock. Implementations must degrade to cache misses when the
// backing store is unreachable.
type MatchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

func matchesCacheKey(profileID uuid.UUID) string {
	return "matches:ranked:" + profileID.String()
}

func scoringLockKey(profileID uuid.UUID) string {
	return "matches:lock:" + profileID.String()
}
