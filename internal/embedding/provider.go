package embedding

import (
	"context"
	"errors"

	"jobmatch/internal/domain/matching"
)

var (
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	ErrProviderRateLimited = errors.New("embedding provider rate limited")
	ErrEmptyInput          = errors.New("empty input text")
)

// Provider generates fixed-dimensionality embeddings for text. Implemented
// by remote model clients; callers treat it as a rate-limited external
// resource and bound their concurrency.
type Provider interface {
	Embed(ctx context.Context, text string) (matching.Vector, error)
	Dimensions() int
}
