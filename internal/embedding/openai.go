package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"jobmatch/internal/domain/matching"
	"jobmatch/internal/pkg/retry"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIProvider calls OpenAI's embeddings API. Rate-limited responses are
// retried with exponential backoff up to a bounded budget; anything else
// surfaces as ErrProviderUnavailable.
type OpenAIProvider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int

	timeout    time.Duration
	maxRetries int
	retryBase  time.Duration

	logger *log.Logger
}

type OpenAIConfig struct {
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

func NewOpenAIProvider(cfg OpenAIConfig, logger *log.Logger) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("embedding api key required")
	}

	model := openai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 1536
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = time.Second
	}

	// Retries are handled here so the backoff budget is explicit, not
	// hidden inside the SDK.
	cli := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:     &cli,
		model:      model,
		dimensions: dims,
		timeout:    timeout,
		maxRetries: maxRetries,
		retryBase:  retryBase,
		logger:     logger,
	}, nil
}

func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) (matching.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		vec, err := p.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if !errors.Is(err, ErrProviderRateLimited) || attempt >= p.maxRetries {
			break
		}
		if p.logger != nil {
			p.logger.Printf("[Embedding] rate limited, retrying | attempt=%d max=%d", attempt+1, p.maxRetries)
		}
		if !retry.Sleep(ctx.Done(), attempt, p.retryBase, p.timeout) {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, ctx.Err())
		}
	}

	return nil, lastErr
}

func (p *OpenAIProvider) embedOnce(ctx context.Context, text string) (matching.Vector, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Embeddings.New(callCtx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: p.model,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrProviderUnavailable)
	}

	vec := matching.Vector(resp.Data[0].Embedding)
	if len(vec) != p.dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrProviderUnavailable, len(vec), p.dimensions)
	}
	return vec, nil
}

func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrProviderRateLimited, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
