package embedding

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func drain(results <-chan Result) (done, failed int) {
	for res := range results {
		done++
		if res.Err != nil {
			failed++
		}
	}
	return done, failed
}

func TestPool_RunsAllTasks(t *testing.T) {
	pool := NewPool(4, 8)

	var n atomic.Int32
	for i := 0; i < 8; i++ {
		pool.Submit(func(context.Context) error {
			n.Add(1)
			return nil
		})
	}
	pool.Close()

	done, failed := drain(pool.Run(context.Background()))
	assert.Equal(t, 8, done)
	assert.Equal(t, 0, failed)
	assert.Equal(t, int32(8), n.Load())
}

func TestPool_RateLimitHoldsThroughDrain(t *testing.T) {
	pool := NewPool(4, 8)
	pool.SetRateLimit(50)

	var n atomic.Int32
	for i := 0; i < 5; i++ {
		pool.Submit(func(context.Context) error {
			n.Add(1)
			return nil
		})
	}
	pool.Close()

	start := time.Now()
	done, _ := drain(pool.Run(context.Background()))
	elapsed := time.Since(start)

	assert.Equal(t, 5, done)
	assert.Equal(t, int32(5), n.Load())
	// Five starts at 50 rps need at least four 20ms ticks; a dropped limit
	// would finish in microseconds.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestPool_RateLimitRespectsCancellation(t *testing.T) {
	pool := NewPool(2, 4)
	pool.SetRateLimit(1)

	var n atomic.Int32
	for i := 0; i < 4; i++ {
		pool.Submit(func(context.Context) error {
			n.Add(1)
			return nil
		})
	}
	pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done, _ := drain(pool.Run(ctx))
	assert.Equal(t, 0, done, "no task should start before the first 1s tick")
}
