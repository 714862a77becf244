package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_Doubles(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, 100*time.Millisecond, Backoff(0, base, 0))
	assert.Equal(t, 200*time.Millisecond, Backoff(1, base, 0))
	assert.Equal(t, 400*time.Millisecond, Backoff(2, base, 0))
	assert.Equal(t, 800*time.Millisecond, Backoff(3, base, 0))
}

func TestBackoff_Cap(t *testing.T) {
	base := 100 * time.Millisecond
	max := 250 * time.Millisecond
	assert.Equal(t, 250*time.Millisecond, Backoff(5, base, max))
	assert.Equal(t, 250*time.Millisecond, Backoff(30, base, max))
}

func TestBackoff_InvalidInputs(t *testing.T) {
	assert.Equal(t, time.Duration(0), Backoff(3, 0, time.Second))
	assert.Equal(t, time.Second, Backoff(-1, time.Second, 0))
}

func TestSleep_Cancelled(t *testing.T) {
	done := make(chan struct{})
	close(done)
	ok := Sleep(done, 10, time.Second, 0)
	assert.False(t, ok)
}
