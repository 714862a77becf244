package retry

import "time"

// Backoff returns the delay before the given attempt (0-based). The delay
// doubles with each attempt, base * 2^attempt, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}

	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if max > 0 && d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

// Sleep blocks for the backoff delay of the given attempt or until the done
// channel closes, reporting whether the full delay elapsed.
func Sleep(done <-chan struct{}, attempt int, base, max time.Duration) bool {
	d := Backoff(attempt, base, max)
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-done:
		return false
	case <-t.C:
		return true
	}
}
