package embedding

import (
	"context"
	"sync"
	"time"
)

// Task is one unit of embedding work executed by the pool.
type Task func(ctx context.Context) error

type Result struct {
	Err error
}

// Pool runs embedding tasks with bounded concurrency. The provider is a
// rate-limited external resource, so regeneration passes must never fan
// out unbounded; an optional ticker throttles task starts further.
type Pool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup

	mu     sync.RWMutex
	rate   <-chan time.Time
	ticker *time.Ticker
}

func NewPool(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, buffer),
	}
}

// SetRateLimit throttles task starts to rps per second; rps <= 0 removes
// the limit.
func (p *Pool) SetRateLimit(rps int) {
	p.mu.Lock()
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
		p.rate = nil
	}
	if rps > 0 {
		t := time.NewTicker(time.Second / time.Duration(rps))
		p.ticker = t
		p.rate = t.C
	}
	p.mu.Unlock()
}

func (p *Pool) Submit(t Task) {
	if t == nil {
		return
	}
	p.tasks <- t
}

// Close stops accepting tasks; Run's result channel closes once queued
// tasks drain. A configured rate limit stays in force for the drain.
func (p *Pool) Close() {
	close(p.tasks)
}

func (p *Pool) Run(ctx context.Context) <-chan Result {
	out := make(chan Result, p.workers*64)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					if t == nil {
						continue
					}
					p.mu.RLock()
					rate := p.rate
					p.mu.RUnlock()
					if rate != nil {
						select {
						case <-ctx.Done():
							return
						case <-rate:
						}
					}
					err := t(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		p.mu.Lock()
		if p.ticker != nil {
			p.ticker.Stop()
			p.ticker = nil
			p.rate = nil
		}
		p.mu.Unlock()
		close(out)
	}()

	return out
}
