package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/metrics"
)

// ErrTimeout is returned by Do when the caller stops waiting. The job may
// still be running; it is never cancelled once started.
var ErrTimeout = errors.New("operation timed out")

// ErrStopped is returned when submitting to a stopped pool.
var ErrStopped = errors.New("worker pool stopped")

type task func()

// Pool is a fixed-size set of workers. It keeps no state between jobs.
type Pool struct {
	wg      sync.WaitGroup
	jobs    chan task
	mu      sync.RWMutex
	stopped bool
}

func NewPool(n, queue int) *Pool {
	if n <= 0 {
		n = 1
	}
	if queue <= 0 {
		queue = 1024
	}
	p := &Pool{jobs: make(chan task, queue)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Dec()
				job()
			}
		}()
	}
	return p
}

// Do hands fn to a worker and waits up to timeout for its result.
//
// fn receives a context detached from ctx's cancellation, so once it starts it
// runs to completion and its unit of work commits or rolls back on its own.
// A job still queued when the caller gives up is skipped and never runs.
func (p *Pool) Do(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	var started atomic.Bool
	done := make(chan error, 1)
	job := func() {
		if !started.CompareAndSwap(false, true) {
			return
		}
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("worker panic: %v", rec)
			}
		}()
		done <- fn(context.WithoutCancel(ctx))
	}

	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return ErrStopped
	}
	metrics.WorkerQueueDepth.Inc()
	select {
	case p.jobs <- job:
		p.mu.RUnlock()
	case <-timer:
		metrics.WorkerQueueDepth.Dec()
		p.mu.RUnlock()
		return ErrTimeout
	case <-ctx.Done():
		metrics.WorkerQueueDepth.Dec()
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-timer:
	case <-ctx.Done():
	}
	if started.CompareAndSwap(false, true) {
		// never picked up by a worker
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTimeout
	}
	// already running: report the result if it raced in, otherwise time out
	select {
	case err := <-done:
		return err
	default:
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return ErrTimeout
}

// Stop drains queued jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
