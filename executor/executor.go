// Package executor runs blocking calls on a bounded set of worker goroutines
// so that the caller's step is suspended without stalling anything else.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"omvsetup/logger"
)

// ErrClosed is returned when work is submitted after Close.
var ErrClosed = errors.New("executor: pool closed")

// Pool bounds the number of offloaded calls running at the same time.
// Calls have no deadline of their own; the job is expected to enforce one.
type Pool struct {
	sem     *semaphore.Weighted
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a pool allowing at most workers concurrent jobs.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
	}
}

// Workers returns the configured concurrency bound.
func (p *Pool) Workers() int {
	return p.workers
}

// Run dispatches fn onto a worker and waits for its result or for ctx to end.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	_, err := Call(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

type result[T any] struct {
	val T
	err error
}

// Call is Run for jobs that produce a value.
func Call[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return zero, ErrClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.wg.Done()
		return zero, err
	}

	done := make(chan result[T], 1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				logger.Get().Error().Interface("panic", r).Msg("Offloaded job panicked")
				done <- result[T]{err: fmt.Errorf("executor: job panicked: %v", r)}
			}
		}()
		v, err := fn()
		done <- result[T]{val: v, err: err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close rejects new work and waits for running jobs to return.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
