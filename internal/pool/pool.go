// Package pool provides a fixed-size worker pool with a thread-safe
// submit operation; no external lock is needed to share one pool across
// many submitters.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New returns a pool that runs at most size jobs concurrently.
func New(size int) *Pool {
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Submit blocks until a worker slot is free, then runs job on its own
// goroutine. Safe for concurrent use.
func (p *Pool) Submit(job func()) {
	p.wg.Add(1)
	// Acquire with a background context cannot fail.
	_ = p.sem.Acquire(context.Background(), 1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		job()
	}()
}

// Wait blocks until every submitted job has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}
