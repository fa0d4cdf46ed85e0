package main

import (
	"context"
	"runtime"
	"sync"
)

type poolTask struct {
	fn  func() error
	res chan error
}

// WorkerPool runs blocking work on a fixed set of goroutines so slow
// collaborator calls never tie up the request-serving path.
type WorkerPool struct {
	tasks chan poolTask
	wg    sync.WaitGroup
}

func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = 2 * runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{tasks: make(chan poolTask)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for t := range p.tasks {
				t.res <- t.fn()
			}
		}()
	}
	return p
}

// Do submits fn and waits for it to finish. The context only bounds
// the wait for a free worker: once dispatched, fn runs to completion
// so callers can rely on its side effects having settled when Do
// returns.
func (p *WorkerPool) Do(ctx context.Context, fn func() error) error {
	t := poolTask{fn: fn, res: make(chan error, 1)}
	select {
	case p.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-t.res
}

// Close stops the workers after in-flight tasks finish. Do must not be
// called after Close.
func (p *WorkerPool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
