package discovery

import (
	"context"
	"errors"
	"sync"
)

var ErrPoolClosed = errors.New("worker pool closed")

// Pool runs blocking engine calls on a fixed set of goroutines so request
// handlers only ever wait on a channel.
type Pool struct {
	mu     sync.RWMutex
	closed bool
	jobs   chan func()
	wg     sync.WaitGroup
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	p := &Pool{jobs: make(chan func(), workers*2)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Submit queues fn. It blocks while the queue is full.
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for queued jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

type outcome[T any] struct {
	val T
	err error
}

// runOn executes fn on the pool and waits for it. ctx bounds only the wait:
// once started, fn runs to completion on its worker.
func runOn[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	done := make(chan outcome[T], 1)
	if err := p.Submit(ctx, func() {
		v, err := fn()
		done <- outcome[T]{val: v, err: err}
	}); err != nil {
		return zero, err
	}
	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
