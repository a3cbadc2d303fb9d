// Package pool implements a fixed-size worker pool with a drain-to-idle
// protocol. Workers drain a shared FIFO under a mutex/condition pair; a
// second condition wakes drainers when the queue empties and no worker is
// inside a job.
package pool

import (
	"errors"
	"sync"

	"lzd/internal/ring"
)

var ErrShutdown = errors.New("pool: shutting down")

// Fn is a job body. The TLS slot belongs to the worker running the job and
// survives across jobs on the same worker.
type Fn func(tls *TLS)

// TLS is a per-worker scratch slot. Jobs use it to cache state that is
// expensive to rebuild, keyed however the job sees fit.
type TLS struct {
	v any
}

// Get returns the stored value, or nil.
func (t *TLS) Get() any { return t.v }

// Set replaces the stored value.
func (t *TLS) Set(v any) { t.v = v }

// Pool runs posted jobs on a fixed set of workers.
type Pool struct {
	mu      sync.Mutex
	hasWork *sync.Cond
	idle    *sync.Cond
	jobs    *ring.Ring[Fn]
	queued  int
	active  int
	down    bool

	wg       sync.WaitGroup
	nworkers int
}

// New starts a pool with n workers. n is clamped to at least 1.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs:     ring.New[Fn](),
		nworkers: n,
	}
	p.hasWork = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	tls := &TLS{}
	for {
		p.mu.Lock()
		for !p.down && p.jobs.Len() == 0 {
			p.hasWork.Wait()
		}
		if p.down && p.jobs.Len() == 0 {
			p.mu.Unlock()
			return
		}
		fn, _ := p.jobs.Pop()
		p.queued--
		p.active++
		p.mu.Unlock()

		// Job body runs outside the lock.
		fn(tls)

		p.mu.Lock()
		p.active--
		if p.queued == 0 && p.active == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}
}

// Post enqueues fn for execution. Returns ErrShutdown once Shutdown has
// been called.
func (p *Pool) Post(fn Fn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return ErrShutdown
	}
	p.jobs.Push(fn)
	p.queued++
	p.hasWork.Signal()
	return nil
}

// Drain blocks until the queue is empty and no worker is inside a job.
// Workers keep running.
func (p *Pool) Drain() {
	p.mu.Lock()
	for p.queued != 0 || p.active != 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// Shutdown stops accepting new work, wakes all workers and joins them.
// In-flight and already-queued jobs run to completion. Safe to call more
// than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.down {
		p.down = true
		p.hasWork.Broadcast()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Destroy shuts the pool down and discards any residual queued jobs
// without invoking them.
func (p *Pool) Destroy() {
	p.Shutdown()
	p.mu.Lock()
	for {
		if _, ok := p.jobs.Pop(); !ok {
			break
		}
		p.queued--
	}
	p.mu.Unlock()
}

// Workers returns the number of workers the pool was created with.
func (p *Pool) Workers() int { return p.nworkers }

// Idle reports whether no job is pending and no worker is inside a job.
func (p *Pool) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queued == 0 && p.active == 0
}
