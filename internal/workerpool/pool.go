// Package workerpool runs a fixed-size pool of goroutines pulling tasks off
// a shared channel, managed by a tomb.Tomb so the whole pool tears down
// cleanly when the owning server shuts down.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const defaultTaskChanSize = 100

// Func is the work a pool worker performs on one task.
type Func = func(t *tomb.Tomb, task any) error

type Pool struct {
	n     int
	tasks chan any
	work  Func
	slots chan struct{}
}

// New creates a pool of size workers. Call Setup to start it under a tomb.
func New(size int) *Pool {
	return &Pool{
		n:     size,
		tasks: make(chan any, defaultTaskChanSize),
		slots: make(chan struct{}, size),
	}
}

// AddTask enqueues a task for the next free worker.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Setup keeps exactly p.n workers running work against t until t dies.
// slots is a buffered semaphore sized to p.n: acquiring a slot blocks once
// p.n workers are already active, so this loop parks on the select below
// instead of spinning while the pool is full.
func (p *Pool) Setup(t *tomb.Tomb, work Func) {
	p.work = work
	log.Info().Int("workers", p.n).Msg("starting worker pool")
	for {
		select {
		case <-t.Dying():
			return
		case p.slots <- struct{}{}:
			t.Go(func() error {
				defer func() { <-p.slots }()
				return p.worker(t)
			})
		}
	}
}

func (p *Pool) worker(t *tomb.Tomb) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-p.tasks:
		if err := p.work(t, task); err != nil {
			log.Error().Err(err).Msg("worker exiting on error")
			return err
		}
	}
	return nil
}
