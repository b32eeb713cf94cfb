package panel

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned when work is submitted to a loop that is no
// longer running.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop runs submitted tasks one at a time on a single goroutine. Every read
// or write of the page document happens inside a task, so the document needs
// no locking.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	started bool
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

// NewLoop builds a loop that is not yet running.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled. Tasks still queued at that
// point are run before Run returns. A loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return errors.New("event loop already started")
	}
	l.started = true
	l.mu.Unlock()

	for {
		for _, task := range l.take(false) {
			task()
		}

		select {
		case <-ctx.Done():
			for _, task := range l.take(true) {
				task()
			}
			close(l.done)
			return nil
		case <-l.wake:
		}
	}
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn without waiting for it. It reports false if the loop has
// stopped and fn will never run.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from a task, which would deadlock.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	ok := l.Post(func() {
		defer close(finished)
		fn()
	})
	if !ok {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) take(stop bool) []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if stop {
		l.stopped = true
	}
	tasks := l.queue
	l.queue = nil
	return tasks
}
