package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when work is submitted to a closed Queue.
var ErrClosed = errors.New("dispatch: queue closed")

// Executor runs posted functions one at a time, in order.
type Executor interface {
	Post(fn func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(fn func())

// Post calls f(fn).
func (f ExecutorFunc) Post(fn func()) { f(fn) }

// Queue is an unbounded FIFO executor drained by Run.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}
	closed  bool
}

// NewQueue creates an empty Queue. Nothing runs until Run is called.
func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post appends fn to the queue. Functions posted after Close are dropped.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Do posts fn and waits until it has run.
func (q *Queue) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})

	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrClosed
	}

	q.Post(func() {
		defer close(ran)
		fn()
	})

	select {
	case <-ran:
		return nil
	case <-q.done:
		// Close may race with a function that already ran.
		select {
		case <-ran:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted functions on the calling goroutine until ctx is done or
// the queue is closed. Functions still pending at Close are dropped.
func (q *Queue) Run(ctx context.Context) error {
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, fn := range batch {
			select {
			case <-q.done:
				return nil
			default:
			}
			fn()
		}

		select {
		case <-q.wake:
		case <-q.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the queue. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.pending = nil
	close(q.done)
}

// Done returns a channel that is closed when the queue is closed.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
