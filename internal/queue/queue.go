// Package queue runs deferred work under a process-wide concurrency bound.
// Admission is FIFO and nothing enqueued is ever dropped: every task runs
// (or reports ErrClosed) and its outcome is observable through Wait.
package queue

import (
	"errors"
	"log"
	"sync"
)

var ErrClosed = errors.New("queue: closed")

// Task is one admitted unit of work. Wait blocks until it has settled.
type Task struct {
	Label string

	done chan struct{}
	err  error
}

func (t *Task) Wait() error {
	<-t.done
	return t.err
}

type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*Task
	fns     map[*Task]func() error
	closed  bool
	wg      sync.WaitGroup
}

// New starts a queue with at most limit tasks executing at once.
func New(limit int) *Queue {
	if limit < 1 {
		limit = 1
	}
	q := &Queue{fns: make(map[*Task]func() error)}
	q.cond = sync.NewCond(&q.mu)
	for i := 0; i < limit; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue admits fn for execution. The returned task settles when fn has
// run; after Close it settles immediately with ErrClosed.
func (q *Queue) Enqueue(label string, fn func() error) *Task {
	t := &Task{Label: label, done: make(chan struct{})}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		t.err = ErrClosed
		close(t.done)
		return t
	}
	q.pending = append(q.pending, t)
	q.fns[t] = fn
	q.mu.Unlock()
	q.cond.Signal()
	return t
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending = q.pending[1:]
		fn := q.fns[t]
		delete(q.fns, t)
		q.mu.Unlock()

		t.err = q.run(t.Label, fn)
		close(t.done)
	}
}

func (q *Queue) run(label string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Queue task %q panicked: %v", label, r)
			err = errors.New("queue: task panicked")
		}
	}()
	return fn()
}

// Close stops admission and waits for already-enqueued tasks to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
	q.wg.Wait()
}
