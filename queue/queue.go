package queue

import (
	"sync"
)

// Queue is an unbounded FIFO safe for concurrent producers and consumers.
// Push never blocks; PopWait sleeps until a value is available.
type Queue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []T
}

func New[T any](maybeSize ...int) *Queue[T] {
	var items []T
	if len(maybeSize) > 0 {
		items = make([]T, 0, maybeSize[0])
	}
	q := &Queue[T]{items: items}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Push appends value and wakes one blocked consumer.
func (q *Queue[T]) Push(value T) {
	q.mu.Lock()
	q.items = append(q.items, value)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop removes the oldest value, reporting false when the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pop()
}

// PopWait removes the oldest value, blocking while the queue is empty.
func (q *Queue[T]) PopWait() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	value, _ := q.pop()
	return value
}

// Cleanup drops every queued value and returns them in FIFO order.
func (q *Queue[T]) Cleanup() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := q.items
	q.items = nil
	return dropped
}

func (q *Queue[T]) pop() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	value := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return value, true
}
