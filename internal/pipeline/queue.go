package pipeline

import "context"

// queueCapacity bounds in-flight items per stage. A dictation session
// produces at most a handful of segments per minute, so producers never
// block in practice.
const queueCapacity = 64

// Queue is a session-scoped FIFO connecting two pipeline stages. Each
// session allocates fresh queues so items or sentinels from a stale
// session can never reach a newer session's workers.
type Queue[T any] struct {
	ch chan T
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ch: make(chan T, queueCapacity)}
}

// Push enqueues one item, blocking if the queue is full.
func (q *Queue[T]) Push(item T) {
	q.ch <- item
}

// Pop dequeues the oldest item, blocking until one is available or the
// context is cancelled. ok is false only on cancellation.
func (q *Queue[T]) Pop(ctx context.Context) (item T, ok bool) {
	select {
	case item = <-q.ch:
		return item, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}
