package events

import (
	"context"
	"sync"
)

// Publisher accepts events for later delivery
type Publisher interface {
	Publish(e Event)
}

// Observer receives drained events in publication order
type Observer interface {
	Notify(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, e Event)

func (f ObserverFunc) Notify(ctx context.Context, e Event) {
	f(ctx, e)
}

// Queue buffers events published during a tick and hands them to observers when drained.
// Producers never call observers directly, so observer code cannot re-enter the core mid-update.
type Queue struct {
	mu        sync.Mutex
	pending   []Event
	observers []Observer
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Publish appends an event
func (q *Queue) Publish(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, e)
}

// Subscribe registers an observer for all future drains
func (q *Queue) Subscribe(o Observer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observers = append(q.observers, o)
}

// Pending returns the number of undelivered events
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain delivers every pending event, including events published by observers
// during the drain, and returns how many were delivered
func (q *Queue) Drain(ctx context.Context) int {
	delivered := 0
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		observers := append([]Observer(nil), q.observers...)
		q.mu.Unlock()

		if len(batch) == 0 {
			return delivered
		}
		for _, e := range batch {
			for _, o := range observers {
				o.Notify(ctx, e)
			}
			delivered++
		}
	}
}
