package cluster

import "fmt"

// DefaultQueueCapacity is the number of pending pods the queue holds
const DefaultQueueCapacity = 10

// Queue is a bounded FIFO of pending pod ids
type Queue struct {
	ids      []string
	capacity int
}

// NewQueue creates a queue holding at most capacity ids
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		ids:      make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Push appends an id, failing with ErrQueueFull at capacity
func (q *Queue) Push(podID string) error {
	if q.Full() {
		return fmt.Errorf("%w: %d pods waiting", ErrQueueFull, len(q.ids))
	}
	q.ids = append(q.ids, podID)
	return nil
}

// Remove drops an id, keeping the order of the rest
func (q *Queue) Remove(podID string) bool {
	for i, id := range q.ids {
		if id == podID {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the id is queued
func (q *Queue) Contains(podID string) bool {
	for _, id := range q.ids {
		if id == podID {
			return true
		}
	}
	return false
}

// IDs returns a copy of the queued ids, oldest first
func (q *Queue) IDs() []string {
	return append([]string(nil), q.ids...)
}

// Len returns the number of queued ids
func (q *Queue) Len() int { return len(q.ids) }

// Capacity returns the queue bound
func (q *Queue) Capacity() int { return q.capacity }

// Full reports whether the queue is at capacity
func (q *Queue) Full() bool { return len(q.ids) >= q.capacity }

// Clear empties the queue
func (q *Queue) Clear() {
	q.ids = q.ids[:0]
}
