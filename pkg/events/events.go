package events

import (
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventPodCreated       EventType = "pod.created"
	EventPodScheduled     EventType = "pod.scheduled"
	EventPodPending       EventType = "pod.pending"
	EventPodMoved         EventType = "pod.moved"
	EventPodMoveRejected  EventType = "pod.move_rejected"
	EventQueueFull        EventType = "queue.full"
	EventNodeAdded        EventType = "node.added"
	EventNodeLimitReached EventType = "node.limit_reached"
	EventPolicyChanged    EventType = "policy.changed"
	EventClusterReset     EventType = "cluster.reset"
)

// Warning reports whether the event describes a condition the user should notice
func (t EventType) Warning() bool {
	switch t {
	case EventPodPending, EventPodMoveRejected, EventQueueFull, EventNodeLimitReached, EventClusterReset:
		return true
	}
	return false
}

// Event represents a cluster event
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker. It is safe to call more than once.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an event to all subscribers
func (b *Broker) Publish(event *Event) {
	// Set timestamp if not set
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// DefaultHistorySize is the number of entries the activity feed keeps
const DefaultHistorySize = 15

// History keeps the most recent events, dropping the oldest once full.
// It is not safe for concurrent use.
type History struct {
	entries []*Event
	limit   int
}

// NewHistory creates a history holding at most limit events
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit}
}

// Add records an event
func (h *History) Add(event *Event) {
	h.entries = append(h.entries, event)
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// Recent returns copies of the kept events, newest first
func (h *History) Recent() []Event {
	recent := make([]Event, 0, len(h.entries))
	for i := len(h.entries) - 1; i >= 0; i-- {
		recent = append(recent, *h.entries[i])
	}
	return recent
}

// Clear drops all kept events
func (h *History) Clear() {
	h.entries = nil
}
