package storage

import (
	"github.com/cuemby/podsim/pkg/events"
)

// Store defines the interface for the activity journal. A journal is only
// ever appended to and read back for inspection; simulations never restore
// state from it.
type Store interface {
	// Events
	AppendEvent(event *events.Event) error
	ListEvents() ([]*events.Event, error)
	CountEvents() (int, error)

	// Utility
	Close() error
}
