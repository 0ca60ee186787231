/*
Package storage provides a BoltDB-backed activity journal for podsim.

A simulation lives entirely in memory and is never restored from disk. The
journal is an optional side channel: when configured, every activity event the
orchestrator emits is appended to a bbolt file so a run can be inspected after
the process exits (podsim journal -f FILE).

# Layout

	┌──────────────────── JOURNAL FILE ────────────────────────┐
	│                                                           │
	│  bucket "events"                                          │
	│    key:   8-byte big-endian sequence (NextSequence)       │
	│    value: JSON-encoded events.Event                       │
	│                                                           │
	└───────────────────────────────────────────────────────────┘

Big-endian sequence keys make bbolt's sorted iteration equal to append order,
so ListEvents returns events exactly as they happened, across several runs
appending to the same file.

# Usage

	store, err := storage.NewBoltStore("podsim-journal.db")
	if err != nil {
		return err
	}
	defer store.Close()

	orch, err := orchestrator.New(orchestrator.Config{Journal: store})

Reading a journal without taking the write lock:

	store, err := storage.OpenReadOnly("podsim-journal.db")
	list, err := store.ListEvents()

bbolt holds an exclusive file lock while a journal is open for writing; opening
blocks for at most one second before failing.
*/
package storage
