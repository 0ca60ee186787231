/*
Package events provides podsim's activity events and an in-memory pub/sub broker.

Every user-visible transition in the simulation (a pod created, scheduled,
left pending or moved, a node added, the policy changed, the cluster reset) is
described by an Event. The orchestrator records each event in three places:
the structured log, the bounded History shown as the activity feed, and the
Broker for any subscriber that wants a live stream.

# Architecture

	┌──────────────────── EVENT FLOW ──────────────────────────┐
	│                                                           │
	│  Orchestrator operation                                   │
	│       │                                                   │
	│       ▼                                                   │
	│  *Event{Type, Message, Metadata}                          │
	│       │                                                   │
	│       ├──► History (last 15, newest first)                │
	│       ├──► storage journal (optional, bbolt)              │
	│       └──► Broker.Publish                                 │
	│               │  event channel (buffer: 100)              │
	│               ▼                                           │
	│            broadcast loop                                 │
	│               │                                           │
	│               ▼                                           │
	│            Subscriber channels (buffer: 50 each)          │
	└───────────────────────────────────────────────────────────┘

Delivery is best effort: a subscriber whose buffer is full misses the event
rather than stalling the publisher.

# Event Types

Pods:
  - pod.created, pod.scheduled, pod.pending
  - pod.moved, pod.move_rejected
  - queue.full

Nodes:
  - node.added, node.limit_reached

Cluster:
  - policy.changed, cluster.reset

EventType.Warning marks the types shown as warnings in the activity feed.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for event := range sub {
		fmt.Printf("%s %s\n", event.Type, event.Message)
	}
*/
package events
