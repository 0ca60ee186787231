/*
Package cluster implements the resource-accounting core of podsim.

A Cluster owns the ordered nodes, a single table of pods keyed by id, the
bounded pending queue and the active scheduling strategy. Nodes only keep the
ids of the pods they host, so each Pod has exactly one mutable copy.

# Pod Lifecycle

	CreatePod ──► pending (queued) ──SchedulePod/PlacePod──► running on node
	                    ▲   │                                   │
	                    └───┘ no eligible node                  └─MovePod─► running on another node

CreatePod fails with ErrQueueFull once ten pods are waiting. SchedulePod that
finds no fitting node is not an error: the pod stays queued and the returned
Placement reports ErrNoEligibleNode through Err. DrainQueue retries every
queued pod once, oldest first, and is never triggered implicitly.

# Invariants

After every operation:
  - used <= total on every node, in both dimensions
  - a node's usage equals the sum of the requests of the pods it hosts
  - the running pods in the table are exactly the pods hosted by nodes
  - the queue holds exactly the pending pods

Validate checks all of them. A Cluster is not safe for concurrent use; the
orchestrator package serializes access.
*/
package cluster
