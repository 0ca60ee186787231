/*
Package orchestrator is the thread-safe front end of a podsim simulation.

An Orchestrator owns one cluster.Cluster and serializes every operation on it
behind a single mutex. Each operation runs to completion before the next one
starts, so snapshots returned by Nodes, QueuedPods, RunningPods and Stats are
always consistent with each other.

# Side Effects

Every state change produces an activity event. The event is:

  - logged through zerolog (warn level for pending, rejected and limit events)
  - kept in the bounded activity feed returned by Activity (newest first)
  - published on an events.Broker for live subscribers
  - appended to the journal, when Config.Journal is set

After each mutation the orchestrator re-validates the cluster bookkeeping and
refreshes the Prometheus gauges. A failed validation means the accounting is
corrupt and panics.

# Usage

	orch, err := orchestrator.New(orchestrator.Config{Policy: types.PolicyBinPack})
	if err != nil {
		return err
	}
	defer orch.Close()

	if err := orch.Bootstrap(); err != nil {
		return err
	}

	placement, err := orch.SubmitPod("web-server", 1.5, 1024)
	if err != nil {
		return err // queue full or invalid request
	}
	if !placement.Scheduled() {
		// stays queued until DrainQueue finds room
	}

A pod that fits on no node is not an error: it stays in the queue and the
Placement has no node. Errors are reserved for rejected requests (full queue,
node limit, invalid sizes, unknown ids, insufficient room for a move).
*/
package orchestrator
