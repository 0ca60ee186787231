/*
Package types defines the core data structures of the podsim scheduler.

The package holds the domain model shared by every other package: nodes and
their resource pools, pods and their lifecycle, scheduling policies, and the
read-only snapshots handed out to callers.

# Core Types

Capacity:
  - ResourcePool: Total and used CPU (cores) and memory (MB) of one node
  - NodeInfo: Snapshot of a node with percentages and available capacity
  - ClusterStats: Aggregate capacity and usage across the cluster

Topology:
  - Node: Simulated machine owning a ResourcePool and the ids of hosted pods

Workloads:
  - Pod: CPU and memory request with status and placement metadata
  - PodStatus: pending (queued) or running (placed on a node)

Scheduling:
  - Policy: spread, binpack or random

# Resource Accounting

ResourcePool is a pure accounting record. CanFit is the only admission check;
Reserve and Release adjust the used amounts without re-checking:

	pool := types.NewResourcePool(4, 8192)
	if pool.CanFit(1.5, 1024) {
		pool.Reserve(1.5, 1024)
	}
	pool.Utilization() // (37.5 + 12.5) / 2 = 25

The comparison in CanFit is inclusive, so a pod asking for exactly the free
capacity fits. Release panics when it would drive usage below zero: that can
only happen when the cluster bookkeeping is already corrupt.

Fractions are defined as 0 for a pool with zero capacity so a degenerate node
never causes a division by zero.

# Ownership

Pods are owned by a single table in the cluster. A Node only stores pod ids,
in placement order, so there is exactly one mutable copy of each Pod.
*/
package types
