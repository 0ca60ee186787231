/*
Package scheduler provides the node selection strategies used by podsim.

A strategy answers one question: given the ordered nodes of a cluster and a
pending pod, which node should receive it? Strategies are stateless (the random
strategy only carries its random source) and never mutate the nodes they are
given; committing a placement is the cluster's job.

# Architecture

Every strategy runs the same two steps:

	┌────────────────────────────────────────────────────────────┐
	│  1. Filter: keep nodes where                               │
	│     total - used >= request  (CPU and memory, inclusive)   │
	└────────────────┬───────────────────────────────────────────┘
	                 │  no eligible node → nil
	                 ▼
	┌────────────────────────────────────────────────────────────┐
	│  2. Pick:                                                  │
	│     spread  → lowest  (cpu% + mem%) / 2                    │
	│     binpack → highest (cpu% + mem%) / 2                    │
	│     random  → uniform over eligible nodes                  │
	└────────────────────────────────────────────────────────────┘

Utilization is measured before placement. Ties in spread and binpack go to the
first eligible node in iteration order, which makes both deterministic.

# Scheduling Algorithms

## Spread

Balances load. Two empty 4 CPU / 8 GB nodes receiving two 1 CPU / 1 GB pods end
up with one pod each: the first pod breaks the tie towards node-1, the second
sees node-2 at 0% and node-1 at 18.75%.

## BinPack

Minimizes fragmentation by filling the fullest node that still fits. After a
3 CPU / 6000 MB pod lands on node-1, a 0.5 CPU / 500 MB pod follows it there
instead of opening the empty node-2.

## Random

Picks uniformly among eligible nodes. The random source is injected so runs can
be reproduced:

	rng := rand.New(rand.NewPCG(42, 0))
	strategy, err := scheduler.New(types.PolicyRandom, rng)

# Usage

	strategy, err := scheduler.New(types.PolicySpread, nil)
	if err != nil {
		return err
	}

	node := strategy.Select(nodes, pod)
	if node == nil {
		// No node can fit the pod; it stays queued
	}
*/
package scheduler
