/*
Package metrics provides Prometheus instrumentation and health endpoints for podsim.

All collectors are package-level variables registered with the default
Prometheus registry in init. The orchestrator updates counters as operations
happen and refreshes the gauges from a cluster snapshot after every mutation
through RecordCluster.

# Metrics Catalog

Cluster:

	podsim_nodes_total                        Gauge
	podsim_pods_total{status}                 Gauge    running | pending
	podsim_queue_depth                        Gauge
	podsim_cluster_cpu_utilization_ratio      Gauge    0.0 - 1.0
	podsim_cluster_memory_utilization_ratio   Gauge    0.0 - 1.0

Nodes:

	podsim_node_cpu_utilization_ratio{node,name}     Gauge    node is the node id
	podsim_node_memory_utilization_ratio{node,name}  Gauge

Scheduling:

	podsim_scheduling_attempts_total{policy,result}  Counter  scheduled | pending
	podsim_scheduling_latency_seconds{policy}        Histogram
	podsim_queue_drain_duration_seconds              Histogram
	podsim_pods_created_total                        Counter
	podsim_pods_rejected_total{reason}               Counter  queue_full | invalid
	podsim_pod_moves_total{result}                   Counter  moved | rejected | noop
	podsim_event_subscribers                         Gauge
	podsim_cluster_resets_total                      Counter

Scheduling decisions take microseconds, so the latency histogram uses
exponential buckets starting at one microsecond instead of the default buckets.

# Health

UpdateComponent records the health of the "cluster" component (the result of
the invariant check after each operation) and, when a journal is configured,
the "journal" component. /ready requires the cluster component; /health
reports unhealthy if any component is.

# Usage

	timer := metrics.NewTimer()
	placement, err := c.SchedulePod(podID)
	timer.ObserveDurationVec(metrics.SchedulingLatency, string(c.Policy()))

	http.ListenAndServe(":9090", metrics.NewServeMux())

Example queries:

	# Share of scheduling attempts that left the pod pending
	sum(rate(podsim_scheduling_attempts_total{result="pending"}[5m]))
	  / sum(rate(podsim_scheduling_attempts_total[5m]))

	# Most loaded node
	topk(1, podsim_node_cpu_utilization_ratio)
*/
package metrics
