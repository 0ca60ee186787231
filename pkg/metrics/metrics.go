package metrics

import (
	"net/http"
	"time"

	"github.com/cuemby/podsim/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster metrics
	NodesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "podsim_nodes_total",
			Help: "Total number of nodes in the cluster",
		},
	)

	PodsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "podsim_pods_total",
			Help: "Total number of pods by status",
		},
		[]string{"status"},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "podsim_queue_depth",
			Help: "Number of pods waiting in the scheduling queue",
		},
	)

	ClusterCPUUtilization = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "podsim_cluster_cpu_utilization_ratio",
			Help: "Reserved CPU as a fraction of total cluster CPU",
		},
	)

	ClusterMemoryUtilization = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "podsim_cluster_memory_utilization_ratio",
			Help: "Reserved memory as a fraction of total cluster memory",
		},
	)

	// Node metrics
	NodeCPUUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "podsim_node_cpu_utilization_ratio",
			Help: "Reserved CPU as a fraction of node CPU",
		},
		[]string{"node", "name"},
	)

	NodeMemoryUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "podsim_node_memory_utilization_ratio",
			Help: "Reserved memory as a fraction of node memory",
		},
		[]string{"node", "name"},
	)

	// Scheduler metrics
	SchedulingAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podsim_scheduling_attempts_total",
			Help: "Total number of scheduling attempts by policy and result",
		},
		[]string{"policy", "result"},
	)

	SchedulingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "podsim_scheduling_latency_seconds",
			Help:    "Time taken to select a node and commit a placement in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		},
		[]string{"policy"},
	)

	QueueDrainDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "podsim_queue_drain_duration_seconds",
			Help:    "Time taken to attempt every queued pod once in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		},
	)

	PodsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "podsim_pods_created_total",
			Help: "Total number of pods accepted into the queue",
		},
	)

	PodsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podsim_pods_rejected_total",
			Help: "Total number of pod creations rejected by reason",
		},
		[]string{"reason"},
	)

	PodMoves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podsim_pod_moves_total",
			Help: "Total number of manual pod moves by result",
		},
		[]string{"result"},
	)

	ClusterResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "podsim_cluster_resets_total",
			Help: "Total number of cluster resets",
		},
	)

	// Event metrics
	EventSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "podsim_event_subscribers",
			Help: "Number of active activity event subscribers",
		},
	)
)

// Scheduling results
const (
	ResultScheduled = "scheduled"
	ResultPending   = "pending"
)

// Move results
const (
	MoveMoved    = "moved"
	MoveRejected = "rejected"
	MoveNoop     = "noop"
)

func init() {
	// Register all metrics
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(PodsTotal)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(ClusterCPUUtilization)
	prometheus.MustRegister(ClusterMemoryUtilization)
	prometheus.MustRegister(NodeCPUUtilization)
	prometheus.MustRegister(NodeMemoryUtilization)
	prometheus.MustRegister(SchedulingAttempts)
	prometheus.MustRegister(SchedulingLatency)
	prometheus.MustRegister(QueueDrainDuration)
	prometheus.MustRegister(PodsCreated)
	prometheus.MustRegister(PodsRejected)
	prometheus.MustRegister(PodMoves)
	prometheus.MustRegister(ClusterResets)
	prometheus.MustRegister(EventSubscribers)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCluster refreshes the cluster and node gauges from a snapshot
func RecordCluster(stats types.ClusterStats, nodes []types.NodeInfo) {
	NodesTotal.Set(float64(stats.Nodes))
	PodsTotal.WithLabelValues(string(types.PodStatusRunning)).Set(float64(stats.RunningPods))
	PodsTotal.WithLabelValues(string(types.PodStatusPending)).Set(float64(stats.QueuedPods))
	QueueDepth.Set(float64(stats.QueuedPods))
	ClusterCPUUtilization.Set(stats.CPUPercent / 100)
	ClusterMemoryUtilization.Set(stats.MemoryPercent / 100)

	// Names may repeat; the id keeps one series per node
	for _, node := range nodes {
		NodeCPUUtilization.WithLabelValues(node.ID, node.Name).Set(node.CPUPercent / 100)
		NodeMemoryUtilization.WithLabelValues(node.ID, node.Name).Set(node.MemoryPercent / 100)
	}
}

// Timer measures the duration of an operation
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in a histogram
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time in a histogram vector
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}
