package orchestrator

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cuemby/podsim/pkg/cluster"
	"github.com/cuemby/podsim/pkg/events"
	"github.com/cuemby/podsim/pkg/log"
	"github.com/cuemby/podsim/pkg/metrics"
	"github.com/cuemby/podsim/pkg/storage"
	"github.com/cuemby/podsim/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	randomNodeNames = []string{"Worker", "Master", "Storage", "Compute", "GPU"}
	randomNodeCPU   = []float64{2, 4, 8}
	randomNodeMem   = []int64{4096, 8192, 16384}
	randomPodNames  = []string{"web-server", "database", "cache", "api", "worker", "frontend"}
)

// PodSpec describes a pod request
type PodSpec struct {
	Name   string
	CPU    float64
	Memory int64
}

// NodeSpec describes a node to add
type NodeSpec struct {
	Name   string
	CPU    float64
	Memory int64
}

// SampleNodes is the cluster Bootstrap creates
var SampleNodes = []NodeSpec{
	{Name: "Worker-1", CPU: 4, Memory: 8192},
	{Name: "Worker-2", CPU: 4, Memory: 8192},
	{Name: "GPU-Node", CPU: 8, Memory: 16384},
}

// ExamplePods is the web application stack LoadExamples submits
var ExamplePods = []PodSpec{
	{Name: "web-server", CPU: 1.5, Memory: 1024},
	{Name: "database", CPU: 2, Memory: 2048},
	{Name: "cache", CPU: 0.5, Memory: 512},
	{Name: "api-service", CPU: 1, Memory: 768},
}

// Config holds configuration for creating an Orchestrator
type Config struct {
	MaxNodes      int
	QueueCapacity int
	Policy        types.Policy
	Rand          *rand.Rand // Shared by the random policy and the random generators
	Now           func() time.Time
	Journal       storage.Store // Optional; receives every activity event
	HistorySize   int           // Activity feed length (default: 15)
}

// Orchestrator is the thread-safe entry point to a simulation. Every
// operation runs to completion under one lock, so callers never observe a
// partially applied change.
type Orchestrator struct {
	mu      sync.Mutex
	cluster *cluster.Cluster
	rng     *rand.Rand
	now     func() time.Time
	broker  *events.Broker
	history *events.History
	journal storage.Store
	logger  zerolog.Logger
}

// New creates an orchestrator around an empty cluster
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c, err := cluster.New(cluster.Config{
		MaxNodes:      cfg.MaxNodes,
		QueueCapacity: cfg.QueueCapacity,
		Policy:        cfg.Policy,
		Rand:          cfg.Rand,
		Now:           cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster: %w", err)
	}

	broker := events.NewBroker()
	broker.Start()

	o := &Orchestrator{
		cluster: c,
		rng:     cfg.Rand,
		now:     cfg.Now,
		broker:  broker,
		history: events.NewHistory(cfg.HistorySize),
		journal: cfg.Journal,
		logger:  log.WithComponent("orchestrator"),
	}

	metrics.UpdateComponent(metrics.ComponentCluster, true, "")
	if o.journal != nil {
		metrics.UpdateComponent(metrics.ComponentJournal, true, "")
	}
	o.refresh()

	return o, nil
}

// Close stops event delivery. The journal is owned by the caller.
func (o *Orchestrator) Close() {
	o.broker.Stop()
}

// Subscribe returns a channel receiving every future activity event
func (o *Orchestrator) Subscribe() events.Subscriber {
	sub := o.broker.Subscribe()
	metrics.EventSubscribers.Set(float64(o.broker.SubscriberCount()))
	return sub
}

// Unsubscribe stops delivery to a subscriber and closes its channel
func (o *Orchestrator) Unsubscribe(sub events.Subscriber) {
	o.broker.Unsubscribe(sub)
	metrics.EventSubscribers.Set(float64(o.broker.SubscriberCount()))
}

// Bootstrap adds the sample nodes
func (o *Orchestrator) Bootstrap() error {
	for _, spec := range SampleNodes {
		if _, err := o.AddNode(spec.Name, spec.CPU, spec.Memory); err != nil {
			return fmt.Errorf("failed to add sample node %s: %w", spec.Name, err)
		}
	}
	return nil
}

// CreatePod queues a new pending pod without scheduling it
func (o *Orchestrator) CreatePod(name string, cpu float64, memory int64) (types.Pod, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.refresh()

	return o.createPod(name, cpu, memory)
}

// SubmitPod creates a pod and immediately attempts to schedule it
func (o *Orchestrator) SubmitPod(name string, cpu float64, memory int64) (cluster.Placement, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.refresh()

	pod, err := o.createPod(name, cpu, memory)
	if err != nil {
		return cluster.Placement{}, err
	}
	return o.schedulePod(pod.ID)
}

// QuickCreatePod submits a pod with a random name and request
func (o *Orchestrator) QuickCreatePod() (cluster.Placement, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.refresh()

	name := o.cluster.GeneratePodName(randomPodNames[o.rng.IntN(len(randomPodNames))])
	cpu := math.Round((o.rng.Float64()*3+0.5)*10) / 10
	memory := int64(o.rng.IntN(4096) + 128)

	pod, err := o.createPod(name, cpu, memory)
	if err != nil {
		return cluster.Placement{}, err
	}
	return o.schedulePod(pod.ID)
}

// LoadExamples submits the example web application stack. It stops at the
// first rejected pod and returns the placements made so far.
func (o *Orchestrator) LoadExamples() ([]cluster.Placement, error) {
	var placements []cluster.Placement
	for _, spec := range ExamplePods {
		placement, err := o.SubmitPod(spec.Name, spec.CPU, spec.Memory)
		if err != nil {
			return placements, err
		}
		placements = append(placements, placement)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.record(events.EventPodCreated, "Created example pods for web application stack", nil)
	return placements, nil
}

// SchedulePod attempts to place a queued pod with the active policy. A pod
// that fits nowhere stays queued; check Placement.Scheduled.
func (o *Orchestrator) SchedulePod(podID string) (cluster.Placement, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.refresh()

	return o.schedulePod(podID)
}

// DrainQueue attempts every queued pod once, oldest first
func (o *Orchestrator) DrainQueue() []cluster.Placement {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.refresh()

	timer := metrics.NewTimer()
	placements := o.cluster.DrainQueue()
	timer.ObserveDuration(metrics.QueueDrainDuration)

	for _, placement := range placements {
		o.observePlacement(placement)
	}
	return placements
}

// MovePod moves a running pod to another node
func (o *Orchestrator) MovePod(podID, targetNodeID string) (cluster.Move, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.refresh()

	move, err := o.cluster.MovePod(podID, targetNodeID)
	if err != nil {
		metrics.PodMoves.WithLabelValues(metrics.MoveRejected).Inc()
		if errors.Is(err, cluster.ErrInsufficientResources) {
			target, _ := o.cluster.Node(targetNodeID)
			o.record(events.EventPodMoveRejected,
				fmt.Sprintf("Cannot move pod to %s: Insufficient resources", target.Name),
				map[string]string{"pod_id": podID, "node_id": targetNodeID})
		} else {
			logger := log.WithNodeID(log.WithPodID(o.logger, podID), targetNodeID)
			logger.Warn().Err(err).Msg("move ignored")
		}
		return cluster.Move{}, err
	}

	if move.From.ID == move.To.ID {
		metrics.PodMoves.WithLabelValues(metrics.MoveNoop).Inc()
		return move, nil
	}

	metrics.PodMoves.WithLabelValues(metrics.MoveMoved).Inc()
	o.record(events.EventPodMoved,
		fmt.Sprintf("Pod %q manually moved from %s to %s", move.Pod.Name, move.From.Name, move.To.Name),
		map[string]string{"pod_id": move.Pod.ID, "pod": move.Pod.Name, "from": move.From.ID, "to": move.To.ID})
	return move, nil
}

// AddNode adds a node with the given capacity
func (o *Orchestrator) AddNode(name string, cpu float64, memory int64) (types.NodeInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.refresh()

	return o.addNode(name, cpu, memory)
}

// AddRandomNode adds a node with a random role name and size
func (o *Orchestrator) AddRandomNode() (types.NodeInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.refresh()

	name := fmt.Sprintf("%s-%d", randomNodeNames[o.rng.IntN(len(randomNodeNames))], len(o.cluster.Nodes())+1)
	cpu := randomNodeCPU[o.rng.IntN(len(randomNodeCPU))]
	memory := randomNodeMem[o.rng.IntN(len(randomNodeMem))]

	return o.addNode(name, cpu, memory)
}

// Reset removes every pod and clears all usage. Nodes are kept.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.refresh()

	o.cluster.Reset()
	metrics.ClusterResets.Inc()
	o.record(events.EventClusterReset, "Cluster reset to initial state", nil)
}

// SetPolicy changes the policy used for future scheduling decisions
func (o *Orchestrator) SetPolicy(policy types.Policy) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.cluster.SetPolicy(policy); err != nil {
		return err
	}
	o.record(events.EventPolicyChanged,
		fmt.Sprintf("Scheduler algorithm changed to: %s", policy.DisplayName()),
		map[string]string{"policy": string(policy)})
	return nil
}

// Policy returns the active policy
func (o *Orchestrator) Policy() types.Policy {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cluster.Policy()
}

// Nodes returns snapshots of all nodes
func (o *Orchestrator) Nodes() []types.NodeInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cluster.Nodes()
}

// Node returns a snapshot of one node
func (o *Orchestrator) Node(id string) (types.NodeInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cluster.Node(id)
}

// Pod returns a copy of one pod
func (o *Orchestrator) Pod(id string) (types.Pod, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cluster.Pod(id)
}

// QueuedPods returns the pending pods, oldest first
func (o *Orchestrator) QueuedPods() []types.Pod {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cluster.QueuedPods()
}

// RunningPods returns the running pods
func (o *Orchestrator) RunningPods() []types.Pod {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cluster.RunningPods()
}

// Stats returns aggregate cluster statistics
func (o *Orchestrator) Stats() types.ClusterStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cluster.Stats()
}

// Activity returns the most recent events, newest first
func (o *Orchestrator) Activity() []events.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history.Recent()
}

func (o *Orchestrator) createPod(name string, cpu float64, memory int64) (types.Pod, error) {
	pod, err := o.cluster.CreatePod(name, cpu, memory)
	switch {
	case errors.Is(err, cluster.ErrQueueFull):
		metrics.PodsRejected.WithLabelValues("queue_full").Inc()
		o.record(events.EventQueueFull, "Queue full! Please schedule existing pods first.", nil)
		return types.Pod{}, err
	case err != nil:
		metrics.PodsRejected.WithLabelValues("invalid").Inc()
		return types.Pod{}, err
	}

	metrics.PodsCreated.Inc()
	o.record(events.EventPodCreated,
		fmt.Sprintf("Pod %q created (CPU: %g, Memory: %dMB)", pod.Name, pod.CPURequest, pod.MemoryRequest),
		map[string]string{"pod_id": pod.ID, "pod": pod.Name})
	return pod, nil
}

func (o *Orchestrator) schedulePod(podID string) (cluster.Placement, error) {
	timer := metrics.NewTimer()

	placement, err := o.cluster.SchedulePod(podID)
	if err != nil {
		logger := log.WithPodID(o.logger, podID)
		logger.Warn().Err(err).Msg("schedule ignored")
		return placement, err
	}
	timer.ObserveDurationVec(metrics.SchedulingLatency, string(placement.Policy))

	o.observePlacement(placement)
	return placement, nil
}

// observePlacement counts and records one scheduling attempt
func (o *Orchestrator) observePlacement(placement cluster.Placement) {
	policy := string(placement.Policy)

	if !placement.Scheduled() {
		metrics.SchedulingAttempts.WithLabelValues(policy, metrics.ResultPending).Inc()
		o.record(events.EventPodPending,
			fmt.Sprintf("No suitable node found for pod %q. Added to waiting queue.", placement.Pod.Name),
			map[string]string{"pod_id": placement.Pod.ID, "pod": placement.Pod.Name, "policy": policy})
		return
	}

	metrics.SchedulingAttempts.WithLabelValues(policy, metrics.ResultScheduled).Inc()
	o.record(events.EventPodScheduled,
		fmt.Sprintf("Pod %q scheduled to %s using %s", placement.Pod.Name, placement.Node.Name, placement.Policy.DisplayName()),
		map[string]string{"pod_id": placement.Pod.ID, "pod": placement.Pod.Name, "node_id": placement.Node.ID, "policy": policy})
}

func (o *Orchestrator) addNode(name string, cpu float64, memory int64) (types.NodeInfo, error) {
	node, err := o.cluster.AddNode(name, cpu, memory)
	if errors.Is(err, cluster.ErrNodeLimitReached) {
		o.record(events.EventNodeLimitReached,
			fmt.Sprintf("Maximum %d nodes allowed", o.cluster.MaxNodes()), nil)
		return node, err
	}
	if err != nil {
		return node, err
	}

	o.record(events.EventNodeAdded,
		fmt.Sprintf("New node added: %s (CPU: %g, Memory: %s)", node.Name, node.TotalCPU, types.FormatMemory(node.TotalMemory)),
		map[string]string{"node_id": node.ID, "node": node.Name})
	return node, nil
}

// record emits an event to the log, the activity feed, the broker and the
// journal. Callers hold o.mu.
func (o *Orchestrator) record(eventType events.EventType, message string, metadata map[string]string) {
	event := &events.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: o.now(),
		Message:   message,
		Metadata:  metadata,
	}

	logEvent := o.logger.Info()
	if eventType.Warning() {
		logEvent = o.logger.Warn()
	}
	logEvent = logEvent.Str("event", string(eventType))
	for k, v := range metadata {
		logEvent = logEvent.Str(k, v)
	}
	logEvent.Msg(message)

	o.history.Add(event)

	if o.journal != nil {
		if err := o.journal.AppendEvent(event); err != nil {
			o.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to journal event")
			metrics.UpdateComponent(metrics.ComponentJournal, false, err.Error())
		}
	}

	// Copy so subscribers never share the event kept in history
	published := *event
	o.broker.Publish(&published)
}

// refresh verifies the bookkeeping invariants and updates the gauges.
// A violation means the accounting is corrupt, so it panics.
func (o *Orchestrator) refresh() {
	if err := o.cluster.Validate(); err != nil {
		metrics.UpdateComponent(metrics.ComponentCluster, false, err.Error())
		o.logger.Error().Err(err).Msg("cluster invariant violated")
		panic(fmt.Sprintf("cluster invariant violated: %v", err))
	}
	metrics.RecordCluster(o.cluster.Stats(), o.cluster.Nodes())
}
