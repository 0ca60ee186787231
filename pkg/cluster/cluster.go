package cluster

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cuemby/podsim/pkg/scheduler"
	"github.com/cuemby/podsim/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// DefaultMaxNodes is the node ceiling when none is configured
const DefaultMaxNodes = 6

// Config holds configuration for creating a Cluster
type Config struct {
	MaxNodes      int          // Node ceiling (default: 6)
	QueueCapacity int          // Pending pod bound (default: 10)
	Policy        types.Policy // Initial policy (default: spread)
	Rand          *rand.Rand   // Random source for the random policy
	Now           func() time.Time
	NewID         func() string // Pod id generator (default: UUID)
}

// Cluster owns the nodes, the pod table, the pending queue and the active
// scheduling policy. It is not safe for concurrent use.
type Cluster struct {
	nodes    []*types.Node
	pods     map[string]*types.Pod
	queue    *Queue
	policy   types.Policy
	strategy scheduler.Strategy
	rng      *rand.Rand
	maxNodes int
	now      func() time.Time
	newID    func() string
	podSeq   int
}

// Placement is the outcome of one scheduling attempt
type Placement struct {
	Pod    types.Pod
	Node   *types.NodeInfo // nil when no node could fit the pod
	Policy types.Policy
}

// Scheduled reports whether the pod was placed
func (p Placement) Scheduled() bool {
	return p.Node != nil
}

// Err returns ErrNoEligibleNode when the pod stayed queued
func (p Placement) Err() error {
	if p.Node == nil {
		return fmt.Errorf("%w for pod %q", ErrNoEligibleNode, p.Pod.Name)
	}
	return nil
}

// Move is the outcome of a manual pod move. From equals To for a no-op move.
type Move struct {
	Pod  types.Pod
	From types.NodeInfo
	To   types.NodeInfo
}

// New creates an empty cluster
func New(cfg Config) (*Cluster, error) {
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = DefaultMaxNodes
	}
	if cfg.Policy == "" {
		cfg.Policy = types.PolicySpread
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}

	strategy, err := scheduler.New(cfg.Policy, cfg.Rand)
	if err != nil {
		return nil, err
	}

	return &Cluster{
		pods:     make(map[string]*types.Pod),
		queue:    NewQueue(cfg.QueueCapacity),
		policy:   cfg.Policy,
		strategy: strategy,
		rng:      cfg.Rand,
		maxNodes: cfg.MaxNodes,
		now:      cfg.Now,
		newID:    cfg.NewID,
	}, nil
}

// Policy returns the active scheduling policy
func (c *Cluster) Policy() types.Policy {
	return c.policy
}

// SetPolicy switches the strategy used for future scheduling decisions
func (c *Cluster) SetPolicy(policy types.Policy) error {
	strategy, err := scheduler.New(policy, c.rng)
	if err != nil {
		return err
	}
	c.policy = policy
	c.strategy = strategy
	return nil
}

// MaxNodes returns the node ceiling
func (c *Cluster) MaxNodes() int {
	return c.maxNodes
}

// AddNode appends a node with zero usage. Node ids are sequential (node-1,
// node-2, ...) since nodes are never removed.
func (c *Cluster) AddNode(name string, cpu float64, memory int64) (types.NodeInfo, error) {
	if len(c.nodes) >= c.maxNodes {
		return types.NodeInfo{}, fmt.Errorf("%w: maximum %d nodes allowed", ErrNodeLimitReached, c.maxNodes)
	}
	if !validCPU(cpu) || memory <= 0 {
		return types.NodeInfo{}, fmt.Errorf("%w: node capacity must be positive (cpu=%g, memory=%d)", ErrInvalidRequest, cpu, memory)
	}

	id := fmt.Sprintf("node-%d", len(c.nodes)+1)
	if name == "" {
		name = id
	}

	node := &types.Node{
		ID:        id,
		Name:      name,
		Resources: types.NewResourcePool(cpu, memory),
		CreatedAt: c.now(),
	}
	c.nodes = append(c.nodes, node)

	return types.NewNodeInfo(node), nil
}

// GeneratePodName returns prefix-N using the session pod counter
func (c *Cluster) GeneratePodName(prefix string) string {
	c.podSeq++
	return fmt.Sprintf("%s-%d", prefix, c.podSeq)
}

// CreatePod validates a request, builds a pending pod and queues it. An empty
// name is replaced with a generated pod-N name.
func (c *Cluster) CreatePod(name string, cpu float64, memory int64) (types.Pod, error) {
	if !validCPU(cpu) || memory <= 0 {
		return types.Pod{}, fmt.Errorf("%w: pod request must be positive (cpu=%g, memory=%d)", ErrInvalidRequest, cpu, memory)
	}
	if c.queue.Full() {
		return types.Pod{}, fmt.Errorf("%w: schedule existing pods first", ErrQueueFull)
	}

	if name == "" {
		name = c.GeneratePodName("pod")
	}

	pod := types.Pod{
		ID:            c.newID(),
		Name:          name,
		CPURequest:    cpu,
		MemoryRequest: memory,
		Status:        types.PodStatusPending,
		CreatedAt:     c.now(),
	}

	if err := c.Enqueue(pod); err != nil {
		return types.Pod{}, err
	}
	return pod, nil
}

// Enqueue stores a pending pod and appends it to the queue
func (c *Cluster) Enqueue(pod types.Pod) error {
	if pod.Status != types.PodStatusPending {
		return fmt.Errorf("%w: pod %s is %s, not pending", ErrInvalidRequest, pod.ID, pod.Status)
	}
	if _, exists := c.pods[pod.ID]; exists {
		return fmt.Errorf("%w: pod %s already exists", ErrInvalidRequest, pod.ID)
	}
	if err := c.queue.Push(pod.ID); err != nil {
		return err
	}

	c.pods[pod.ID] = &pod
	return nil
}

// SchedulePod runs the active strategy for a queued pod. When no node fits,
// the pod stays queued and the returned Placement has no node; that is not
// an error.
func (c *Cluster) SchedulePod(podID string) (Placement, error) {
	pod, err := c.pendingPod(podID)
	if err != nil {
		return Placement{}, err
	}

	node := c.strategy.Select(c.nodes, pod)
	if node == nil {
		return Placement{Pod: *pod, Policy: c.policy}, nil
	}

	c.commit(pod, node)
	info := types.NewNodeInfo(node)
	return Placement{Pod: *pod, Node: &info, Policy: c.policy}, nil
}

// PlacePod commits a queued pod onto a specific node
func (c *Cluster) PlacePod(podID, nodeID string) (Placement, error) {
	pod, err := c.pendingPod(podID)
	if err != nil {
		return Placement{}, err
	}
	node, err := c.node(nodeID)
	if err != nil {
		return Placement{}, err
	}
	if !node.Resources.CanFit(pod.CPURequest, pod.MemoryRequest) {
		return Placement{}, fmt.Errorf("%w: cannot place pod %q on %s", ErrInsufficientResources, pod.Name, node.Name)
	}

	c.commit(pod, node)
	info := types.NewNodeInfo(node)
	return Placement{Pod: *pod, Node: &info, Policy: c.policy}, nil
}

// DrainQueue attempts every queued pod once, oldest first
func (c *Cluster) DrainQueue() []Placement {
	var placements []Placement
	for _, id := range c.queue.IDs() {
		placement, err := c.SchedulePod(id)
		if err != nil {
			// Queue ids always reference pending pods
			panic(fmt.Sprintf("queued pod %s is not schedulable: %v", id, err))
		}
		placements = append(placements, placement)
	}
	return placements
}

// MovePod moves a running pod to another node. The target is checked against
// its current usage; on failure neither node changes. Moving a pod to the
// node it already runs on is a no-op.
func (c *Cluster) MovePod(podID, targetNodeID string) (Move, error) {
	source := c.hostOf(podID)
	if source == nil {
		return Move{}, fmt.Errorf("%w: %s is not running on any node", ErrPodNotFound, podID)
	}
	pod := c.pods[podID]

	target, err := c.node(targetNodeID)
	if err != nil {
		return Move{}, err
	}

	if target == source {
		info := types.NewNodeInfo(source)
		return Move{Pod: *pod, From: info, To: info}, nil
	}

	if !target.Resources.CanFit(pod.CPURequest, pod.MemoryRequest) {
		return Move{}, fmt.Errorf("%w: cannot move pod %q to %s", ErrInsufficientResources, pod.Name, target.Name)
	}

	source.Resources.Release(pod.CPURequest, pod.MemoryRequest)
	source.RemovePod(pod.ID)
	target.Resources.Reserve(pod.CPURequest, pod.MemoryRequest)
	target.AddPod(pod.ID)
	pod.NodeID = target.ID

	return Move{Pod: *pod, From: types.NewNodeInfo(source), To: types.NewNodeInfo(target)}, nil
}

// Reset clears every node's usage and hosted pods, the pod table and the
// queue. Nodes themselves are kept.
func (c *Cluster) Reset() {
	for _, node := range c.nodes {
		node.Resources.Clear()
		node.PodIDs = nil
	}
	c.pods = make(map[string]*types.Pod)
	c.queue.Clear()
}

// Nodes returns snapshots of all nodes in order
func (c *Cluster) Nodes() []types.NodeInfo {
	infos := make([]types.NodeInfo, 0, len(c.nodes))
	for _, node := range c.nodes {
		infos = append(infos, types.NewNodeInfo(node))
	}
	return infos
}

// Node returns a snapshot of one node
func (c *Cluster) Node(id string) (types.NodeInfo, error) {
	node, err := c.node(id)
	if err != nil {
		return types.NodeInfo{}, err
	}
	return types.NewNodeInfo(node), nil
}

// Pod returns a copy of one pod, queued or running
func (c *Cluster) Pod(id string) (types.Pod, error) {
	pod, ok := c.pods[id]
	if !ok {
		return types.Pod{}, fmt.Errorf("%w: %s", ErrPodNotFound, id)
	}
	return *pod, nil
}

// QueuedPods returns copies of the pending pods, oldest first
func (c *Cluster) QueuedPods() []types.Pod {
	pods := make([]types.Pod, 0, c.queue.Len())
	for _, id := range c.queue.IDs() {
		pods = append(pods, *c.pods[id])
	}
	return pods
}

// RunningPods returns copies of the running pods grouped by node, in node
// order and then placement order
func (c *Cluster) RunningPods() []types.Pod {
	var pods []types.Pod
	for _, node := range c.nodes {
		for _, id := range node.PodIDs {
			pods = append(pods, *c.pods[id])
		}
	}
	return pods
}

// Stats aggregates capacity and usage across all nodes
func (c *Cluster) Stats() types.ClusterStats {
	stats := types.ClusterStats{
		Nodes:         len(c.nodes),
		MaxNodes:      c.maxNodes,
		QueuedPods:    c.queue.Len(),
		QueueCapacity: c.queue.Capacity(),
		Policy:        c.policy,
	}

	for _, node := range c.nodes {
		stats.TotalCPU += node.Resources.TotalCPU
		stats.UsedCPU += node.Resources.UsedCPU
		stats.TotalMemory += node.Resources.TotalMemory
		stats.UsedMemory += node.Resources.UsedMemory
		stats.RunningPods += len(node.PodIDs)
	}

	if stats.TotalCPU > 0 {
		stats.CPUPercent = stats.UsedCPU / stats.TotalCPU * 100
	}
	if stats.TotalMemory > 0 {
		stats.MemoryPercent = float64(stats.UsedMemory) / float64(stats.TotalMemory) * 100
	}

	return stats
}

// Validate checks the bookkeeping invariants: usage within capacity, usage
// equal to the sum of hosted requests, hosted pods matching running pods
// exactly, and the queue matching pending pods exactly.
func (c *Cluster) Validate() error {
	var errs []error
	hosted := make(map[string]string)

	for _, node := range c.nodes {
		r := node.Resources
		if !validCPU(r.TotalCPU) || math.IsNaN(r.UsedCPU) || math.IsInf(r.UsedCPU, 0) {
			errs = append(errs, fmt.Errorf("node %s has non-finite cpu %g/%g", node.ID, r.UsedCPU, r.TotalCPU))
		}
		if r.UsedCPU < 0 || r.UsedMemory < 0 || r.UsedCPU > r.TotalCPU+1e-9 || r.UsedMemory > r.TotalMemory {
			errs = append(errs, fmt.Errorf("node %s usage out of bounds: cpu %g/%g memory %d/%d",
				node.ID, r.UsedCPU, r.TotalCPU, r.UsedMemory, r.TotalMemory))
		}

		var cpu float64
		var memory int64
		for _, id := range node.PodIDs {
			if other, dup := hosted[id]; dup {
				errs = append(errs, fmt.Errorf("pod %s hosted by both %s and %s", id, other, node.ID))
				continue
			}
			hosted[id] = node.ID

			pod, ok := c.pods[id]
			if !ok {
				errs = append(errs, fmt.Errorf("node %s hosts unknown pod %s", node.ID, id))
				continue
			}
			if pod.Status != types.PodStatusRunning || pod.NodeID != node.ID {
				errs = append(errs, fmt.Errorf("pod %s on node %s has status %s and node id %q",
					id, node.ID, pod.Status, pod.NodeID))
			}
			cpu += pod.CPURequest
			memory += pod.MemoryRequest
		}

		if math.Abs(cpu-r.UsedCPU) > 1e-6 || memory != r.UsedMemory {
			errs = append(errs, fmt.Errorf("node %s usage cpu=%g memory=%d does not match hosted requests cpu=%g memory=%d",
				node.ID, r.UsedCPU, r.UsedMemory, cpu, memory))
		}
	}

	for id, pod := range c.pods {
		switch pod.Status {
		case types.PodStatusRunning:
			if _, ok := hosted[id]; !ok {
				errs = append(errs, fmt.Errorf("running pod %s is not hosted by any node", id))
			}
		case types.PodStatusPending:
			if !c.queue.Contains(id) {
				errs = append(errs, fmt.Errorf("pending pod %s is not queued", id))
			}
		default:
			errs = append(errs, fmt.Errorf("pod %s has unknown status %q", id, pod.Status))
		}
	}

	for _, id := range c.queue.IDs() {
		pod, ok := c.pods[id]
		if !ok || pod.Status != types.PodStatusPending {
			errs = append(errs, fmt.Errorf("queued pod %s is not pending", id))
		}
	}

	return multierr.Combine(errs...)
}

// validCPU accepts finite positive core counts. NaN fails the comparison.
func validCPU(cpu float64) bool {
	return cpu > 0 && !math.IsInf(cpu, 1)
}

func (c *Cluster) commit(pod *types.Pod, node *types.Node) {
	node.Resources.Reserve(pod.CPURequest, pod.MemoryRequest)
	node.AddPod(pod.ID)
	pod.Status = types.PodStatusRunning
	pod.NodeID = node.ID
	pod.ScheduledAt = c.now()
	c.queue.Remove(pod.ID)
}

func (c *Cluster) pendingPod(id string) (*types.Pod, error) {
	pod, ok := c.pods[id]
	if !ok || pod.Status != types.PodStatusPending {
		return nil, fmt.Errorf("%w: %s is not waiting in the queue", ErrPodNotFound, id)
	}
	return pod, nil
}

func (c *Cluster) node(id string) (*types.Node, error) {
	for _, node := range c.nodes {
		if node.ID == id {
			return node, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}

func (c *Cluster) hostOf(podID string) *types.Node {
	for _, node := range c.nodes {
		if node.HasPod(podID) {
			return node
		}
	}
	return nil
}
