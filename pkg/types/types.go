package types

import (
	"fmt"
	"time"
)

// cpuEpsilon absorbs floating point drift when fractional CPU requests are
// reserved and released in a different order.
const cpuEpsilon = 1e-9

// ResourcePool tracks capacity and usage of a single node
type ResourcePool struct {
	// Total capacity
	TotalCPU    float64 // Cores
	TotalMemory int64   // MB

	// Currently reserved by running pods
	UsedCPU    float64
	UsedMemory int64
}

// NewResourcePool returns an empty pool with the given capacity
func NewResourcePool(cpu float64, memory int64) ResourcePool {
	return ResourcePool{TotalCPU: cpu, TotalMemory: memory}
}

// CanFit reports whether the free capacity covers the request in both dimensions.
// The comparison is inclusive: a request equal to the free capacity fits.
func (p *ResourcePool) CanFit(cpu float64, memory int64) bool {
	return p.TotalCPU-p.UsedCPU >= cpu && p.TotalMemory-p.UsedMemory >= memory
}

// Reserve adds the request to the used amounts. Callers check CanFit first.
func (p *ResourcePool) Reserve(cpu float64, memory int64) {
	p.UsedCPU += cpu
	p.UsedMemory += memory
}

// Release subtracts the request from the used amounts. Releasing more than is
// reserved means the accounting is corrupt, so it panics.
func (p *ResourcePool) Release(cpu float64, memory int64) {
	usedCPU := p.UsedCPU - cpu
	usedMemory := p.UsedMemory - memory
	if usedCPU < -cpuEpsilon || usedMemory < 0 {
		panic(fmt.Sprintf("resource pool underflow: release cpu=%g memory=%d from used cpu=%g memory=%d",
			cpu, memory, p.UsedCPU, p.UsedMemory))
	}
	if usedCPU < 0 {
		usedCPU = 0
	}
	p.UsedCPU = usedCPU
	p.UsedMemory = usedMemory
}

// Clear drops all usage
func (p *ResourcePool) Clear() {
	p.UsedCPU = 0
	p.UsedMemory = 0
}

// AvailableCPU returns the unreserved CPU
func (p *ResourcePool) AvailableCPU() float64 {
	return p.TotalCPU - p.UsedCPU
}

// AvailableMemory returns the unreserved memory in MB
func (p *ResourcePool) AvailableMemory() int64 {
	return p.TotalMemory - p.UsedMemory
}

// CPUFraction returns used/total CPU, or 0 for a zero-capacity pool
func (p *ResourcePool) CPUFraction() float64 {
	if p.TotalCPU == 0 {
		return 0
	}
	return p.UsedCPU / p.TotalCPU
}

// MemoryFraction returns used/total memory, or 0 for a zero-capacity pool
func (p *ResourcePool) MemoryFraction() float64 {
	if p.TotalMemory == 0 {
		return 0
	}
	return float64(p.UsedMemory) / float64(p.TotalMemory)
}

// Utilization is the average of CPU and memory usage in percent (0-100)
func (p *ResourcePool) Utilization() float64 {
	return (p.CPUFraction()*100 + p.MemoryFraction()*100) / 2
}

// Node represents a simulated machine in the cluster
type Node struct {
	ID        string
	Name      string
	Resources ResourcePool
	PodIDs    []string // Hosted pods in placement order
	CreatedAt time.Time
}

// HasPod reports whether the node hosts the given pod
func (n *Node) HasPod(podID string) bool {
	return n.podIndex(podID) >= 0
}

// AddPod appends a pod id to the hosted list
func (n *Node) AddPod(podID string) {
	n.PodIDs = append(n.PodIDs, podID)
}

// RemovePod drops a pod id from the hosted list, keeping the order of the rest
func (n *Node) RemovePod(podID string) bool {
	i := n.podIndex(podID)
	if i < 0 {
		return false
	}
	n.PodIDs = append(n.PodIDs[:i], n.PodIDs[i+1:]...)
	return true
}

func (n *Node) podIndex(podID string) int {
	for i, id := range n.PodIDs {
		if id == podID {
			return i
		}
	}
	return -1
}

// PodStatus represents the lifecycle state of a pod
type PodStatus string

const (
	PodStatusPending PodStatus = "pending"
	PodStatusRunning PodStatus = "running"
)

// Pod represents a workload request
type Pod struct {
	ID            string
	Name          string
	CPURequest    float64 // Cores
	MemoryRequest int64   // MB
	Status        PodStatus
	NodeID        string // Set once running
	CreatedAt     time.Time
	ScheduledAt   time.Time // Zero until running
}

// Policy identifies a scheduling strategy
type Policy string

const (
	PolicySpread  Policy = "spread"
	PolicyBinPack Policy = "binpack"
	PolicyRandom  Policy = "random"
)

// Policies lists every supported policy
var Policies = []Policy{PolicySpread, PolicyBinPack, PolicyRandom}

// Valid reports whether p names a supported policy
func (p Policy) Valid() bool {
	switch p {
	case PolicySpread, PolicyBinPack, PolicyRandom:
		return true
	}
	return false
}

// DisplayName returns the human readable policy name
func (p Policy) DisplayName() string {
	switch p {
	case PolicySpread:
		return "Spread (Balanced)"
	case PolicyBinPack:
		return "Bin Packing (Efficient)"
	case PolicyRandom:
		return "Random"
	default:
		return string(p)
	}
}

// NodeInfo is a read-only snapshot of a node
type NodeInfo struct {
	ID              string
	Name            string
	TotalCPU        float64
	UsedCPU         float64
	AvailableCPU    float64
	TotalMemory     int64
	UsedMemory      int64
	AvailableMemory int64
	CPUPercent      float64
	MemoryPercent   float64
	PodIDs          []string
}

// NewNodeInfo snapshots a node
func NewNodeInfo(n *Node) NodeInfo {
	r := n.Resources
	return NodeInfo{
		ID:              n.ID,
		Name:            n.Name,
		TotalCPU:        r.TotalCPU,
		UsedCPU:         r.UsedCPU,
		AvailableCPU:    r.AvailableCPU(),
		TotalMemory:     r.TotalMemory,
		UsedMemory:      r.UsedMemory,
		AvailableMemory: r.AvailableMemory(),
		CPUPercent:      r.CPUFraction() * 100,
		MemoryPercent:   r.MemoryFraction() * 100,
		PodIDs:          append([]string(nil), n.PodIDs...),
	}
}

// ClusterStats aggregates capacity and usage across all nodes
type ClusterStats struct {
	Nodes         int
	MaxNodes      int
	RunningPods   int
	QueuedPods    int
	QueueCapacity int
	TotalCPU      float64
	UsedCPU       float64
	TotalMemory   int64
	UsedMemory    int64
	CPUPercent    float64
	MemoryPercent float64
	Policy        Policy
}

// FormatMemory renders megabytes, switching to GB from 1024 MB up
func FormatMemory(mb int64) string {
	if mb >= 1024 {
		return fmt.Sprintf("%.1f GB", float64(mb)/1024)
	}
	return fmt.Sprintf("%d MB", mb)
}
