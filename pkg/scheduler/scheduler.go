package scheduler

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/cuemby/podsim/pkg/types"
)

// ErrUnknownPolicy is returned when a policy name has no strategy
var ErrUnknownPolicy = errors.New("unknown scheduling policy")

// Strategy picks a node for a pod. Implementations never mutate the nodes.
type Strategy interface {
	// Policy returns the policy this strategy implements
	Policy() types.Policy

	// Select returns the chosen node, or nil if no node can fit the pod
	Select(nodes []*types.Node, pod *types.Pod) *types.Node
}

// New returns the strategy for a policy. rng is only used by the random
// policy; a nil rng falls back to an unseeded source.
func New(policy types.Policy, rng *rand.Rand) (Strategy, error) {
	switch policy {
	case types.PolicySpread:
		return Spread{}, nil
	case types.PolicyBinPack:
		return BinPack{}, nil
	case types.PolicyRandom:
		return NewRandom(rng), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
}

// Eligible returns the nodes whose free capacity covers the pod's request,
// in their original order
func Eligible(nodes []*types.Node, pod *types.Pod) []*types.Node {
	var eligible []*types.Node
	for _, node := range nodes {
		if node.Resources.CanFit(pod.CPURequest, pod.MemoryRequest) {
			eligible = append(eligible, node)
		}
	}
	return eligible
}

// Spread places pods on the least utilized eligible node
type Spread struct{}

// Policy implements Strategy
func (Spread) Policy() types.Policy { return types.PolicySpread }

// Select implements Strategy
func (Spread) Select(nodes []*types.Node, pod *types.Pod) *types.Node {
	var selected *types.Node
	var minUsage float64

	for _, node := range Eligible(nodes, pod) {
		usage := node.Resources.Utilization()
		// Strict comparison keeps the first node on ties
		if selected == nil || usage < minUsage {
			minUsage = usage
			selected = node
		}
	}

	return selected
}

// BinPack places pods on the most utilized eligible node
type BinPack struct{}

// Policy implements Strategy
func (BinPack) Policy() types.Policy { return types.PolicyBinPack }

// Select implements Strategy
func (BinPack) Select(nodes []*types.Node, pod *types.Pod) *types.Node {
	var selected *types.Node
	var maxUsage float64

	for _, node := range Eligible(nodes, pod) {
		usage := node.Resources.Utilization()
		if selected == nil || usage > maxUsage {
			maxUsage = usage
			selected = node
		}
	}

	return selected
}

// Random places pods on a uniformly chosen eligible node
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random strategy drawing from rng
func NewRandom(rng *rand.Rand) *Random {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Random{rng: rng}
}

// Policy implements Strategy
func (r *Random) Policy() types.Policy { return types.PolicyRandom }

// Select implements Strategy
func (r *Random) Select(nodes []*types.Node, pod *types.Pod) *types.Node {
	eligible := Eligible(nodes, pod)
	if len(eligible) == 0 {
		return nil
	}
	return eligible[r.rng.IntN(len(eligible))]
}
