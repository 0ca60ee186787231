package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/cuemby/podsim/pkg/orchestrator"
	"github.com/cuemby/podsim/pkg/types"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	APIVersion = "podsim/v1"
	Kind       = "Scenario"
)

// Action names a scenario step
type Action string

const (
	ActionCreate        Action = "create"
	ActionSubmit        Action = "submit"
	ActionSchedule      Action = "schedule"
	ActionDrain         Action = "drain"
	ActionMove          Action = "move"
	ActionAddNode       Action = "add-node"
	ActionAddRandomNode Action = "add-random-node"
	ActionQuickPod      Action = "quick-pod"
	ActionPolicy        Action = "policy"
	ActionReset         Action = "reset"
	ActionExamples      Action = "examples"
)

// Scenario is a scripted simulation loaded from YAML
type Scenario struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Spec       Spec     `yaml:"spec"`
}

type Metadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Spec describes the starting cluster and the steps to run against it
type Spec struct {
	Policy        types.Policy `yaml:"policy,omitempty"`
	MaxNodes      int          `yaml:"maxNodes,omitempty"`
	QueueCapacity int          `yaml:"queueCapacity,omitempty"`
	Seed          *uint64      `yaml:"seed,omitempty"`
	Bootstrap     bool         `yaml:"bootstrap,omitempty"` // Start from the sample nodes
	Nodes         []NodeSpec   `yaml:"nodes,omitempty"`
	Steps         []Step       `yaml:"steps"`
}

type NodeSpec struct {
	Name   string `yaml:"name"`
	CPU    CPU    `yaml:"cpu"`
	Memory Memory `yaml:"memory"`
}

// Step is one operation. Pods and nodes are referenced by name.
type Step struct {
	Action Action       `yaml:"action"`
	Pod    string       `yaml:"pod,omitempty"`
	Node   string       `yaml:"node,omitempty"`
	CPU    CPU          `yaml:"cpu,omitempty"`
	Memory Memory       `yaml:"memory,omitempty"`
	Policy types.Policy `yaml:"policy,omitempty"`
	Expect Outcome      `yaml:"expect,omitempty"`
}

// Load reads and validates a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the document shape. Resource limits are left to the
// cluster, which reports them as rejected steps.
func (s *Scenario) Validate() error {
	var err error

	if s.APIVersion != APIVersion {
		err = multierr.Append(err, fmt.Errorf("unsupported apiVersion %q (want %s)", s.APIVersion, APIVersion))
	}
	if s.Kind != Kind {
		err = multierr.Append(err, fmt.Errorf("unsupported kind %q (want %s)", s.Kind, Kind))
	}
	if s.Spec.Policy != "" && !s.Spec.Policy.Valid() {
		err = multierr.Append(err, fmt.Errorf("unknown policy %q", s.Spec.Policy))
	}
	if s.Spec.MaxNodes < 0 || s.Spec.QueueCapacity < 0 {
		err = multierr.Append(err, errors.New("maxNodes and queueCapacity must not be negative"))
	}

	for i, node := range s.Spec.Nodes {
		if _, _, nodeErr := request(node.CPU, node.Memory); nodeErr != nil {
			err = multierr.Append(err, fmt.Errorf("nodes[%d]: %w", i, nodeErr))
		}
	}

	for i, step := range s.Spec.Steps {
		if stepErr := step.validate(); stepErr != nil {
			err = multierr.Append(err, fmt.Errorf("steps[%d]: %w", i, stepErr))
		}
	}

	return err
}

func (st Step) validate() error {
	switch st.Action {
	case ActionCreate, ActionSubmit, ActionAddNode:
		if _, _, err := request(st.CPU, st.Memory); err != nil {
			return fmt.Errorf("%s: %w", st.Action, err)
		}
	case ActionSchedule:
		if st.Pod == "" {
			return fmt.Errorf("%s requires pod", st.Action)
		}
	case ActionMove:
		if st.Pod == "" || st.Node == "" {
			return fmt.Errorf("%s requires pod and node", st.Action)
		}
	case ActionPolicy:
		if !st.Policy.Valid() {
			return fmt.Errorf("unknown policy %q", st.Policy)
		}
	case ActionDrain, ActionAddRandomNode, ActionQuickPod, ActionReset, ActionExamples:
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}

	switch st.Expect {
	case "", OutcomeOK, OutcomeScheduled, OutcomePending, OutcomeRejected:
		return nil
	default:
		return fmt.Errorf("unknown expected outcome %q", st.Expect)
	}
}

// Config returns the orchestrator configuration the scenario asks for. A
// non-nil seed overrides the scenario's own seed.
func (s *Scenario) Config(seed *uint64) orchestrator.Config {
	cfg := orchestrator.Config{
		MaxNodes:      s.Spec.MaxNodes,
		QueueCapacity: s.Spec.QueueCapacity,
		Policy:        s.Spec.Policy,
	}
	if seed == nil {
		seed = s.Spec.Seed
	}
	if seed != nil {
		cfg.Rand = rand.New(rand.NewPCG(*seed, *seed))
	}
	return cfg
}
