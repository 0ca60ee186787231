package scenario

import (
	"context"
	"fmt"

	"github.com/cuemby/podsim/pkg/cluster"
	"github.com/cuemby/podsim/pkg/log"
	"github.com/cuemby/podsim/pkg/orchestrator"
	"github.com/cuemby/podsim/pkg/types"
	"github.com/rs/zerolog"
)

// Outcome summarizes how a step ended
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeScheduled Outcome = "scheduled"
	OutcomePending   Outcome = "pending"
	OutcomeRejected  Outcome = "rejected"
)

// StepResult records one executed step
type StepResult struct {
	Index   int
	Step    Step
	Outcome Outcome
	Message string
	Err     error // Set for rejected steps
	Matched bool  // False when the step's expected outcome differs
}

// Report is the result of running a scenario
type Report struct {
	Name     string
	Steps    []StepResult
	Stats    types.ClusterStats
	Mismatch int
}

// Passed reports whether every step met its expectation
func (r *Report) Passed() bool {
	return r.Mismatch == 0
}

// Runner executes scenario steps against an orchestrator
type Runner struct {
	orch   *orchestrator.Orchestrator
	pods   map[string]string // pod name -> pod id
	logger zerolog.Logger
}

// NewRunner creates a runner for the given orchestrator
func NewRunner(orch *orchestrator.Orchestrator) *Runner {
	return &Runner{
		orch:   orch,
		pods:   make(map[string]string),
		logger: log.WithComponent("scenario"),
	}
}

// Run sets up the starting cluster and executes every step. Rejected
// operations are recorded in the report; only setup failures and context
// cancellation return an error.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Report, error) {
	report := &Report{Name: s.Metadata.Name}

	if s.Spec.Bootstrap {
		if err := r.orch.Bootstrap(); err != nil {
			return report, fmt.Errorf("failed to bootstrap cluster: %w", err)
		}
	}
	for _, node := range s.Spec.Nodes {
		cpu, memory, err := request(node.CPU, node.Memory)
		if err != nil {
			return report, fmt.Errorf("node %s: %w", node.Name, err)
		}
		if _, err := r.orch.AddNode(node.Name, cpu, memory); err != nil {
			return report, fmt.Errorf("failed to add node %s: %w", node.Name, err)
		}
	}

	for i, step := range s.Spec.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := r.execute(step)
		result.Index = i
		result.Step = step
		result.Matched = step.Expect == "" || step.Expect == result.Outcome
		if !result.Matched {
			report.Mismatch++
		}

		r.logger.Debug().
			Int("step", i).
			Str("action", string(step.Action)).
			Str("outcome", string(result.Outcome)).
			Msg(result.Message)

		report.Steps = append(report.Steps, result)
	}

	report.Stats = r.orch.Stats()
	return report, nil
}

func (r *Runner) execute(step Step) StepResult {
	switch step.Action {
	case ActionCreate:
		cpu, memory, err := request(step.CPU, step.Memory)
		if err != nil {
			return rejected(err)
		}
		pod, err := r.orch.CreatePod(step.Pod, cpu, memory)
		if err != nil {
			return rejected(err)
		}
		r.pods[pod.Name] = pod.ID
		return StepResult{Outcome: OutcomeOK, Message: fmt.Sprintf("pod %s queued", pod.Name)}

	case ActionSubmit:
		cpu, memory, err := request(step.CPU, step.Memory)
		if err != nil {
			return rejected(err)
		}
		placement, err := r.orch.SubmitPod(step.Pod, cpu, memory)
		return r.placed(placement, err)

	case ActionQuickPod:
		placement, err := r.orch.QuickCreatePod()
		return r.placed(placement, err)

	case ActionSchedule:
		id, err := r.podID(step.Pod)
		if err != nil {
			return rejected(err)
		}
		placement, err := r.orch.SchedulePod(id)
		return r.placed(placement, err)

	case ActionDrain:
		var scheduled, pending int
		for _, placement := range r.orch.DrainQueue() {
			if placement.Scheduled() {
				scheduled++
			} else {
				pending++
			}
		}
		return StepResult{Outcome: OutcomeOK, Message: fmt.Sprintf("%d scheduled, %d still pending", scheduled, pending)}

	case ActionMove:
		id, err := r.podID(step.Pod)
		if err != nil {
			return rejected(err)
		}
		nodeID, err := r.nodeID(step.Node)
		if err != nil {
			return rejected(err)
		}
		move, err := r.orch.MovePod(id, nodeID)
		if err != nil {
			return rejected(err)
		}
		return StepResult{Outcome: OutcomeOK, Message: fmt.Sprintf("pod %s moved from %s to %s", move.Pod.Name, move.From.Name, move.To.Name)}

	case ActionAddNode:
		cpu, memory, err := request(step.CPU, step.Memory)
		if err != nil {
			return rejected(err)
		}
		node, err := r.orch.AddNode(step.Node, cpu, memory)
		if err != nil {
			return rejected(err)
		}
		return StepResult{Outcome: OutcomeOK, Message: fmt.Sprintf("node %s added", node.Name)}

	case ActionAddRandomNode:
		node, err := r.orch.AddRandomNode()
		if err != nil {
			return rejected(err)
		}
		return StepResult{Outcome: OutcomeOK, Message: fmt.Sprintf("node %s added", node.Name)}

	case ActionPolicy:
		if err := r.orch.SetPolicy(step.Policy); err != nil {
			return rejected(err)
		}
		return StepResult{Outcome: OutcomeOK, Message: fmt.Sprintf("policy set to %s", step.Policy.DisplayName())}

	case ActionReset:
		r.orch.Reset()
		r.pods = make(map[string]string)
		return StepResult{Outcome: OutcomeOK, Message: "cluster reset"}

	case ActionExamples:
		placements, err := r.orch.LoadExamples()
		for _, placement := range placements {
			r.pods[placement.Pod.Name] = placement.Pod.ID
		}
		if err != nil {
			return rejected(err)
		}
		return StepResult{Outcome: OutcomeOK, Message: fmt.Sprintf("%d example pods submitted", len(placements))}
	}

	return rejected(fmt.Errorf("unknown action %q", step.Action))
}

func (r *Runner) placed(placement cluster.Placement, err error) StepResult {
	if err != nil {
		return rejected(err)
	}
	r.pods[placement.Pod.Name] = placement.Pod.ID

	if !placement.Scheduled() {
		return StepResult{Outcome: OutcomePending, Message: placement.Err().Error()}
	}
	return StepResult{
		Outcome: OutcomeScheduled,
		Message: fmt.Sprintf("pod %s scheduled to %s", placement.Pod.Name, placement.Node.Name),
	}
}

func (r *Runner) podID(name string) (string, error) {
	id, ok := r.pods[name]
	if !ok {
		return "", fmt.Errorf("%w: no pod named %q", cluster.ErrPodNotFound, name)
	}
	return id, nil
}

// nodeID resolves a node by name, falling back to its id
func (r *Runner) nodeID(ref string) (string, error) {
	for _, node := range r.orch.Nodes() {
		if node.Name == ref || node.ID == ref {
			return node.ID, nil
		}
	}
	return "", fmt.Errorf("%w: no node named %q", cluster.ErrNodeNotFound, ref)
}

func rejected(err error) StepResult {
	return StepResult{Outcome: OutcomeRejected, Message: err.Error(), Err: err}
}
