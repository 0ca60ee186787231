package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/cuemby/podsim/pkg/events"
	"github.com/cuemby/podsim/pkg/orchestrator"
	"github.com/cuemby/podsim/pkg/scenario"
	"github.com/cuemby/podsim/pkg/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// seedFlag returns nil when --seed is negative
func seedFlag(cmd *cobra.Command) (*uint64, error) {
	seed, err := cmd.Flags().GetInt64("seed")
	if err != nil {
		return nil, err
	}
	if seed < 0 {
		return nil, nil
	}
	s := uint64(seed)
	return &s, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func printReport(report *scenario.Report) {
	for _, result := range report.Steps {
		mark := color.GreenString("✓")
		switch {
		case !result.Matched:
			mark = color.RedString("✗")
		case result.Outcome == scenario.OutcomeRejected || result.Outcome == scenario.OutcomePending:
			mark = color.YellowString("!")
		}

		line := fmt.Sprintf("%s %3d  %-16s %-10s %s", mark, result.Index+1, result.Step.Action, result.Outcome, result.Message)
		if !result.Matched {
			line += fmt.Sprintf(" (expected %s)", result.Step.Expect)
		}
		fmt.Println(line)
	}
}

func printCluster(orch *orchestrator.Orchestrator) {
	stats := orch.Stats()

	fmt.Printf("Policy: %s\n", stats.Policy.DisplayName())
	fmt.Printf("Nodes: %d/%d  Running: %d  Queued: %d/%d\n",
		stats.Nodes, stats.MaxNodes, stats.RunningPods, stats.QueuedPods, stats.QueueCapacity)
	fmt.Printf("CPU: %.1f / %.1f (%.0f%%)  Memory: %s / %s (%.0f%%)\n",
		stats.UsedCPU, stats.TotalCPU, stats.CPUPercent,
		types.FormatMemory(stats.UsedMemory), types.FormatMemory(stats.TotalMemory), stats.MemoryPercent)
	fmt.Println()

	running := orch.RunningPods()
	names := make(map[string]string, len(running))
	for _, pod := range running {
		names[pod.ID] = pod.Name
	}

	fmt.Printf("%-10s %-12s %-14s %-20s %s\n", "ID", "NAME", "CPU", "MEMORY", "PODS")
	for _, node := range orch.Nodes() {
		pods := make([]string, 0, len(node.PodIDs))
		for _, id := range node.PodIDs {
			pods = append(pods, names[id])
		}
		fmt.Printf("%-10s %-12s %-14s %-20s %s\n",
			node.ID,
			node.Name,
			fmt.Sprintf("%.1f/%.1f", node.UsedCPU, node.TotalCPU),
			fmt.Sprintf("%s/%s", types.FormatMemory(node.UsedMemory), types.FormatMemory(node.TotalMemory)),
			strings.Join(pods, ", "))
	}

	if queued := orch.QueuedPods(); len(queued) > 0 {
		fmt.Println()
		fmt.Println("Waiting queue:")
		for i, pod := range queued {
			fmt.Printf("  %d. %s (CPU: %g, Memory: %s)\n", i+1, pod.Name, pod.CPURequest, types.FormatMemory(pod.MemoryRequest))
		}
	}

	if activity := orch.Activity(); len(activity) > 0 {
		fmt.Println()
		fmt.Println("Recent activity:")
		for _, event := range activity {
			printEvent(event)
		}
	}
}

// followEvents prints events as they are published until the subscriber is
// closed. The returned channel is closed once printing stops.
func followEvents(sub events.Subscriber) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range sub {
			printEvent(*event)
		}
	}()
	return done
}

func printEvent(event events.Event) {
	mark := " "
	if event.Type.Warning() {
		mark = color.YellowString("!")
	}
	fmt.Printf("%s [%s] %s\n", mark, event.Timestamp.Format("15:04:05"), event.Message)
}
