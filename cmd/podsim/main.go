package main

import (
	"fmt"
	"os"

	"github.com/cuemby/podsim/pkg/log"
	"github.com/cuemby/podsim/pkg/metrics"
	"github.com/cuemby/podsim/pkg/orchestrator"
	"github.com/cuemby/podsim/pkg/storage"
	"github.com/cuemby/podsim/pkg/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "podsim",
	Short: "Podsim - Kubernetes-style pod scheduling simulator",
	Long: `Podsim simulates how a container orchestrator places pods onto a
small cluster of nodes with finite CPU and memory.

Pods wait in a bounded FIFO queue until a scheduling policy (spread,
binpack or random) finds a node with room for them. Runs are scripted
with YAML scenarios and can be journaled for later inspection.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Podsim version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(journalCmd)
}

func initLogging(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	jsonOutput, _ := cmd.Flags().GetBool("log-json")
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      parsed,
		JSONOutput: jsonOutput,
	})
	metrics.SetVersion(Version)
	return nil
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Schedule the example stack on the sample cluster",
	Long: `Bootstrap the sample cluster (Worker-1, Worker-2, GPU-Node), submit the
example web application stack and print the resulting cluster state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, _ := cmd.Flags().GetString("policy")
		seed, err := seedFlag(cmd)
		if err != nil {
			return err
		}

		cfg := orchestrator.Config{Policy: types.Policy(policy)}
		if seed != nil {
			cfg.Rand = newRand(*seed)
		}

		orch, err := orchestrator.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create orchestrator: %v", err)
		}
		defer orch.Close()

		if err := orch.Bootstrap(); err != nil {
			return err
		}
		fmt.Printf("%s Sample cluster ready\n", color.GreenString("✓"))

		if _, err := orch.LoadExamples(); err != nil {
			return fmt.Errorf("failed to load examples: %v", err)
		}
		fmt.Printf("%s Example pods submitted\n", color.GreenString("✓"))
		fmt.Println()

		printCluster(orch)
		return nil
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print the events recorded in a journal file",
	RunE: func(cmd *cobra.Command, args []string) error {
		filename, _ := cmd.Flags().GetString("file")

		store, err := storage.OpenReadOnly(filename)
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.ListEvents()
		if err != nil {
			return fmt.Errorf("failed to read journal: %v", err)
		}
		if len(list) == 0 {
			fmt.Println("No events recorded")
			return nil
		}

		for _, event := range list {
			printEvent(*event)
		}
		fmt.Printf("\n%d events\n", len(list))
		return nil
	},
}

func init() {
	demoCmd.Flags().String("policy", string(types.PolicySpread), "Scheduling policy (spread, binpack, random)")
	demoCmd.Flags().Int64("seed", -1, "Random seed (negative for a random seed)")

	journalCmd.Flags().StringP("file", "f", "", "Journal file to read (required)")
	_ = journalCmd.MarkFlagRequired("file")
}
