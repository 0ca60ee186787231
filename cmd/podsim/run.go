package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/podsim/pkg/events"
	"github.com/cuemby/podsim/pkg/metrics"
	"github.com/cuemby/podsim/pkg/orchestrator"
	"github.com/cuemby/podsim/pkg/scenario"
	"github.com/cuemby/podsim/pkg/storage"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario file",
	Long: `Run a podsim scenario from a YAML file.

Examples:
  # Run a scenario
  podsim run -f scenario.yaml

  # Reproduce a run of the random policy and keep its activity
  podsim run -f scenario.yaml --seed 42 --journal run.db

  # Print activity events while the scenario runs
  podsim run -f scenario.yaml --follow

  # Expose metrics and keep serving after the run
  podsim run -f scenario.yaml --metrics-addr :9090`,
	RunE: runScenario,
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "Scenario file to run (required)")
	runCmd.Flags().Int64("seed", -1, "Random seed, overrides the scenario's seed (negative to keep it)")
	runCmd.Flags().String("journal", "", "Append activity events to this journal file")
	runCmd.Flags().Bool("follow", false, "Print activity events as they happen")
	runCmd.Flags().String("metrics-addr", "", "Serve /metrics, /health and /ready on this address after the run")
	_ = runCmd.MarkFlagRequired("file")
}

func runScenario(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	journalPath, _ := cmd.Flags().GetString("journal")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	follow, _ := cmd.Flags().GetBool("follow")

	seed, err := seedFlag(cmd)
	if err != nil {
		return err
	}

	s, err := scenario.Load(filename)
	if err != nil {
		return err
	}

	cfg := s.Config(seed)
	if journalPath != "" {
		store, err := storage.NewBoltStore(journalPath)
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Journal = store
	}

	orch, err := orchestrator.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %v", err)
	}
	defer orch.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := s.Metadata.Name
	if name == "" {
		name = filename
	}
	fmt.Printf("Running scenario: %s\n", name)
	fmt.Println()

	var sub events.Subscriber
	var done <-chan struct{}
	if follow {
		sub = orch.Subscribe()
		done = followEvents(sub)
	}

	report, err := scenario.NewRunner(orch).Run(ctx, s)
	if follow {
		orch.Unsubscribe(sub)
		<-done
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("scenario aborted: %v", err)
	}

	printReport(report)
	fmt.Println()
	printCluster(orch)

	if metricsAddr != "" {
		if err := serveMetrics(ctx, metricsAddr); err != nil {
			return err
		}
	}

	if !report.Passed() {
		return fmt.Errorf("%d step(s) did not match their expected outcome", report.Mismatch)
	}
	return nil
}

// serveMetrics blocks until interrupted
func serveMetrics(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           metrics.NewServeMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server error: %v", err)
		}
	}()

	fmt.Println()
	fmt.Printf("Serving metrics on %s. Press Ctrl+C to stop.\n", addr)

	select {
	case <-ctx.Done():
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %v", err)
	}

	fmt.Println("✓ Shutdown complete")
	return nil
}
