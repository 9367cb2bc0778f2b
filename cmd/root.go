// Package cmd defines and implements the CLI commands for the pnpharvest
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pnpdata/harvester/internal/config"
	"github.com/pnpdata/harvester/internal/harvest"
	"github.com/pnpdata/harvester/internal/logging"
)

// app carries the configuration and logger shared by all subcommands,
// built once in the root command's PersistentPreRunE.
type app struct {
	cfgFile     string
	retryFailed bool

	cfg    config.Config
	logger *zap.Logger
}

func (a *app) init(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.logger = logger
	return nil
}

// runHarvest wires the store, pacing, and retry layers around a domain
// fetcher and drives the loop. Interruption is a supported outcome and
// returns nil; only setup and persistence failures surface as errors.
func (a *app) runHarvest(ctx context.Context, source harvest.Source, inner harvest.Fetcher, storePath, checkpointPath string) error {
	store, err := harvest.OpenStore(storePath, checkpointPath, a.logger)
	if err != nil {
		return fmt.Errorf("open progress store: %w", err)
	}

	policy := harvest.NewRetryPolicy(a.cfg.Harvest.MaxRetries, a.cfg.BackoffInitial(), a.cfg.BackoffMax())
	fetcher := harvest.NewRateLimitedFetcher(inner, a.cfg.Delay(), policy, a.logger)
	h := harvest.New(source, fetcher, store, harvest.Config{
		SaveInterval: a.cfg.Harvest.SaveInterval,
		RetryFailed:  a.retryFailed,
	}, a.logger)

	summary, err := h.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(summary)
	if summary.State == harvest.StateInterrupted {
		fmt.Printf("Interrupted with %d items remaining. Run the same command again to resume.\n", summary.Remaining)
	}
	return nil
}

func printSummary(s harvest.Summary) {
	fmt.Println(summaryRule)
	fmt.Println("HARVEST SUMMARY")
	fmt.Println(summaryRule)
	fmt.Printf("Total work items:        %d\n", s.Total)
	fmt.Printf("Skipped (already done):  %d\n", s.Skipped)
	fmt.Printf("Succeeded:               %d\n", s.Succeeded)
	fmt.Printf("Not found:               %d\n", s.NotFound)
	fmt.Printf("Failed:                  %d\n", s.Failed)
	fmt.Printf("Remaining:               %d\n", s.Remaining)
	fmt.Printf("Progress store:          %s\n", s.StorePath)
}

const summaryRule = "============================================================"

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "pnpharvest",
		Short: "Resumable harvesters for the photo-archive dataset pipeline.",
		Long: `pnpharvest runs the long-lived, rate-limited download steps of the
photo-archive dataset pipeline: resolving HDL URLs to LCCNs, downloading
MARCXML records per LCCN, expanding Wikipedia links to Wikidata QIDs,
downloading entity statements, and extracting coordinates from expanded
maps URLs.

Every command persists per-item progress to a JSON store as it goes, so an
interrupted run resumes from where it stopped.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (defaults plus HARVESTER_* env vars when omitted)")
	cmd.PersistentFlags().BoolVar(&a.retryFailed, "retry-failed", false, "re-attempt items whose cached outcome is a failure")

	cmd.AddCommand(
		newLCCNCmd(a),
		newMARCCmd(a),
		newQIDsCmd(a),
		newWikidataCmd(a),
		newCoordsCmd(a),
		newStatusCmd(a),
	)
	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// First signal cancels the run cooperatively; a second one falls back to
	// default delivery so a stuck process can still be killed.
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
