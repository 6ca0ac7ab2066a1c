package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aquarian247/aquasim/internal/engine"
	"github.com/aquarian247/aquasim/internal/infra"
	"github.com/aquarian247/aquasim/internal/orchestrator"
	"github.com/aquarian247/aquasim/internal/report"
)

var (
	runExecute    bool
	runDryRun     bool
	runBatches    int
	runSaturation float64
	runStartDate  string
	runWorkers    int
	runDuration   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Plan and execute a simulation run",
	Long: `Derives the batch schedule from the target saturation, partitions batches
across stations, and executes them on a bounded worker pool. With --dry-run
the schedule is printed and validated without simulating anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := infra.Seed(infra.DefaultGeographies())
		plans, err := buildPlans(dir)
		if err != nil {
			return err
		}

		if runDryRun || !runExecute {
			report.RenderPlan(os.Stdout, plans)
			log.Info().Int("batches", len(plans)).Msg("Dry run: plan is feasible")
			return nil
		}

		workers := runWorkers
		if workers <= 0 {
			workers = cfg.Workers
		}
		o := orchestrator.New(dir, workers, cfg.FeedCapacityKg)
		o.BatchTimeout = cfg.BatchTimeout

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		started := time.Now()
		results := o.Execute(ctx, plans)
		if _, err := o.PostProcess(ctx); err != nil {
			return err
		}

		store := o.Emitter.Store()
		for _, bn := range store.Batches() {
			if err := store.Save(cfg.EventDir, bn); err != nil {
				log.Error().Err(err).Str("batch", bn).Msg("Event stream save failed")
			}
		}

		wall := time.Since(started)
		o.Metrics.SetWallSeconds(wall.Seconds())
		report.RenderSummary(os.Stdout, results, o.Metrics, wall)
		return nil
	},
}

// buildPlans resolves the planning flags against the loaded config.
func buildPlans(dir *infra.Directory) ([]engine.BatchPlan, error) {
	start := time.Now()
	if runStartDate != "" {
		var err error
		start, err = time.Parse("2006-01-02", runStartDate)
		if err != nil {
			return nil, fmt.Errorf("bad --start-date %q: %w", runStartDate, err)
		}
	}
	saturation := runSaturation
	if saturation <= 0 {
		saturation = cfg.Saturation
	}
	duration := runDuration
	if duration <= 0 {
		duration = cfg.DurationDays
	}
	return orchestrator.BuildPlans(dir, orchestrator.PlanConfig{
		Saturation:        saturation,
		StartDate:         start,
		Species:           cfg.Species,
		InitialPopulation: cfg.InitialPopulation,
		DurationDays:      duration,
		Batches:           runBatches,
	})
}

func init() {
	runCmd.Flags().BoolVar(&runExecute, "execute", false, "execute the planned batches")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print and validate the plan without executing")
	runCmd.Flags().IntVar(&runBatches, "batches", 0, "override the saturation-derived batch count")
	runCmd.Flags().Float64Var(&runSaturation, "saturation", 0, "target container saturation (0..1)")
	runCmd.Flags().StringVar(&runStartDate, "start-date", "", "first batch start date (YYYY-MM-DD)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "worker pool size (default cpu_count-2)")
	runCmd.Flags().IntVar(&runDuration, "duration", 0, "days to simulate per batch (default 900)")
	rootCmd.AddCommand(runCmd)
}
