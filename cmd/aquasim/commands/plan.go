package commands

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aquarian247/aquasim/internal/infra"
	"github.com/aquarian247/aquasim/internal/orchestrator"
	"github.com/aquarian247/aquasim/internal/report"
)

var planOut string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Write the batch schedule artifact without executing",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := infra.Seed(infra.DefaultGeographies())
		plans, err := buildPlans(dir)
		if err != nil {
			return err
		}

		path := planOut
		if path == "" {
			path = filepath.Join(cfg.ScheduleDir, "schedule.yaml")
		}
		if err := orchestrator.SaveSchedule(path, &orchestrator.Schedule{
			Saturation: cfg.Saturation,
			Batches:    plans,
		}); err != nil {
			return err
		}

		report.RenderPlan(os.Stdout, plans)
		log.Info().Str("path", path).Int("batches", len(plans)).Msg("Schedule written")
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planOut, "out", "", "schedule artifact path (default <data>/schedules/schedule.yaml)")
	planCmd.Flags().IntVar(&runBatches, "batches", 0, "override the saturation-derived batch count")
	planCmd.Flags().Float64Var(&runSaturation, "saturation", 0, "target container saturation (0..1)")
	planCmd.Flags().StringVar(&runStartDate, "start-date", "", "first batch start date (YYYY-MM-DD)")
	rootCmd.AddCommand(planCmd)
}
