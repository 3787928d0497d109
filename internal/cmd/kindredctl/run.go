package kindredctl

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/kindred/internal/services/lifecycle/app"
	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	lifecyclesqlite "github.com/louisbranch/kindred/internal/services/lifecycle/storage/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) newRunCommand() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily batch once",
		Long: `Run the daily lifecycle batch against the local store and print its summary.

Examples:
  kindredctl run
  kindredctl run --date 2026-10-16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runDate := domain.Day(c.clock())
			if date != "" {
				parsed, err := domain.ParseDateKey(date)
				if err != nil {
					return err
				}
				runDate = parsed
			}
			weekday, err := domain.ParseWeekday(c.cfg.MaintenanceWeekday)
			if err != nil {
				return err
			}
			return c.withStore(cmd, func(store *lifecyclesqlite.Store, logger *zap.Logger) error {
				cfg := app.DefaultConfig()
				cfg.Concurrency = c.cfg.Concurrency
				cfg.MaintenanceWeekday = weekday
				batch := app.NewBatch(store, logger, app.WithConfig(cfg), app.WithClock(c.clock))
				summary, err := batch.Run(cmd.Context(), runDate)
				if err != nil {
					return fmt.Errorf("run batch: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Run date as YYYY-MM-DD (default today, UTC)")
	cmd.Flags().IntVar(&c.cfg.Concurrency, "concurrency", c.cfg.Concurrency, "Companions processed in parallel")
	cmd.Flags().StringVar(&c.cfg.MaintenanceWeekday, "maintenance-weekday", c.cfg.MaintenanceWeekday, "Weekday of the weekly maintenance boundary")
	return cmd
}

type runView struct {
	RunDate    string          `json:"run_date"`
	StartedAt  string          `json:"started_at"`
	FinishedAt string          `json:"finished_at"`
	Summary    json.RawMessage `json:"summary"`
}

func (c *cli) newRunsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent batch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(store *lifecyclesqlite.Store, _ *zap.Logger) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, runView{
						RunDate:    domain.DateKey(run.RunDate),
						StartedAt:  run.StartedAt.UTC().Format(timeLayout),
						FinishedAt: run.FinishedAt.UTC().Format(timeLayout),
						Summary:    json.RawMessage(run.Summary),
					})
				}
				return writeJSON(cmd.OutOrStdout(), views)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum runs to list")
	return cmd
}
