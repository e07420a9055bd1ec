package commands

import (
	"log/slog"

	"nusmods-scraper/internal/components/chrono"
	"nusmods-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Runs the full scrape on the configured cron schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := loadApp(ctx)
		defer a.close()

		p := a.pipeline()
		cron := chrono.NewStandardCron(a.clock, a.tel)
		err := cron.Cron(a.cfg.Schedule.Cron, func() {
			summary, err := p.Run(ctx, a.year(""))
			if err != nil {
				slog.Error("scheduled run failed", "err", err.Error())
				return
			}
			slog.Info(
				"scheduled run finished",
				"run", summary.RunID,
				"modules", summary.Modules,
				"took", summary.Duration.String(),
			)
		})
		if err != nil {
			serviceutil.Fatal("invalid schedule", err)
		}
		slog.Info("waiting for schedule", "cron", a.cfg.Schedule.Cron)

		<-ctx.Done()
		cron.Stop()
	},
}
