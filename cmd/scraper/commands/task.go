package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/pipeline"
	"nusmods-scraper/lib/serviceutil"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	taskYear     *string
	taskSemester *int
)

func init() {
	taskYear = taskCmd.Flags().String("year", "", "The academic year to scrape, e.g. 2016/2017.")
	taskSemester = taskCmd.Flags().Int("semester", 1, "The semester to scrape, 1 to 4.")
	rootCmd.AddCommand(taskCmd)
}

var taskCmd = &cobra.Command{
	Use:       "task <name>",
	Short:     "Runs a single source task: " + strings.Join(pipeline.Sources, ", ") + ".",
	Args:      cobra.ExactArgs(1),
	ValidArgs: pipeline.Sources,
	Run: func(cmd *cobra.Command, args []string) {
		if !model.ValidSemester(*taskSemester) {
			serviceutil.Fatal("invalid --semester", fmt.Errorf("semester %d is not between 1 and 4", *taskSemester))
		}

		a := loadApp(cmd.Context())
		defer a.close()

		year := a.year(*taskYear)
		err := a.files.Begin(uuid.NewString())
		if err != nil {
			serviceutil.Fatal("failed to stage output", err)
		}
		count, err := a.pipeline().RunSource(cmd.Context(), args[0], year, *taskSemester)
		if err != nil {
			a.files.Discard()
			serviceutil.Fatal("task failed", err)
		}
		err = a.files.Commit()
		if err != nil {
			serviceutil.Fatal("failed to commit output", err)
		}

		slog.Info(
			"task finished",
			"task", args[0],
			"year", model.FormatAcadYear(year),
			"semester", *taskSemester,
			"records", count,
		)
	},
}
