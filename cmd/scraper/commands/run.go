package commands

import (
	"fmt"
	"os"
	"slices"
	"time"

	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/pipeline"
	"nusmods-scraper/lib/serviceutil"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runYear *string

func init() {
	runYear = runCmd.Flags().String("year", "", "The academic year to scrape, e.g. 2016/2017.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrapes every source for an academic year and writes the collated output.",
	Run: func(cmd *cobra.Command, args []string) {
		a := loadApp(cmd.Context())
		defer a.close()

		summary, err := a.pipeline().Run(cmd.Context(), a.year(*runYear))
		if err != nil {
			serviceutil.Fatal("run failed", err)
		}
		printSummary(a, summary)
	},
}

func printSummary(a app, summary pipeline.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("%s (run %s)", model.FormatAcadYear(summary.AcadYear), summary.RunID))
	t.AppendHeader(table.Row{"Task", "Records"})

	names := make([]string, 0, len(summary.Records))
	for name := range summary.Records {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		t.AppendRow(table.Row{name, humanize.Comma(int64(summary.Records[name]))})
	}

	stats := a.fetcher.Stats()
	t.AppendSeparator()
	t.AppendRow(table.Row{"network requests", humanize.Comma(stats.Network)})
	t.AppendRow(table.Row{"memory cache hits", humanize.Comma(stats.MemoryHits)})
	t.AppendRow(table.Row{"disk cache hits", humanize.Comma(stats.DiskHits)})
	t.AppendFooter(table.Row{"took", summary.Duration.Round(time.Millisecond).String()})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
