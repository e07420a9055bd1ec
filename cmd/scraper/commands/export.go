package commands

import (
	"errors"
	"log/slog"
	"os"

	"nusmods-scraper/internal/export"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/persist"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	exportYear *string
	exportOut  *string
)

func init() {
	exportYear = exportCmd.Flags().String("year", "", "The academic year to export, e.g. 2016/2017.")
	exportOut = exportCmd.Flags().StringP("out", "o", "bidding.xlsx", "The spreadsheet to write.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export-bidding",
	Short: "Writes the bidding stats of an academic year to a spreadsheet, reading the archive when one is configured.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := loadApp(ctx)
		defer a.close()
		year := a.year(*exportYear)

		var stats []model.BiddingStat
		if a.archive != nil {
			var err error
			stats, err = a.archive.List(ctx, model.FormatAcadYear(year))
			if err != nil {
				serviceutil.Fatal("failed to read bidding archive", err)
			}
		} else {
			for _, semester := range model.Semesters {
				var page []model.BiddingStat
				err := a.files.Read(ctx, sources.RawPath(a.cfg.Bidding.Output, year, semester), &page)
				if errors.Is(err, persist.ErrNotFound) {
					continue
				}
				if err != nil {
					serviceutil.Fatal("failed to read bidding stats", err)
				}
				stats = append(stats, page...)
			}
		}

		f, err := os.Create(*exportOut)
		if err != nil {
			serviceutil.Fatal("failed to create output", err)
		}
		defer f.Close()
		err = export.WriteBidding(f, stats)
		if err != nil {
			serviceutil.Fatal("failed to write spreadsheet", err)
		}
		slog.Info("exported bidding stats", "rows", len(stats), "out", *exportOut)
	},
}
