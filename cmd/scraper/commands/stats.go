package commands

import (
	"os"
	"path/filepath"
	"strconv"

	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/fetch"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/lib/serviceutil"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsYear *string

func init() {
	statsYear = statsCmd.Flags().String("year", "", "The academic year to inspect, e.g. 2016/2017.")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints what is on disk for an academic year along with the size of the fetch cache.",
	Run: func(cmd *cobra.Command, args []string) {
		a := loadApp(cmd.Context())
		defer a.close()
		year := a.year(*statsYear)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(model.FormatAcadYear(year))
		t.AppendHeader(table.Row{"Source", "Semester", "Size", "Modified"})

		raw := []struct {
			name string
			out  config.Output
		}{
			{"bulletinModules", a.cfg.Bulletin.Output},
			{"cors", a.cfg.Cors.Output},
			{"corsBiddingStats", a.cfg.Bidding.Output},
			{"examTimetable", a.cfg.Exams.Output},
			{"ivle", a.cfg.Ivle.Output},
		}
		for _, source := range raw {
			for _, semester := range model.Semesters {
				info, err := os.Stat(filepath.Join(a.files.Root(), sources.RawPath(source.out, year, semester)))
				if err != nil {
					continue
				}
				t.AppendRow(table.Row{
					source.name,
					strconv.Itoa(semester),
					humanize.Bytes(uint64(info.Size())),
					humanize.Time(info.ModTime()),
				})
			}
		}
		info, err := os.Stat(filepath.Join(a.files.Root(), sources.YearPath(a.cfg.Venues.Output, year, a.cfg.Venues.DestFileName)))
		if err == nil {
			t.AppendRow(table.Row{"venues", "", humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime())})
		}

		store, err := a.openStore(cmd.Context(), year)
		if err != nil {
			serviceutil.Fatal("failed to open store", err)
		}
		defer store.Close()
		codes, err := store.GetModuleCodes(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list modules", err)
		}

		files, size, err := fetch.CacheSize(a.cfg.Fetch.CacheDir)
		if err != nil {
			serviceutil.Fatal("failed to measure cache", err)
		}

		t.AppendSeparator()
		t.AppendRow(table.Row{"collated modules", "", humanize.Comma(int64(len(codes))), ""})
		t.AppendRow(table.Row{"fetch cache", filepath.Base(a.cfg.Fetch.CacheDir), humanize.Bytes(uint64(size)), humanize.Comma(int64(files)) + " responses"})
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
