package commands

import (
	"nusmods-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

var collateYear *string

func init() {
	collateYear = collateCmd.Flags().String("year", "", "The academic year to collate, e.g. 2016/2017.")
	rootCmd.AddCommand(collateCmd)
}

var collateCmd = &cobra.Command{
	Use:   "collate",
	Short: "Rebuilds the canonical output from the raw dumps already on disk.",
	Run: func(cmd *cobra.Command, args []string) {
		a := loadApp(cmd.Context())
		defer a.close()

		summary, err := a.pipeline().Collate(cmd.Context(), a.year(*collateYear))
		if err != nil {
			serviceutil.Fatal("collate failed", err)
		}
		printSummary(a, summary)
	},
}
