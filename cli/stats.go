package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/shelfmates/bookshelf/internal/progress"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Reading statistics",
}

var statsPagesCmd = &cobra.Command{
	Use:   "pages [year]",
	Short: "Pages read in a calendar year",
	Long:  `Show the total pages read in a year, with date ranges prorated by the days that fall inside it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("year must be a number")
		}
		username, err := currentUser()
		if err != nil {
			return err
		}

		var report progress.Report
		if _, err := apiGet("/pages-read/"+args[0]+"?username="+url.QueryEscape(username), &report); err != nil {
			printError(fmt.Sprintf("Failed to load stats: %v", err))
			return err
		}

		fmt.Printf("Pages read in %d: %d\n", report.Year, report.TotalPages)
		for _, b := range report.Books {
			fmt.Printf("  %6d  %s\n", b.Pages, b.Title)
		}
		return nil
	},
}

func init() {
	statsCmd.AddCommand(statsPagesCmd)
}
