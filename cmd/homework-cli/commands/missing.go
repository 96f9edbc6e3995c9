package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/serviceutil"
)

var missingSince *int

func init() {
	missingSince = missingCmd.Flags().Int("since", 0, "Lookback window in days (0 uses the configured default).")
	rootCmd.AddCommand(missingCmd)
}

func formatPoints(possible, earned *float64) string {
	format := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return trimFloat(*v)
	}
	return format(earned) + "/" + format(possible)
}

var missingCmd = &cobra.Command{
	Use:   "missing [--since <days>]",
	Short: "Lists assignments the portal still marks as missing.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		service := newService(cfg)

		var sinceDays *int
		if *missingSince > 0 {
			sinceDays = missingSince
		}
		assignments, err := service.CheckMissingAssignments(cmd.Context(), sinceDays)
		if err != nil {
			serviceutil.Fatal("failed to check missing assignments", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Title", "Course", "Due", "Points", "Link"})
		for _, a := range assignments {
			due := "-"
			if a.DueDate != nil {
				due = a.DueDate.Format(portal.DateFormat)
			}
			t.AppendRow(table.Row{a.Title, a.Course, due, formatPoints(a.PointsPossible, a.PointsEarned), a.Link})
		}
		t.Render()
	},
}
