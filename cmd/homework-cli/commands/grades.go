package commands

import (
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/serviceutil"
)

var gradesCourse *string
var gradesSince *int

func init() {
	gradesCourse = gradesCmd.Flags().String("course", "", "Case-insensitive course name filter.")
	gradesSince = gradesCmd.Flags().Int("since", 0, "Lookback window in days (0 uses the configured default).")
	rootCmd.AddCommand(gradesCmd)
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(v, 'f', 2, 64), "0"), ".")
}

var gradesCmd = &cobra.Command{
	Use:   "grades [--course <name>] [--since <days>]",
	Short: "Lists recent grade samples per course.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		service := newService(cfg)

		var sinceDays *int
		if *gradesSince > 0 {
			sinceDays = gradesSince
		}
		samples, err := service.GetCourseGrades(cmd.Context(), *gradesCourse, sinceDays)
		if err != nil {
			serviceutil.Fatal("failed to get course grades", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Course", "Date", "Grade"})
		for _, sample := range samples {
			grade := "-"
			if sample.GradePercent != nil {
				grade = trimFloat(*sample.GradePercent) + "%"
			}
			t.AppendRow(table.Row{sample.Course, sample.Date.Format(portal.DateFormat), grade})
		}
		t.Render()
	},
}
