package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"homework-backend/lib/gradestore"
	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/serviceutil"
	"homework-backend/lib/sqliteutil"
	"homework-backend/lib/timezone"
)

var snapshotsDb *string
var snapshotsCourse *string
var snapshotsSince *int

func init() {
	snapshotsDb = snapshotsCmd.Flags().String("db", "", "The snapshot database (defaults to grade_database from config).")
	snapshotsCourse = snapshotsCmd.Flags().String("course", "", "Case-insensitive course name filter.")
	snapshotsSince = snapshotsCmd.Flags().Int("since", 90, "Lookback window in days.")
	rootCmd.AddCommand(snapshotsCmd)
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots [--db <path>] [--course <name>] [--since <days>]",
	Short: "Lists locally recorded grade snapshots without touching the portal.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		path := *snapshotsDb
		if path == "" {
			path = cfg.GradeDatabase
		}
		if path == "" {
			serviceutil.Fatal("locate snapshot database", errNoSnapshotDb)
		}

		db, err := sqliteutil.OpenDB(gradestore.Schema, path)
		if err != nil {
			serviceutil.Fatal("failed to open snapshot database", err)
		}
		defer db.Close()
		store := gradestore.NewStore(db)

		cutoff := portal.Cutoff(timezone.Now(), *snapshotsSince)
		samples, err := store.Pull(cmd.Context(), *snapshotsCourse, cutoff)
		if err != nil {
			serviceutil.Fatal("failed to read snapshots", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Course", "Date", "Grade"})
		for _, sample := range samples {
			grade := "-"
			if sample.Percent != nil {
				grade = trimFloat(*sample.Percent) + "%"
			}
			t.AppendRow(table.Row{sample.Course, sample.Date.Format(portal.DateFormat), grade})
		}
		t.Render()
	},
}
