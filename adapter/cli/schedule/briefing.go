package schedule

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	briefingDate     string
	briefingDuration int
	briefingTop      int
)

// BriefingCmd prints the daily briefing.
var BriefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Show the daily briefing",
	Long: `Show conflicts, free time and the most urgent tasks for a day.

Examples:
  cadence briefing
  cadence briefing --date 2024-01-15 --top 3`,
	Aliases: []string{"today"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		date, err := cli.ParseDate(briefingDate, now())
		if err != nil {
			return err
		}

		briefing, err := app.DailyBriefingHandler.Handle(cmd.Context(), queries.DailyBriefingQuery{
			UserID:          app.CurrentUserID,
			Date:            date,
			MeetingDuration: time.Duration(briefingDuration) * time.Minute,
			TopTasks:        briefingTop,
		})
		if err != nil {
			return fmt.Errorf("failed to build briefing: %w", err)
		}

		return cli.Print(cmd, briefing, func(w io.Writer) {
			fmt.Fprintf(w, "Briefing for %s\n", briefing.Date.Format("Monday, January 2"))
			fmt.Fprintln(w, strings.Repeat("-", 40))
			for _, line := range briefing.Highlights {
				fmt.Fprintf(w, "* %s\n", line)
			}
			if len(briefing.TopTasks) > 0 {
				fmt.Fprintln(w, "\nTop tasks:")
				for _, rt := range briefing.TopTasks {
					fmt.Fprintf(w, "  %d. %s [%s]\n", rt.Rank, rt.Task.Title, rt.Band)
				}
			}
			for _, failure := range briefing.Failures {
				fmt.Fprintf(w, "! %s\n", failure)
			}
		})
	},
}

func init() {
	BriefingCmd.Flags().StringVar(&briefingDate, "date", "", "date (YYYY-MM-DD), defaults to today")
	BriefingCmd.Flags().IntVarP(&briefingDuration, "duration", "d", int(queries.DefaultBriefingMeeting/time.Minute), "meeting length free slots are counted for, in minutes")
	BriefingCmd.Flags().IntVar(&briefingTop, "top", queries.DefaultBriefingTasks, "number of top tasks to show")
}
