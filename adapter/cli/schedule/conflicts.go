package schedule

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var conflictsDate string

// ConflictsCmd lists overlapping calendar events of a day.
var ConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List overlapping calendar events",
	Long: `List every pair of calendar events that overlap on a day.

Examples:
  cadence conflicts
  cadence conflicts --date 2024-01-15 --events events.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		date, err := cli.ParseDate(conflictsDate, now())
		if err != nil {
			return err
		}

		result, err := app.DetectConflictsHandler.Handle(cmd.Context(), queries.DetectConflictsQuery{
			UserID: app.CurrentUserID,
			Date:   date,
		})
		if err != nil {
			return fmt.Errorf("failed to detect conflicts: %w", err)
		}

		return cli.Print(cmd, result, func(w io.Writer) {
			dateStr := result.Date.Format("Monday, January 2, 2006")
			if len(result.Conflicts) == 0 {
				fmt.Fprintf(w, "No conflicts on %s (%d events).\n", dateStr, result.Events)
				return
			}
			fmt.Fprintf(w, "%d conflict(s) on %s:\n", len(result.Conflicts), dateStr)
			for _, c := range result.Conflicts {
				fmt.Fprintf(w, "  %s overlaps %s during %s\n",
					eventLabel(c.First.Title, c.First.ID),
					eventLabel(c.Second.Title, c.Second.ID),
					cli.FormatRange(c.Overlap.Start, c.Overlap.End))
			}
		})
	},
}

func eventLabel(title, id string) string {
	if title != "" {
		return title
	}
	return id
}

func init() {
	ConflictsCmd.Flags().StringVar(&conflictsDate, "date", "", "date (YYYY-MM-DD), defaults to today")
}
