package schedule

import (
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	availDate     string
	availDuration int
)

var availableCmd = &cobra.Command{
	Use:   "available",
	Short: "Find available time slots",
	Long: `Find free slots of the requested length within working hours.

Examples:
  cadence slots available
  cadence slots available --duration 30
  cadence slots available --date 2024-01-15 --events events.json`,
	Aliases: []string{"free"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		date, err := cli.ParseDate(availDate, now())
		if err != nil {
			return err
		}

		result, err := app.FindAvailableSlotsHandler.Handle(cmd.Context(), queries.FindAvailableSlotsQuery{
			UserID:   app.CurrentUserID,
			Date:     date,
			Duration: time.Duration(availDuration) * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("failed to find available slots: %w", err)
		}

		return cli.Print(cmd, result, func(w io.Writer) {
			dateStr := result.Date.Format("Monday, January 2, 2006")
			if len(result.Slots) == 0 {
				fmt.Fprintf(w, "No free %d-minute slots on %s.\n", availDuration, dateStr)
				return
			}
			fmt.Fprintf(w, "Free %d-minute slots on %s:\n", availDuration, dateStr)
			for _, slot := range result.Slots {
				fmt.Fprintf(w, "  %s\n", cli.FormatRange(slot.Start, slot.End))
			}
		})
	},
}

func init() {
	availableCmd.Flags().StringVar(&availDate, "date", "", "date (YYYY-MM-DD), defaults to today")
	availableCmd.Flags().IntVarP(&availDuration, "duration", "d", 60, "slot length in minutes")
}
