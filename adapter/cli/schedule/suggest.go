package schedule

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/spf13/cobra"
)

var (
	suggestDuration int
	suggestHours    string
	suggestPriority string
	suggestHorizon  int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest the best days for a meeting",
	Long: `Rank the coming days by how well they fit a meeting.

Days with more free slots score higher. Slots near a preferred hour add a
bonus and the meeting priority scales the result.

Examples:
  cadence slots suggest --duration 30
  cadence slots suggest --hours 10,14 --priority high --horizon 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		hours, err := cli.ParseHours(suggestHours)
		if err != nil {
			return err
		}
		priority, err := services.ParseMeetingPriority(suggestPriority)
		if err != nil {
			return err
		}

		horizon := suggestHorizon
		if horizon <= 0 {
			horizon = app.HorizonDays
		}

		result, err := app.SuggestMeetingTimesHandler.Handle(cmd.Context(), queries.SuggestMeetingTimesQuery{
			UserID:      app.CurrentUserID,
			Today:       now(),
			Duration:    time.Duration(suggestDuration) * time.Minute,
			Preferences: services.SchedulePreferences{PreferredHours: hours, Priority: priority},
			HorizonDays: horizon,
		})
		if err != nil {
			return fmt.Errorf("failed to suggest meeting times: %w", err)
		}

		return cli.Print(cmd, result, func(w io.Writer) {
			printSuggestions(w, result)
		})
	},
}

func printSuggestions(w io.Writer, result *queries.MeetingSuggestions) {
	if result.Recommendation == nil {
		fmt.Fprintf(w, "No free %d-minute slots in the next %d days.\n", suggestDuration, result.HorizonDays)
	} else {
		rec := result.Recommendation
		fmt.Fprintf(w, "Recommended: %s (score %.1f)\n", rec.Date.Format("Monday, January 2"), rec.Score)
	}

	for _, day := range result.Suggestions {
		ranges := make([]string, 0, len(day.Slots))
		for _, slot := range day.Slots {
			ranges = append(ranges, cli.FormatRange(slot.Start, slot.End))
		}
		fmt.Fprintf(w, "  %s  %5.1f  %d free  %s\n",
			day.Date.Format("Mon Jan 2"), day.Score, day.TotalSlots, strings.Join(ranges, ", "))
	}

	if len(result.FailedDays) > 0 {
		fmt.Fprintf(w, "Could not read calendar for: %s\n", strings.Join(result.FailedDays, ", "))
	}
}

func init() {
	suggestCmd.Flags().IntVarP(&suggestDuration, "duration", "d", 60, "meeting length in minutes")
	suggestCmd.Flags().StringVar(&suggestHours, "hours", "", "preferred start hours, comma separated (e.g. 10,14)")
	suggestCmd.Flags().StringVar(&suggestPriority, "priority", "normal", "meeting priority (low, normal, high)")
	suggestCmd.Flags().IntVar(&suggestHorizon, "horizon", 0, "days to search after today (defaults to HORIZON_DAYS)")
}
