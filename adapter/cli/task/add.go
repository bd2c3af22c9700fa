package task

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	priority  string
	duration  int
	dueDate   string
	dependsOn []string
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task",
	Long: `Add a task to the task list.

Examples:
  cadence task add "Write report" --priority high --duration 45
  cadence task add "Ship release" --due 2024-02-01 --depends-on <task-id>`,
	Aliases: []string{"create", "new"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		command := commands.CreateTaskCommand{
			UserID:          app.CurrentUserID,
			Title:           strings.Join(args, " "),
			Priority:        priority,
			DurationMinutes: duration,
		}

		if dueDate != "" {
			due, err := parseDue(dueDate)
			if err != nil {
				return err
			}
			command.DueDate = &due
		}

		for _, raw := range dependsOn {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid dependency id %q: %w", raw, err)
			}
			command.DependsOn = append(command.DependsOn, id)
		}

		result, err := app.CreateTaskHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		return cli.Print(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Created task: %s\n", command.Title)
			fmt.Fprintf(w, "  ID: %s\n", result.TaskID)
			if app.Offline {
				fmt.Fprintln(w, "  Note: offline mode, the task is not persisted")
			}
		})
	},
}

// parseDue accepts a date (end of that day, local time) or an RFC 3339 timestamp.
func parseDue(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(cli.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date format, use YYYY-MM-DD or RFC 3339: %w", err)
	}
	return day.Add(24*time.Hour - time.Second), nil
}

func init() {
	addCmd.Flags().StringVarP(&priority, "priority", "p", "", "priority (low, medium, high, urgent)")
	addCmd.Flags().IntVarP(&duration, "duration", "d", 0, "estimated duration in minutes")
	addCmd.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
	addCmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "ids of tasks this task depends on")
}
