package task

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var startCmd = newStatusCmd(commands.ActionStart, "start", "Mark a task as in progress", "Started")
var completeCmd = newStatusCmd(commands.ActionComplete, "complete", "Mark a task as completed", "Completed", "done")
var cancelCmd = newStatusCmd(commands.ActionCancel, "cancel", "Cancel a task", "Cancelled")

func newStatusCmd(action commands.StatusAction, use, short, verb string, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:     use + " [task-id]",
		Short:   short,
		Aliases: aliases,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}

			taskID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}

			err = app.ChangeStatusHandler.Handle(cmd.Context(), commands.ChangeStatusCommand{
				TaskID: taskID,
				UserID: app.CurrentUserID,
				Action: action,
			})
			if err != nil {
				return fmt.Errorf("failed to %s task: %w", use, err)
			}

			result := map[string]string{"task_id": taskID.String(), "action": string(action)}
			return cli.Print(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "%s task %s\n", verb, taskID)
			})
		},
	}
}
