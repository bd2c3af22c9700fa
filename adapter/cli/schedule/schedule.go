package schedule

import (
	"time"

	"github.com/spf13/cobra"
)

// Cmd is the slots command group
var Cmd = &cobra.Command{
	Use:     "slots",
	Aliases: []string{"schedule"},
	Short:   "Find free time and meeting days",
	Long:    `Find free slots in a working day and rank upcoming days for a meeting.`,
}

// now is the clock used for default dates.
var now = time.Now

func init() {
	Cmd.AddCommand(availableCmd)
	Cmd.AddCommand(suggestCmd)
}
