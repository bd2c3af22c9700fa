package automation

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/automations/domain"
	"github.com/spf13/cobra"
)

var (
	runsLimit int
)

// CheckCmd runs the proactive checks once.
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the proactive checks now",
	Long: `Look for overdue tasks, today's conflicts, too many critical tasks
and a full day tomorrow. Findings are sent through the configured notifier.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		report, err := app.Checker.Check(cmd.Context(), app.CurrentUserID)
		if report == nil {
			return fmt.Errorf("failed to run checks: %w", err)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}

		return cli.Print(cmd, report, func(w io.Writer) {
			s := report.Summary
			fmt.Fprintf(w, "Checks: %d/%d succeeded\n", s.Succeeded, s.Total)
			if len(report.Findings) == 0 {
				fmt.Fprintln(w, "Nothing needs your attention.")
			}
			for _, finding := range report.Findings {
				fmt.Fprintf(w, "* %s\n", finding)
			}
			for _, e := range s.Errors {
				fmt.Fprintf(w, "! %s\n", e)
			}
		})
	},
}

// RunsCmd lists recent automation runs.
var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent automation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		runs, err := app.RunStore.Recent(cmd.Context(), runsLimit)
		if err != nil {
			return fmt.Errorf("failed to load runs: %w", err)
		}

		return cli.Print(cmd, runs, func(w io.Writer) {
			printRuns(w, runs)
		})
	},
}

// JobsCmd lists and triggers the automation jobs.
var JobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List or run automation jobs",
}

var jobsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List automation jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		names := make([]string, 0, len(app.Jobs))
		for name := range app.Jobs {
			names = append(names, name)
		}
		sort.Strings(names)

		return cli.Print(cmd, names, func(w io.Writer) {
			for _, name := range names {
				fmt.Fprintln(w, name)
			}
		})
	},
}

var jobsRunCmd = &cobra.Command{
	Use:   "run [job]",
	Short: "Run an automation job now and record the run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		fn, ok := app.Jobs[args[0]]
		if !ok {
			return fmt.Errorf("unknown job %q", args[0])
		}

		run := app.Runner.Execute(cmd.Context(), args[0], fn)
		return cli.Print(cmd, run, func(w io.Writer) {
			printRuns(w, []domain.Run{run})
		})
	},
}

func printRuns(w io.Writer, runs []domain.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %-18s %-9s %d ok, %d failed  (%s)\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Name,
			run.Status,
			run.Succeeded,
			run.Failed,
			run.Duration().Round(time.Millisecond))
		if len(run.Errors) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(run.Errors, "; "))
		}
	}
}

func init() {
	RunsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to show (0 for all)")

	JobsCmd.AddCommand(jobsListCmd)
	JobsCmd.AddCommand(jobsRunCmd)
}
