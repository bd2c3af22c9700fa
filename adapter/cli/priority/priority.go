package priority

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	limit         int
	includeClosed bool
	onlyIDs       []string
	explain       bool

	dueWeight        float64
	priorityWeight   float64
	statusWeight     float64
	dependencyWeight float64
	durationWeight   float64
)

// Cmd ranks tasks with the priority engine.
var Cmd = &cobra.Command{
	Use:     "prioritize",
	Aliases: []string{"priority", "rank"},
	Short:   "Rank tasks by urgency",
	Long: `Rank tasks by a weighted blend of due date, priority, status,
dependencies and estimated duration.

Examples:
  cadence prioritize
  cadence prioritize --limit 5 --explain
  cadence prioritize --due-weight 2 --duration-weight 0
  cadence prioritize --tasks tasks.json --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		query := queries.PrioritizeTasksQuery{
			UserID:        app.CurrentUserID,
			ExcludeClosed: !includeClosed,
			Limit:         limit,
		}
		if weightsChanged(cmd) {
			criteria := services.ScoringCriteria{
				DueDateWeight:           dueWeight,
				PriorityWeight:          priorityWeight,
				StatusWeight:            statusWeight,
				DependencyWeight:        dependencyWeight,
				EstimatedDurationWeight: durationWeight,
			}
			query.Criteria = &criteria
		}
		for _, raw := range onlyIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid task id %q: %w", raw, err)
			}
			query.SubsetIDs = append(query.SubsetIDs, id)
		}

		ranked, err := app.PrioritizeTasksHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to prioritize tasks: %w", err)
		}

		return cli.Print(cmd, ranked, func(w io.Writer) {
			printRanked(w, ranked)
		})
	},
}

func weightsChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"due-weight", "priority-weight", "status-weight", "dependency-weight", "duration-weight"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func printRanked(w io.Writer, ranked *services.RankedTasks) {
	if len(ranked.Tasks) == 0 {
		fmt.Fprintln(w, "No tasks to prioritize.")
		return
	}

	fmt.Fprintf(w, "Prioritized tasks (%d of %d):\n", len(ranked.Tasks), ranked.Summary.Total)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, rt := range ranked.Tasks {
		fmt.Fprintf(w, "%2d. %-36s %5.1f  [%s]\n", rt.Rank, rt.Task.Title, rt.NormalizedScore, rt.Band)
		fmt.Fprintf(w, "    %s\n", rt.Recommendation)
		if explain {
			for _, factor := range []string{
				services.FactorDueDate,
				services.FactorPriority,
				services.FactorStatus,
				services.FactorDependency,
				services.FactorDuration,
			} {
				fmt.Fprintf(w, "    %-10s %.2f (contributes %.2f)\n", factor, rt.Factors[factor], rt.Contributions[factor])
			}
		}
	}

	s := ranked.Summary
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Critical: %d  High: %d  Medium: %d  Low: %d  Overdue: %d\n", s.Critical, s.High, s.Medium, s.Low, s.Overdue)
	for _, rec := range s.Recommendations {
		fmt.Fprintf(w, "* %s\n", rec)
	}
}

func init() {
	defaults := services.DefaultScoringCriteria()

	Cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n tasks (0 for all)")
	Cmd.Flags().BoolVar(&includeClosed, "include-closed", false, "include completed and cancelled tasks")
	Cmd.Flags().StringSliceVar(&onlyIDs, "only", nil, "rank only these task ids")
	Cmd.Flags().BoolVar(&explain, "explain", false, "show the factor breakdown of each task")

	Cmd.Flags().Float64Var(&dueWeight, "due-weight", defaults.DueDateWeight, "weight of the due date factor")
	Cmd.Flags().Float64Var(&priorityWeight, "priority-weight", defaults.PriorityWeight, "weight of the priority factor")
	Cmd.Flags().Float64Var(&statusWeight, "status-weight", defaults.StatusWeight, "weight of the status factor")
	Cmd.Flags().Float64Var(&dependencyWeight, "dependency-weight", defaults.DependencyWeight, "weight of the dependency factor")
	Cmd.Flags().Float64Var(&durationWeight, "duration-weight", defaults.EstimatedDurationWeight, "weight of the estimated duration factor")
}
