package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	internalApp "github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	tasksFile  string
	eventsFile string
	jsonOutput bool
	logger     *slog.Logger
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Cadence - task prioritization and calendar availability",
	Long: `Cadence ranks your tasks, finds free time in your calendar and
suggests the best days for a meeting.

Pass --tasks and --events to work from JSON files without a database:

  cadence prioritize --tasks tasks.json
  cadence slots available --events events.json --duration 60`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger == nil {
			logger = slog.Default()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = observability.WithCorrelationID(ctx, info.correlationID.String())
		ctx = observability.WithOperation(ctx, cmd.CommandPath())
		ctx = context.WithValue(ctx, commandContextKey{}, info)
		cmd.SetContext(ctx)

		logger.DebugContext(ctx, "command start", "command", cmd.CommandPath())

		return loadApp(ctx, internalApp.Options{TasksFile: tasksFile, EventsFile: eventsFile})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		releaseApp()

		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.DebugContext(cmd.Context(), "command end",
			"command", cmd.CommandPath(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		releaseApp()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tasksFile, "tasks", "", "read tasks from a JSON file instead of the database (- for stdin)")
	rootCmd.PersistentFlags().StringVar(&eventsFile, "events", "", "read calendar events from a JSON file instead of the provider (- for stdin)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

