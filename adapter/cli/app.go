package cli

import (
	"context"
	"errors"
	"log/slog"

	automationApp "github.com/felixgeelhaar/cadence/internal/automations/application"
	automationDomain "github.com/felixgeelhaar/cadence/internal/automations/domain"
	internalApp "github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	scheduleQueries "github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/google/uuid"
)

// ErrNotInitialized is returned by commands run without an application.
var ErrNotInitialized = errors.New("application not initialized")

// App holds the CLI application dependencies.
type App struct {
	// Task Handlers
	CreateTaskHandler      *commands.CreateTaskHandler
	ChangeStatusHandler    *commands.ChangeStatusHandler
	PrioritizeTasksHandler *queries.PrioritizeTasksHandler

	// Schedule Handlers
	FindAvailableSlotsHandler  *scheduleQueries.FindAvailableSlotsHandler
	DetectConflictsHandler     *scheduleQueries.DetectConflictsHandler
	SuggestMeetingTimesHandler *scheduleQueries.SuggestMeetingTimesHandler
	DailyBriefingHandler       *scheduleQueries.DailyBriefingHandler

	// Automations
	Checker  *automationApp.ProactiveChecker
	Runner   *automationApp.Runner
	RunStore automationDomain.RunStore
	Jobs     map[string]automationApp.JobFunc

	// HorizonDays is the default meeting search horizon.
	HorizonDays int
	// Offline is set when tasks and events come from JSON files.
	Offline bool

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp creates a CLI application from a dependency container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		CreateTaskHandler:          c.CreateTaskHandler,
		ChangeStatusHandler:        c.ChangeStatusHandler,
		PrioritizeTasksHandler:     c.PrioritizeTasksHandler,
		FindAvailableSlotsHandler:  c.FindAvailableSlotsHandler,
		DetectConflictsHandler:     c.DetectConflictsHandler,
		SuggestMeetingTimesHandler: c.SuggestMeetingTimesHandler,
		DailyBriefingHandler:       c.DailyBriefingHandler,
		Checker:                    c.Checker,
		Runner:                     c.Runner,
		RunStore:                   c.RunStore,
		Jobs:                       c.Jobs(),
		HorizonDays:                c.Config.HorizonDays,
		Offline:                    c.Offline(),
		CurrentUserID:              c.UserID,
	}
}

// Loader builds the application once flags are parsed. The returned function
// releases its resources.
type Loader func(ctx context.Context, opts internalApp.Options) (*App, func() error, error)

// ContainerLoader returns a Loader that builds a container from cfg.
func ContainerLoader(cfg *config.Config, logger *slog.Logger) Loader {
	return func(ctx context.Context, opts internalApp.Options) (*App, func() error, error) {
		container, err := internalApp.NewContainer(ctx, cfg, logger, opts)
		if err != nil {
			return nil, nil, err
		}
		return NewApp(container), container.Close, nil
	}
}

var (
	// app is the global CLI application instance
	app     *App
	loader  Loader
	release func() error
)

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// SetLoader sets how the application is built before a command runs.
func SetLoader(l Loader) {
	loader = l
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

func loadApp(ctx context.Context, opts internalApp.Options) error {
	if app != nil || loader == nil {
		return nil
	}
	a, closeFn, err := loader(ctx, opts)
	if err != nil {
		return err
	}
	app = a
	release = closeFn
	return nil
}

func releaseApp() {
	if release == nil {
		return
	}
	if err := release(); err != nil && logger != nil {
		logger.Warn("failed to release resources", "error", err)
	}
	release = nil
	app = nil
}
