// Package app wires configuration, storage, calendar providers and handlers
// into a single dependency container shared by the CLI, the worker and the MCP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	automationApp "github.com/felixgeelhaar/cadence/internal/automations/application"
	automationDomain "github.com/felixgeelhaar/cadence/internal/automations/domain"
	automationPersistence "github.com/felixgeelhaar/cadence/internal/automations/infrastructure/persistence"
	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/caldav"
	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/google"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/services"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/productivity/infrastructure/persistence"
	schedQueries "github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	schedServices "github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Options adjusts how the container is built.
type Options struct {
	// TasksFile and EventsFile select offline mode: tasks and events are read
	// from JSON files ("-" for stdin) and nothing is persisted.
	TasksFile  string
	EventsFile string
}

// Offline reports whether the options select offline mode.
func (o Options) Offline() bool {
	return o.TasksFile != "" || o.EventsFile != ""
}

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	UserID uuid.UUID

	// Connections
	SQLiteDB    *sql.DB
	Pool        *pgxpool.Pool
	RedisClient *redis.Client
	Publisher   eventbus.Publisher

	// Stores and sources
	TaskRepo    task.Repository
	EventSource calendarApp.EventSource
	RunStore    automationDomain.RunStore
	Notifier    automationApp.Notifier

	// Engines
	PriorityEngine     *services.PriorityEngine
	AvailabilityEngine *schedServices.AvailabilityEngine
	SlotRanker         *schedServices.SlotRanker

	// Task handlers
	CreateTaskHandler      *commands.CreateTaskHandler
	ChangeStatusHandler    *commands.ChangeStatusHandler
	PrioritizeTasksHandler *queries.PrioritizeTasksHandler

	// Scheduling handlers
	FindAvailableSlotsHandler  *schedQueries.FindAvailableSlotsHandler
	DetectConflictsHandler     *schedQueries.DetectConflictsHandler
	SuggestMeetingTimesHandler *schedQueries.SuggestMeetingTimesHandler
	DailyBriefingHandler       *schedQueries.DailyBriefingHandler

	// Automations
	Runner  *automationApp.Runner
	Checker *automationApp.ProactiveChecker
	Health  *observability.HealthRegistry

	offline bool
}

// NewContainer creates a new dependency container.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	userID, err := cfg.ParsedUserID()
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		UserID:  userID,
		Health:  observability.NewHealthRegistry(),
		offline: opts.Offline(),
	}

	if c.offline {
		if err := c.initOffline(opts); err != nil {
			return nil, err
		}
	} else {
		if err := c.initStorage(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		if err := c.initCalendar(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		if err := c.initNotifier(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	c.initHandlers()
	return c, nil
}

// Offline reports whether the container serves JSON input without persistence.
func (c *Container) Offline() bool {
	return c.offline
}

func (c *Container) initOffline(opts Options) error {
	tasks, err := readJSONFile(opts.TasksFile, persistence.LoadTasksJSON)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	events, err := readJSONFile(opts.EventsFile, calendarApp.LoadEventsJSON)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	c.TaskRepo = persistence.NewMemoryTaskRepository(tasks...)
	c.EventSource = calendarApp.NewStubEventSource(events...)
	c.RunStore = automationPersistence.NewMemoryRunStore(automationPersistence.DefaultRunCapacity)
	c.Notifier = automationApp.NewStubNotifier(c.Logger)

	c.Logger.Debug("offline mode", "tasks", len(tasks), "events", len(events))
	return nil
}

func readJSONFile[T any](path string, load func(io.Reader) ([]T, error)) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	file, err := security.Open(path)
	if err != nil {
		return nil, err
	}
	if file != os.Stdin {
		defer file.Close()
	}
	return load(file)
}

func (c *Container) initStorage(ctx context.Context) error {
	cfg := c.Config

	var factory *RepositoryFactory
	switch database.DetectDriver(cfg.DatabaseURL) {
	case database.DriverPostgres:
		pool, err := postgres.Open(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return err
		}
		c.Pool = pool
		factory = NewPostgresRepositoryFactory(pool)
		c.Health.Register("postgres", observability.PingChecker("postgres", observability.HealthStatusUnhealthy, pool.Ping))
		c.Logger.Info("connected to PostgreSQL")
	default:
		path := cfg.SQLitePath
		if path == "" && cfg.DatabaseURL != "" {
			path = database.SQLitePathFromURL(cfg.DatabaseURL)
		}
		db, err := sqlite.Open(ctx, path)
		if err != nil {
			return err
		}
		c.SQLiteDB = db
		factory = NewSQLiteRepositoryFactory(db)
		c.Health.Register("sqlite", observability.PingChecker("sqlite", observability.HealthStatusUnhealthy, db.PingContext))
		c.Logger.Info("opened SQLite database", "path", path)
	}

	c.TaskRepo = factory.TaskRepository()

	runStore := cfg.RunStore
	if runStore == config.RunStoreRedis {
		client, err := c.connectRedis(ctx)
		if err != nil {
			if !cfg.IsDevelopment() {
				return err
			}
			c.Logger.Warn("Redis not available, run history will use in-memory fallback", "error", err)
			runStore = config.RunStoreMemory
		} else {
			c.RedisClient = client
			factory.WithRedis(client)
			c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}))
		}
	}

	store, err := factory.RunStore(runStore)
	if err != nil {
		return err
	}
	c.RunStore = store
	return nil
}

func (c *Container) connectRedis(ctx context.Context) (*redis.Client, error) {
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	c.Logger.Info("connected to Redis")
	return client, nil
}

func (c *Container) initCalendar(ctx context.Context) error {
	cfg := c.Config

	var live calendarApp.EventSource
	switch cfg.CalendarProvider {
	case config.CalendarCalDAV:
		source := caldav.NewEventSource(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, c.Logger)
		if cfg.CalDAVCalendar != "" {
			source.WithCalendarPath(cfg.CalDAVCalendar)
		}
		live = source
	case config.CalendarGoogle:
		source, err := google.NewEventSource(ctx, google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RefreshToken: cfg.GoogleRefreshToken,
			CalendarID:   cfg.GoogleCalendarID,
		}, c.Logger)
		if err != nil {
			return err
		}
		live = source
	default:
		c.EventSource = calendarApp.NewStubEventSource()
		return nil
	}

	breaker := calendarApp.DefaultBreakerConfig(cfg.CalendarProvider)
	if cfg.BreakerFailures > 0 {
		breaker.FailureThreshold = uint32(cfg.BreakerFailures)
	}
	if cfg.BreakerTimeout > 0 {
		breaker.Timeout = cfg.BreakerTimeout
	}
	c.EventSource = calendarApp.NewResilientEventSource(live, breaker, c.Logger)
	c.Logger.Info("calendar provider configured", "provider", cfg.CalendarProvider)
	return nil
}

func (c *Container) initNotifier() error {
	cfg := c.Config
	if cfg.Notifier != config.NotifierRabbitMQ {
		c.Notifier = automationApp.NewStubNotifier(c.Logger)
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, eventbus.NotificationsExchange, c.Logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			return err
		}
		c.Logger.Warn("RabbitMQ not available, notifications stay in memory", "error", err)
		c.Publisher = eventbus.NewMemoryPublisher(c.Logger)
	} else {
		c.Publisher = publisher
	}
	c.Notifier = automationApp.NewBrokerNotifier(c.Publisher, c.Logger)
	return nil
}

func (c *Container) initHandlers() {
	cfg := c.Config

	c.PriorityEngine = services.NewPriorityEngine(services.DefaultPriorityEngineConfig(), c.Logger)
	c.AvailabilityEngine = schedServices.NewAvailabilityEngine(AvailabilityConfig(cfg))
	c.SlotRanker = schedServices.NewSlotRanker(schedServices.DefaultRankingConfig(), c.AvailabilityEngine)

	c.CreateTaskHandler = commands.NewCreateTaskHandler(c.TaskRepo)
	c.ChangeStatusHandler = commands.NewChangeStatusHandler(c.TaskRepo)
	c.PrioritizeTasksHandler = queries.NewPrioritizeTasksHandler(c.TaskRepo, c.PriorityEngine, c.Logger)

	c.FindAvailableSlotsHandler = schedQueries.NewFindAvailableSlotsHandler(c.EventSource, c.AvailabilityEngine, c.Logger)
	c.DetectConflictsHandler = schedQueries.NewDetectConflictsHandler(c.EventSource, c.Logger)
	c.SuggestMeetingTimesHandler = schedQueries.NewSuggestMeetingTimesHandler(c.EventSource, c.AvailabilityEngine, c.SlotRanker, c.Logger)
	c.DailyBriefingHandler = schedQueries.NewDailyBriefingHandler(
		c.DetectConflictsHandler,
		c.FindAvailableSlotsHandler,
		c.PrioritizeTasksHandler,
		c.Logger,
	)

	c.Runner = automationApp.NewRunner(c.RunStore, c.Logger)
	c.Checker = automationApp.NewProactiveChecker(
		c.PrioritizeTasksHandler,
		c.DetectConflictsHandler,
		c.FindAvailableSlotsHandler,
		c.Notifier,
		automationApp.DefaultCheckConfig(),
		c.Logger,
	)
}

// AvailabilityConfig converts the configured working hours into engine settings.
func AvailabilityConfig(cfg *config.Config) schedServices.AvailabilityConfig {
	return schedServices.AvailabilityConfig{
		WorkStart:         cfg.WorkStart,
		WorkEnd:           cfg.WorkEnd,
		Granularity:       cfg.SlotGranularity,
		StrictContainment: cfg.StrictContainment,
	}
}

// Jobs returns the automation jobs for the configured user keyed by name.
func (c *Container) Jobs() map[string]automationApp.JobFunc {
	return map[string]automationApp.JobFunc{
		automationApp.JobDailyBriefing:   automationApp.BriefingJob(c.DailyBriefingHandler, c.Notifier, c.UserID, nil),
		automationApp.JobProactiveChecks: c.Checker.Job(c.UserID),
	}
}

// NewScheduler creates a cron scheduler with the briefing and check jobs registered.
func (c *Container) NewScheduler(loc *time.Location) (*automationApp.CronScheduler, error) {
	scheduler := automationApp.NewCronScheduler(c.Runner, loc, c.Logger)
	jobs := c.Jobs()

	schedules := []struct {
		name string
		expr string
	}{
		{automationApp.JobDailyBriefing, c.Config.BriefingCron},
		{automationApp.JobProactiveChecks, c.Config.ChecksCron},
	}
	for _, s := range schedules {
		if err := scheduler.Register(s.expr, s.name, jobs[s.name]); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}

// Close releases all connections.
func (c *Container) Close() error {
	var errs []error
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sqlite: %w", err))
		}
	}
	return errors.Join(errs...)
}
