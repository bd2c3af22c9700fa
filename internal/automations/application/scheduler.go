package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/automations/domain"
	"github.com/robfig/cron/v3"
)

var (
	ErrUnknownJob   = errors.New("unknown job")
	ErrDuplicateJob = errors.New("job already registered")
)

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next,omitempty"`
	Prev     time.Time `json:"prev,omitempty"`
}

type registeredJob struct {
	schedule string
	entry    cron.EntryID
	fn       JobFunc
}

// CronScheduler triggers jobs on standard five-field cron expressions.
// Overlapping runs of the same job are skipped.
type CronScheduler struct {
	cron   *cron.Cron
	runner *Runner
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]registeredJob
	ctx  context.Context
}

// NewCronScheduler creates a scheduler that executes jobs through runner.
// A nil location means the local time zone.
func NewCronScheduler(runner *Runner, loc *time.Location, logger *slog.Logger) *CronScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	cronLogger := slogCronLogger{logger: logger}
	return &CronScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
		runner: runner,
		logger: logger,
		jobs:   make(map[string]registeredJob),
		ctx:    context.Background(),
	}
}

// Register adds a job. The expression is validated immediately.
func (s *CronScheduler) Register(expr, name string, fn JobFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("register job: name and function are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	id, err := s.cron.AddFunc(expr, func() {
		s.runner.Execute(s.baseContext(), name, fn)
	})
	if err != nil {
		return fmt.Errorf("register job %s: invalid schedule %q: %w", name, expr, err)
	}

	s.jobs[name] = registeredJob{schedule: expr, entry: id, fn: fn}
	s.logger.Info("job registered", "job", name, "schedule", expr)
	return nil
}

// Trigger runs a registered job now, on the calling goroutine.
func (s *CronScheduler) Trigger(ctx context.Context, name string) (domain.Run, error) {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return domain.Run{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.runner.Execute(ctx, name, job.fn), nil
}

// Start begins triggering jobs. Runs use ctx as their parent context.
func (s *CronScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.Jobs()))
}

// Stop stops triggering jobs and waits for running ones, or for ctx to end.
func (s *CronScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// Jobs lists registered jobs sorted by name.
func (s *CronScheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, job := range s.jobs {
		entry := s.cron.Entry(job.entry)
		infos = append(infos, JobInfo{
			Name:     name,
			Schedule: job.schedule,
			Next:     entry.Next,
			Prev:     entry.Prev,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *CronScheduler) baseContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
