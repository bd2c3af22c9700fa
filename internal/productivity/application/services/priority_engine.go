package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
)

var (
	ErrInvalidCriteria = errors.New("scoring weights must be non-negative")
	ErrMissingNow      = errors.New("reference time is required")
)

// Factor names used in breakdowns.
const (
	FactorDueDate    = "due_date"
	FactorPriority   = "priority"
	FactorStatus     = "status"
	FactorDependency = "dependency"
	FactorDuration   = "duration"
)

var factorOrder = []string{FactorDueDate, FactorPriority, FactorStatus, FactorDependency, FactorDuration}

// ScoringCriteria weights each factor. Zero disables a factor.
type ScoringCriteria struct {
	DueDateWeight           float64 `json:"due_date_weight"`
	PriorityWeight          float64 `json:"priority_weight"`
	StatusWeight            float64 `json:"status_weight"`
	DependencyWeight        float64 `json:"dependency_weight"`
	EstimatedDurationWeight float64 `json:"estimated_duration_weight"`
}

// DefaultScoringCriteria weighs every factor equally.
func DefaultScoringCriteria() ScoringCriteria {
	return ScoringCriteria{
		DueDateWeight:           1.0,
		PriorityWeight:          1.0,
		StatusWeight:            1.0,
		DependencyWeight:        1.0,
		EstimatedDurationWeight: 1.0,
	}
}

// Validate rejects negative, NaN and infinite weights.
func (c ScoringCriteria) Validate() error {
	weights := c.weights()
	for _, name := range factorOrder {
		if w := weights[name]; w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidCriteria, name, w)
		}
	}
	return nil
}

// Total returns the sum of all weights.
func (c ScoringCriteria) Total() float64 {
	return c.DueDateWeight + c.PriorityWeight + c.StatusWeight + c.DependencyWeight + c.EstimatedDurationWeight
}

func (c ScoringCriteria) weights() map[string]float64 {
	return map[string]float64{
		FactorDueDate:    c.DueDateWeight,
		FactorPriority:   c.PriorityWeight,
		FactorStatus:     c.StatusWeight,
		FactorDependency: c.DependencyWeight,
		FactorDuration:   c.EstimatedDurationWeight,
	}
}

// DependencyCounting selects what the dependency factor counts.
type DependencyCounting int

const (
	// CountDependencies counts the task's own dependencies.
	CountDependencies DependencyCounting = iota
	// CountDependents counts tasks in the input that depend on the task.
	CountDependents
)

// Band is a coarse urgency level.
type Band string

const (
	BandCritical Band = "critical"
	BandHigh     Band = "high"
	BandMedium   Band = "medium"
	BandLow      Band = "low"
)

// Recommendation returns the suggested handling for the band.
func (b Band) Recommendation() string {
	switch b {
	case BandCritical:
		return "Handle immediately"
	case BandHigh:
		return "Schedule for today"
	case BandMedium:
		return "Plan for this week"
	default:
		return "Can be deferred"
	}
}

// PriorityEngineConfig tunes the factor curves and bands.
type PriorityEngineConfig struct {
	DueHorizonDays     float64
	NoDueDateBaseline  float64
	LongTaskHours      float64
	DependencyCounting DependencyCounting

	// Band thresholds on the normalized 0-100 score.
	CriticalThreshold float64
	HighThreshold     float64
	MediumThreshold   float64

	OverloadThreshold int
	WIPLimit          int
}

// DefaultPriorityEngineConfig returns the default curves and bands.
func DefaultPriorityEngineConfig() PriorityEngineConfig {
	return PriorityEngineConfig{
		DueHorizonDays:     14,
		NoDueDateBaseline:  0.25,
		LongTaskHours:      8,
		DependencyCounting: CountDependencies,
		CriticalThreshold:  75,
		HighThreshold:      55,
		MediumThreshold:    35,
		OverloadThreshold:  3,
		WIPLimit:           3,
	}
}

// PrioritizeOptions controls a single ranking call.
type PrioritizeOptions struct {
	// SubsetIDs restricts ranking to these ids. Unknown ids are ignored.
	SubsetIDs []uuid.UUID
	// Now is the reference time for due-date math.
	Now time.Time
	// ExcludeClosed drops completed and cancelled tasks.
	ExcludeClosed bool
}

// RankedTask is a task with its score breakdown.
type RankedTask struct {
	Task            task.Task          `json:"task"`
	Rank            int                `json:"rank"`
	Score           float64            `json:"score"`
	NormalizedScore float64            `json:"normalized_score"`
	Factors         map[string]float64 `json:"factors"`
	Contributions   map[string]float64 `json:"contributions"`
	Band            Band               `json:"band"`
	Recommendation  string             `json:"recommendation"`
}

// Summary aggregates a ranking.
type Summary struct {
	Total           int      `json:"total"`
	Critical        int      `json:"critical"`
	High            int      `json:"high"`
	Medium          int      `json:"medium"`
	Low             int      `json:"low"`
	Overdue         int      `json:"overdue"`
	Recommendations []string `json:"recommendations"`
}

// RankedTasks is the output of Prioritize.
type RankedTasks struct {
	Tasks   []RankedTask `json:"tasks"`
	Summary Summary      `json:"summary"`
}

// PriorityEngine ranks tasks by a weighted blend of factors.
type PriorityEngine struct {
	config PriorityEngineConfig
	logger *slog.Logger
}

// NewPriorityEngine creates a new engine with the given configuration.
func NewPriorityEngine(cfg PriorityEngineConfig, logger *slog.Logger) *PriorityEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriorityEngine{config: cfg, logger: logger}
}

// Prioritize scores and orders tasks. A nil criteria uses DefaultScoringCriteria.
func (e *PriorityEngine) Prioritize(tasks []task.Task, criteria *ScoringCriteria, opts PrioritizeOptions) (*RankedTasks, error) {
	weights := DefaultScoringCriteria()
	if criteria != nil {
		weights = *criteria
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if opts.Now.IsZero() {
		return nil, ErrMissingNow
	}

	dependents := countDependents(tasks)
	selected := e.selectTasks(tasks, opts)

	ranked := make([]RankedTask, 0, len(selected))
	for _, t := range selected {
		ranked = append(ranked, e.rank(t, weights, opts.Now, dependents[t.ID]))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Task.ID.String() < ranked[j].Task.ID.String()
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	summary := e.summarize(ranked, opts.Now)
	e.logger.Debug("prioritized tasks",
		"total", summary.Total,
		"critical", summary.Critical,
		"overdue", summary.Overdue,
	)

	return &RankedTasks{Tasks: ranked, Summary: summary}, nil
}

func (e *PriorityEngine) selectTasks(tasks []task.Task, opts PrioritizeOptions) []task.Task {
	var wanted map[uuid.UUID]struct{}
	if len(opts.SubsetIDs) > 0 {
		wanted = make(map[uuid.UUID]struct{}, len(opts.SubsetIDs))
		for _, id := range opts.SubsetIDs {
			wanted[id] = struct{}{}
		}
	}

	selected := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if wanted != nil {
			if _, ok := wanted[t.ID]; !ok {
				continue
			}
		}
		if opts.ExcludeClosed && t.IsClosed() {
			continue
		}
		selected = append(selected, t)
	}
	return selected
}

func (e *PriorityEngine) rank(t task.Task, weights ScoringCriteria, now time.Time, dependents int) RankedTask {
	depCount := len(t.Dependencies)
	if e.config.DependencyCounting == CountDependents {
		depCount = dependents
	}

	factors := map[string]float64{
		FactorDueDate:    e.dueScore(t.DueDate, now),
		FactorPriority:   priorityScore(t.Priority),
		FactorStatus:     statusScore(t.Status),
		FactorDependency: dependencyScore(depCount),
		FactorDuration:   e.durationScore(t.EstimatedDuration),
	}

	contributions := make(map[string]float64, len(factors))
	w := weights.weights()
	var raw float64
	for _, name := range factorOrder {
		c := factors[name] * w[name]
		contributions[name] = c
		raw += c
	}
	score := round2(raw)

	var normalized float64
	if total := weights.Total(); total > 0 {
		normalized = round2(score / total * 100)
	}

	band := e.band(normalized)
	return RankedTask{
		Task:            t,
		Score:           score,
		NormalizedScore: normalized,
		Factors:         factors,
		Contributions:   contributions,
		Band:            band,
		Recommendation:  band.Recommendation(),
	}
}

func (e *PriorityEngine) dueScore(due *time.Time, now time.Time) float64 {
	if due == nil {
		return e.config.NoDueDateBaseline
	}
	if due.Before(now) {
		return 1
	}
	if e.config.DueHorizonDays <= 0 {
		return 0
	}
	days := due.Sub(now).Hours() / 24
	return clamp01((e.config.DueHorizonDays - days) / e.config.DueHorizonDays)
}

func (e *PriorityEngine) durationScore(estimate time.Duration) float64 {
	if estimate <= 0 || e.config.LongTaskHours <= 0 {
		return 0.5
	}
	return 0.5 + 0.25*(1-2*clamp01(estimate.Hours()/e.config.LongTaskHours))
}

func (e *PriorityEngine) band(normalized float64) Band {
	switch {
	case normalized >= e.config.CriticalThreshold:
		return BandCritical
	case normalized >= e.config.HighThreshold:
		return BandHigh
	case normalized >= e.config.MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

func (e *PriorityEngine) summarize(ranked []RankedTask, now time.Time) Summary {
	summary := Summary{Total: len(ranked), Recommendations: make([]string, 0)}

	var inProgress, undated int
	for _, r := range ranked {
		switch r.Band {
		case BandCritical:
			summary.Critical++
		case BandHigh:
			summary.High++
		case BandMedium:
			summary.Medium++
		default:
			summary.Low++
		}
		if r.Task.IsOverdue(now) {
			summary.Overdue++
		}
		if r.Task.Status == task.StatusInProgress {
			inProgress++
		}
		if !r.Task.IsClosed() && r.Task.DueDate == nil {
			undated++
		}
	}

	if summary.Overdue > 0 {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("%d overdue task(s) need attention", summary.Overdue))
	}
	if summary.Critical > e.config.OverloadThreshold {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("%d critical tasks exceed capacity, consider delegating or rescheduling", summary.Critical))
	}
	if inProgress > e.config.WIPLimit {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("%d tasks in progress, finish some before starting new ones", inProgress))
	}
	if undated > 0 {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("%d open task(s) have no due date", undated))
	}

	return summary
}

func countDependents(tasks []task.Task) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			counts[dep]++
		}
	}
	return counts
}

func priorityScore(p value_objects.Priority) float64 {
	return float64(p.Weight()) / float64(value_objects.MaxPriorityWeight)
}

func statusScore(s task.Status) float64 {
	switch s {
	case task.StatusInProgress:
		return 1.0
	case task.StatusPending:
		return 0.6
	default:
		return 0
	}
}

func dependencyScore(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 1 - 1/float64(1+n)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
