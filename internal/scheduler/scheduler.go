// Package scheduler runs background jobs on interval, daily, cron or
// one-shot schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quantumlife/lifedesk/internal/logging"
)

// cronParser accepts standard five-field expressions and @descriptors.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler manages scheduled jobs
type Scheduler struct {
	jobs     map[string]*Job
	running  map[string]context.CancelFunc
	mu       sync.RWMutex
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	timezone *time.Location
}

// Config configures the scheduler
type Config struct {
	Timezone string // Timezone for daily and cron schedules (default: Local)
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Timezone: "Local",
	}
}

// NewScheduler creates a new scheduler. An unknown timezone falls back to Local.
func NewScheduler(cfg Config) *Scheduler {
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logging.WithField("timezone", cfg.Timezone).Warn("unknown timezone, using local time")
		tz = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		jobs:     make(map[string]*Job),
		running:  make(map[string]context.CancelFunc),
		ctx:      ctx,
		cancel:   cancel,
		timezone: tz,
	}
}

// Job is a scheduled unit of work
type Job struct {
	ID         string
	Name       string
	Schedule   Schedule
	Handler    Handler
	Timeout    time.Duration
	RunOnStart bool // Run once as soon as the scheduler starts

	enabled    bool
	cron       cron.Schedule
	lastRun    time.Time
	nextRun    time.Time
	runCount   int64
	errorCount int64
	lastError  string
}

// Handler is the function executed for a job
type Handler func(ctx context.Context) error

// Schedule defines when a job runs
type Schedule struct {
	Type     ScheduleType  `json:"type"`
	Interval time.Duration `json:"interval,omitempty"` // For interval schedules
	Cron     string        `json:"cron,omitempty"`     // For cron schedules
	At       string        `json:"at,omitempty"`       // "15:04" for daily, RFC3339 for once
}

// ScheduleType represents the type of schedule
type ScheduleType string

const (
	ScheduleInterval ScheduleType = "interval" // Run every X duration
	ScheduleDaily    ScheduleType = "daily"    // Run at specific time daily
	ScheduleCron     ScheduleType = "cron"     // Cron expression
	ScheduleOnce     ScheduleType = "once"     // Run once at specific time
)

// Status is a point-in-time snapshot of a job.
type Status struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Schedule   Schedule  `json:"schedule"`
	Enabled    bool      `json:"enabled"`
	LastRun    time.Time `json:"last_run,omitempty"`
	NextRun    time.Time `json:"next_run,omitempty"`
	RunCount   int64     `json:"run_count"`
	ErrorCount int64     `json:"error_count"`
	LastError  string    `json:"last_error,omitempty"`
}

// Register adds a job to the scheduler
func (s *Scheduler) Register(job *Job) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if job.Handler == nil {
		return fmt.Errorf("job handler is required")
	}

	switch job.Schedule.Type {
	case ScheduleInterval:
		if job.Schedule.Interval <= 0 {
			return fmt.Errorf("job %s: interval must be positive", job.ID)
		}
	case ScheduleCron:
		sched, err := cronParser.Parse(job.Schedule.Cron)
		if err != nil {
			return fmt.Errorf("job %s: parse cron %q: %w", job.ID, job.Schedule.Cron, err)
		}
		job.cron = sched
	case ScheduleDaily:
		if _, _, err := parseClock(job.Schedule.At); err != nil {
			return fmt.Errorf("job %s: %w", job.ID, err)
		}
	case ScheduleOnce:
		if _, err := time.Parse(time.RFC3339, job.Schedule.At); err != nil {
			return fmt.Errorf("job %s: parse time: %w", job.ID, err)
		}
	default:
		return fmt.Errorf("job %s: unknown schedule type %q", job.ID, job.Schedule.Type)
	}

	if job.Timeout == 0 {
		job.Timeout = 5 * time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.running[job.ID]; ok {
		old()
		delete(s.running, job.ID)
	}

	job.enabled = true
	job.nextRun = s.nextRun(job, time.Now())
	s.jobs[job.ID] = job

	if s.started {
		s.startJob(job, false)
	}
	return nil
}

// Unregister removes a job from the scheduler
func (s *Scheduler) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.running[id]; ok {
		cancel()
		delete(s.running, id)
	}
	delete(s.jobs, id)
}

// Enable enables a job
func (s *Scheduler) Enable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if job.enabled {
		return nil
	}

	job.enabled = true
	job.nextRun = s.nextRun(job, time.Now())
	if s.started {
		s.startJob(job, false)
	}
	return nil
}

// Disable disables a job
func (s *Scheduler) Disable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}

	job.enabled = false
	if cancel, ok := s.running[id]; ok {
		cancel()
		delete(s.running, id)
	}
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	for _, job := range s.jobs {
		if job.enabled {
			s.startJob(job, job.RunOnStart)
		}
	}

	logging.WithField("jobs", len(s.jobs)).Info("scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}

	s.cancel()
	s.running = make(map[string]context.CancelFunc)
	s.started = false
	s.mu.Unlock()

	// Loops take the lock to record results, so wait without holding it.
	s.wg.Wait()

	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	logging.Info("scheduler stopped")
}

// startJob starts a single job's loop. Callers hold s.mu.
func (s *Scheduler) startJob(job *Job, immediately bool) {
	jobCtx, cancel := context.WithCancel(s.ctx)
	s.running[job.ID] = cancel

	s.wg.Add(1)
	go s.loop(jobCtx, job, immediately)
}

// loop waits for each next run and executes the job.
func (s *Scheduler) loop(ctx context.Context, job *Job, immediately bool) {
	defer s.wg.Done()

	if immediately {
		s.execute(ctx, job)
	}

	for {
		s.mu.RLock()
		next := job.nextRun
		s.mu.RUnlock()

		if next.IsZero() {
			return
		}

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.execute(ctx, job)
		}

		if job.Schedule.Type == ScheduleOnce {
			return
		}
	}
}

// execute runs a job once and records the outcome.
func (s *Scheduler) execute(ctx context.Context, job *Job) {
	execCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	start := time.Now()
	err := job.Handler(execCtx)

	s.mu.Lock()
	job.lastRun = start
	job.runCount++
	if err != nil {
		job.errorCount++
		job.lastError = err.Error()
	} else {
		job.lastError = ""
	}
	if job.Schedule.Type == ScheduleOnce {
		job.nextRun = time.Time{}
	} else {
		job.nextRun = s.nextRun(job, time.Now())
	}
	s.mu.Unlock()

	log := logging.WithFields(map[string]interface{}{
		"job":      job.ID,
		"duration": time.Since(start).Round(time.Millisecond),
	})
	if err != nil {
		log.Error("job failed: %v", err)
	} else {
		log.Debug("job finished")
	}
}

// nextRun calculates the next run time after now. A zero time means the
// job will not run again.
func (s *Scheduler) nextRun(job *Job, now time.Time) time.Time {
	now = now.In(s.timezone)

	switch job.Schedule.Type {
	case ScheduleInterval:
		return now.Add(job.Schedule.Interval)

	case ScheduleDaily:
		hour, minute, _ := parseClock(job.Schedule.At)
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, s.timezone)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next

	case ScheduleCron:
		return job.cron.Next(now)

	case ScheduleOnce:
		t, _ := time.Parse(time.RFC3339, job.Schedule.At)
		if !job.lastRun.IsZero() {
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}

// parseClock parses "HH:MM".
func parseClock(at string) (int, int, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM", at)
	}
	return t.Hour(), t.Minute(), nil
}

// RunNow executes a job immediately in the background.
func (s *Scheduler) RunNow(id string) error {
	s.mu.RLock()
	job, ok := s.jobs[id]
	ctx := s.ctx
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(ctx, job)
	}()
	return nil
}

// Job returns the status of a job
func (s *Scheduler) Job(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Status{}, false
	}
	return job.status(), true
}

// Jobs returns the status of every job, ordered by id.
func (s *Scheduler) Jobs() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Status, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (j *Job) status() Status {
	return Status{
		ID:         j.ID,
		Name:       j.Name,
		Schedule:   j.Schedule,
		Enabled:    j.enabled,
		LastRun:    j.lastRun,
		NextRun:    j.nextRun,
		RunCount:   j.runCount,
		ErrorCount: j.errorCount,
		LastError:  j.lastError,
	}
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:     s.started,
		TotalJobs:   len(s.jobs),
		RunningJobs: len(s.running),
		Timezone:    s.timezone.String(),
	}
	for _, job := range s.jobs {
		if job.enabled {
			stats.EnabledJobs++
		}
		stats.TotalRuns += job.runCount
		stats.TotalErrors += job.errorCount
	}
	return stats
}

// Stats contains scheduler statistics
type Stats struct {
	Started     bool   `json:"started"`
	TotalJobs   int    `json:"total_jobs"`
	EnabledJobs int    `json:"enabled_jobs"`
	RunningJobs int    `json:"running_jobs"`
	TotalRuns   int64  `json:"total_runs"`
	TotalErrors int64  `json:"total_errors"`
	Timezone    string `json:"timezone"`
}

// Common job builders

// IntervalJob creates a job that runs at a fixed interval
func IntervalJob(id, name string, interval time.Duration, handler Handler) *Job {
	return &Job{
		ID:       id,
		Name:     name,
		Schedule: Schedule{Type: ScheduleInterval, Interval: interval},
		Handler:  handler,
	}
}

// DailyJob creates a job that runs daily at "HH:MM"
func DailyJob(id, name, at string, handler Handler) *Job {
	return &Job{
		ID:       id,
		Name:     name,
		Schedule: Schedule{Type: ScheduleDaily, At: at},
		Handler:  handler,
	}
}

// CronJob creates a job driven by a cron expression
func CronJob(id, name, expr string, handler Handler) *Job {
	return &Job{
		ID:       id,
		Name:     name,
		Schedule: Schedule{Type: ScheduleCron, Cron: expr},
		Handler:  handler,
	}
}

// OnceJob creates a job that runs once at a specific time
func OnceJob(id, name string, at time.Time, handler Handler) *Job {
	return &Job{
		ID:       id,
		Name:     name,
		Schedule: Schedule{Type: ScheduleOnce, At: at.Format(time.RFC3339)},
		Handler:  handler,
	}
}
