// Package scheduler provides scheduled pipeline execution for Oracle.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

// BriefRunner runs a full pipeline pass and returns the final state.
type BriefRunner interface {
	RunDailyBrief(ctx context.Context) (*models.MarketState, error)
}

// Notifier delivers a finished brief to subscribers. Optional.
type Notifier interface {
	SendBrief(ctx context.Context, subject string, state *models.MarketState) error
}

// Job represents a scheduled job.
type Job struct {
	Name     string
	Schedule Schedule
	Handler  func(ctx context.Context) error
	LastRun  time.Time
	NextRun  time.Time
}

// Schedule defines when a job should run.
type Schedule struct {
	// For fixed-interval jobs
	Interval time.Duration

	// For time-of-day jobs (in UTC)
	Hour   int
	Minute int

	// Days (0=Sunday, 1=Monday, etc.)
	Days []int

	// Type of schedule
	Type ScheduleType
}

// ScheduleType defines the type of schedule.
type ScheduleType string

const (
	ScheduleInterval ScheduleType = "interval"
	ScheduleDaily    ScheduleType = "daily"
	ScheduleWeekly   ScheduleType = "weekly"
)

// Config carries the brief times in UTC.
type Config struct {
	PremarketHour    int
	PremarketMinute  int
	PostmarketHour   int
	PostmarketMinute int
}

// Scheduler manages scheduled pipeline runs.
type Scheduler struct {
	runner   BriefRunner
	notifier Notifier

	jobs    []*Job
	jobsMux sync.RWMutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler. notifier may be nil.
func NewScheduler(runner BriefRunner, notifier Notifier, cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		runner:   runner,
		notifier: notifier,
		jobs:     make([]*Job, 0),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.registerDefaultJobs(cfg)

	return s
}

// registerDefaultJobs sets up the default brief schedule.
func (s *Scheduler) registerDefaultJobs(cfg Config) {
	// Premarket brief, weekdays before US cash open
	s.AddJob(&Job{
		Name: "premarket-brief",
		Schedule: Schedule{
			Type:   ScheduleDaily,
			Hour:   cfg.PremarketHour,
			Minute: cfg.PremarketMinute,
		},
		Handler: func(ctx context.Context) error {
			return s.runBrief(ctx, "Premarket Macro Brief")
		},
	})

	// Postmarket brief after US cash close
	s.AddJob(&Job{
		Name: "postmarket-brief",
		Schedule: Schedule{
			Type:   ScheduleDaily,
			Hour:   cfg.PostmarketHour,
			Minute: cfg.PostmarketMinute,
		},
		Handler: func(ctx context.Context) error {
			return s.runBrief(ctx, "Postmarket Macro Brief")
		},
	})

	// Weekly positioning review on Sunday, ahead of the Asia open
	s.AddJob(&Job{
		Name: "weekly-review",
		Schedule: Schedule{
			Type:   ScheduleWeekly,
			Hour:   18,
			Minute: 0,
			Days:   []int{0}, // Sunday
		},
		Handler: func(ctx context.Context) error {
			return s.runBrief(ctx, "Weekly Macro Review")
		},
	})
}

func (s *Scheduler) runBrief(ctx context.Context, subject string) error {
	state, err := s.runner.RunDailyBrief(ctx)
	if err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.SendBrief(ctx, subject, state); err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("Failed to deliver brief")
		}
	}
	return nil
}

// AddJob adds a job to the scheduler.
func (s *Scheduler) AddJob(job *Job) {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	job.NextRun = s.calculateNextRun(job.Schedule)
	s.jobs = append(s.jobs, job)

	log.Info().
		Str("job", job.Name).
		Time("next_run", job.NextRun).
		Msg("Job registered")
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	log.Info().Int("jobs", len(s.jobs)).Msg("Starting scheduler")

	s.wg.Add(1)
	go s.jobLoop()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler")
	s.cancel()
	s.wg.Wait()
}

// jobLoop checks and runs scheduled jobs.
func (s *Scheduler) jobLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunJobs()
		}
	}
}

// checkAndRunJobs runs any jobs that are due.
func (s *Scheduler) checkAndRunJobs() {
	now := time.Now().UTC()

	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	for _, job := range s.jobs {
		if now.After(job.NextRun) || now.Equal(job.NextRun) {
			go s.runJob(job)
			job.LastRun = now
			job.NextRun = s.calculateNextRun(job.Schedule)

			log.Debug().
				Str("job", job.Name).
				Time("next_run", job.NextRun).
				Msg("Job scheduled for next run")
		}
	}
}

// runJob executes a job. A full pipeline pass hits several upstream
// feeds plus the LLM, so the timeout is generous.
func (s *Scheduler) runJob(job *Job) {
	log.Info().Str("job", job.Name).Msg("Running job")

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Minute)
	defer cancel()

	if err := job.Handler(ctx); err != nil {
		log.Error().Err(err).Str("job", job.Name).Msg("Job failed")
	} else {
		log.Info().Str("job", job.Name).Msg("Job completed")
	}
}

// calculateNextRun calculates the next run time for a schedule.
func (s *Scheduler) calculateNextRun(schedule Schedule) time.Time {
	now := time.Now().UTC()

	switch schedule.Type {
	case ScheduleInterval:
		return now.Add(schedule.Interval)

	case ScheduleDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(),
			schedule.Hour, schedule.Minute, 0, 0, time.UTC)
		if next.Before(now) || next.Equal(now) {
			next = next.Add(24 * time.Hour)
		}
		return next

	case ScheduleWeekly:
		next := time.Date(now.Year(), now.Month(), now.Day(),
			schedule.Hour, schedule.Minute, 0, 0, time.UTC)

		// Find next matching day
		for i := 0; i < 7; i++ {
			dayOfWeek := int(next.Weekday())
			for _, d := range schedule.Days {
				if d == dayOfWeek && next.After(now) {
					return next
				}
			}
			next = next.Add(24 * time.Hour)
		}
		return next

	default:
		return now.Add(time.Hour)
	}
}

// RunJobNow runs a specific job immediately by name.
func (s *Scheduler) RunJobNow(name string) error {
	s.jobsMux.RLock()
	defer s.jobsMux.RUnlock()

	for _, job := range s.jobs {
		if job.Name == name {
			go s.runJob(job)
			return nil
		}
	}

	return fmt.Errorf("unknown job: %s", name)
}

// GetJobStatus returns the status of all jobs.
func (s *Scheduler) GetJobStatus() []map[string]interface{} {
	s.jobsMux.RLock()
	defer s.jobsMux.RUnlock()

	status := make([]map[string]interface{}, len(s.jobs))
	for i, job := range s.jobs {
		status[i] = map[string]interface{}{
			"name":     job.Name,
			"last_run": job.LastRun,
			"next_run": job.NextRun,
		}
	}
	return status
}
