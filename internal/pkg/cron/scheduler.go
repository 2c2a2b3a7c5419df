package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/google/uuid"
	robfig "github.com/robfig/cron/v3"
)

// Job is a task fired by Schedule. A run is cancelled when the next
// activation comes due, so a stuck run never overlaps the following one.
type Job struct {
	Name     string
	Spec     string
	Schedule robfig.Schedule
	Fn       func(ctx context.Context) error
}

type Scheduler struct {
	jobs   []Job
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	now    func() time.Time
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		jobs: make([]Job, 0),
		now:  time.Now,
	}
}

// AddJob registers a job that fires every interval.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.add(Job{
		Name:     name,
		Spec:     "@every " + interval.String(),
		Schedule: robfig.Every(interval),
		Fn:       fn,
	})
}

// AddScheduledJob registers a job fired by a standard five-field cron
// expression, e.g. "0 1 1 1 *" for 01:00 on January 1st.
func (s *Scheduler) AddScheduledJob(name, spec string, fn func(ctx context.Context) error) error {
	schedule, err := robfig.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parse schedule for %s: %w", name, err)
	}
	s.add(Job{Name: name, Spec: spec, Schedule: schedule, Fn: fn})
	return nil
}

func (s *Scheduler) add(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job)
	slog.Info("Cron job registered", "name", job.Name, "schedule", job.Spec)
}

// Start runs every job immediately and then on its schedule until ctx is
// done or Stop is called. Jobs added after Start are not run.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(ctx, job)
	}

	slog.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	slog.Info("Stopping cron scheduler...")
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	_ = s.executeJob(ctx, job)

	timer := time.NewTimer(time.Until(job.Schedule.Next(s.now())))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Cron job stopping", "name", job.Name)
			return
		case <-timer.C:
			_ = s.executeJob(ctx, job)
			timer.Reset(time.Until(job.Schedule.Next(s.now())))
		}
	}
}

// executeJob runs one job under a correlation id, so the audit entries a
// run writes can be traced back to it.
func (s *Scheduler) executeJob(ctx context.Context, job Job) error {
	runID := fmt.Sprintf("cron:%s:%s", job.Name, uuid.NewString())
	ctx = activitylog.WithCorrelationID(ctx, runID)

	start := s.now()
	ctx, cancel := context.WithDeadline(ctx, job.Schedule.Next(start))
	defer cancel()

	slog.Debug("Cron job starting", "name", job.Name, "correlation_id", runID)

	if err := job.Fn(ctx); err != nil {
		slog.Error("Cron job failed", "name", job.Name, "correlation_id", runID, "error", err, "duration", time.Since(start))
		return fmt.Errorf("%s: %w", job.Name, err)
	}
	slog.Debug("Cron job completed", "name", job.Name, "correlation_id", runID, "duration", time.Since(start))
	return nil
}

// RunOnce runs every job once, in registration order, and joins their errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	var errs []error
	for _, job := range jobs {
		if err := s.executeJob(ctx, job); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
