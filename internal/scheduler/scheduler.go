package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/5ys-5y5/getEvents/internal/logger"
)

// Job is a unit of scheduled work
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler wraps a cron runner with logging around each job
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

// New creates a scheduler with seconds-resolution cron specs in the
// given timezone
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone '%s': %w", timezone, err)
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
	}, nil
}

// AddJob registers a job on a cron schedule
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}
	s.jobs = append(s.jobs, job)
	logger.Info(context.Background(), "Job scheduled", "job", job.Name(), "schedule", schedule)
	return nil
}

func (s *Scheduler) runJob(job Job) {
	ctx := context.Background()
	timer := logger.StartOperation(ctx, "scheduled_job", "job", job.Name())
	if err := job.Run(timer.GetContext()); err != nil {
		timer.EndWithError(err)
		return
	}
	timer.End()
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info(context.Background(), "Scheduler started", "jobCount", len(s.jobs))
}

// Stop halts the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info(context.Background(), "Scheduler stopped")
}

// RunNow executes a registered job immediately, outside its schedule
func (s *Scheduler) RunNow(name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			s.runJob(job)
			return nil
		}
	}
	return fmt.Errorf("no job named '%s'", name)
}
