package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"syncbridge/internal/models"
)

// JobRunner executes one sync job run. The executor implements it.
type JobRunner interface {
	Execute(ctx context.Context, jobID string) (*models.SyncLog, error)
}

// JobLister loads the jobs eligible for scheduling.
type JobLister interface {
	ListJobs(ctx context.Context, activeOnly bool) ([]models.SyncJob, error)
}

// Scheduler arms one recurring cron entry per active job. It is a
// plain object owned by the service, not process-global state, so two
// schedulers in one process (or in tests) never interfere.
type Scheduler struct {
	cron   *cron.Cron
	runner JobRunner
	jobs   JobLister
	log    *zap.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	started bool
}

// New builds a stopped scheduler. Call Start to begin firing.
func New(runner JobRunner, jobs JobLister, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		runner:  runner,
		jobs:    jobs,
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// Start arms every active job and begins the cron loop. Jobs that are
// already due (nextSyncAt in the past) fire on their first tick rather
// than immediately; an explicit execute call covers the catch-up case.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	jobs, err := s.jobs.ListJobs(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to load schedulable jobs: %w", err)
	}
	for i := range jobs {
		if err := s.armLocked(&jobs[i]); err != nil {
			s.log.Warn("skipping unschedulable job",
				zap.String("job_id", jobs[i].ID),
				zap.Error(err))
		}
	}

	s.cron.Start()
	s.started = true
	s.log.Info("scheduler started", zap.Int("job_count", len(s.entries)))
	return nil
}

// Stop halts the cron loop and waits for in-flight runs to return.
// The drain happens outside the mutex: an in-flight tick may call
// Unschedule (stale entry) and must be able to take the lock.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Schedule arms or re-arms the recurring entry for a job. Re-arming
// replaces the previous entry, so a frequency change takes effect on
// the next tick.
func (s *Scheduler) Schedule(job *models.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armLocked(job)
}

// Unschedule removes a job's entry. Unknown jobs are a no-op.
func (s *Scheduler) Unschedule(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[jobID]; ok {
		s.cron.Remove(id)
		delete(s.entries, jobID)
	}
}

// Running reports whether the cron loop is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// EntryCount returns the number of armed jobs.
func (s *Scheduler) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Scheduled reports whether a job currently has an armed entry.
func (s *Scheduler) Scheduled(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[jobID]
	return ok
}

// NextRun returns the next fire time for a job's entry, zero when the
// job is not armed or the loop has not started.
func (s *Scheduler) NextRun(jobID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[jobID]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) armLocked(job *models.SyncJob) error {
	if job.FrequencyMinutes <= 0 {
		return fmt.Errorf("%w: frequency must be positive", models.ErrInvalidJobConfig)
	}
	if prev, ok := s.entries[job.ID]; ok {
		s.cron.Remove(prev)
		delete(s.entries, job.ID)
	}

	jobID := job.ID
	entryID := s.cron.Schedule(
		cron.Every(time.Duration(job.FrequencyMinutes)*time.Minute),
		cron.FuncJob(func() { s.fire(jobID) }),
	)
	s.entries[jobID] = entryID
	return nil
}

// fire runs one tick. A failed or skipped run never disarms the
// entry; the job retries on its next tick.
func (s *Scheduler) fire(jobID string) {
	ctx := context.Background()
	runLog, err := s.runner.Execute(ctx, jobID)
	switch {
	case errors.Is(err, models.ErrJobAlreadyRunning):
		s.log.Info("tick skipped, previous run still in flight",
			zap.String("job_id", jobID))
	case errors.Is(err, models.ErrJobInactive), errors.Is(err, models.ErrJobNotFound):
		s.log.Warn("disarming stale schedule entry",
			zap.String("job_id", jobID),
			zap.Error(err))
		s.Unschedule(jobID)
	case err != nil:
		s.log.Error("scheduled run failed",
			zap.String("job_id", jobID),
			zap.Error(err))
	default:
		s.log.Info("scheduled run finished",
			zap.String("job_id", jobID),
			zap.String("status", string(runLog.Status)),
			zap.Int("records_processed", runLog.RecordsProcessed))
	}
}
