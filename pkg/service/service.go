package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncbridge/internal/models"
	"syncbridge/pkg/datasource"
	"syncbridge/pkg/engine"
	"syncbridge/pkg/scheduler"
	"syncbridge/pkg/store"
)

// SyncService is the application facade the HTTP handlers and the
// scheduler both call. It owns job lifecycle validation; the executor
// and the datasource registry do the heavy lifting.
type SyncService struct {
	store     *store.Store
	registry  *datasource.Registry
	executor  *engine.Executor
	scheduler *scheduler.Scheduler
	log       *zap.Logger

	recentLimit int
}

// Options tunes service behavior.
type Options struct {
	// RecentResultsLimit bounds the run history in job status replies.
	RecentResultsLimit int
}

// New wires the service facade.
func New(st *store.Store, registry *datasource.Registry, executor *engine.Executor, sched *scheduler.Scheduler, opts Options, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.RecentResultsLimit
	if limit <= 0 {
		limit = 10
	}
	return &SyncService{
		store:       st,
		registry:    registry,
		executor:    executor,
		scheduler:   sched,
		log:         logger,
		recentLimit: limit,
	}
}

// JobStatus is the composite reply for one job: current definition
// plus its most recent run outcomes, newest first.
type JobStatus struct {
	Job           *models.SyncJob  `json:"job"`
	RecentResults []models.SyncLog `json:"recent_results"`
	NextRun       *time.Time       `json:"next_run,omitempty"`
}

// RegisterDataSource validates and stores a new source definition.
func (s *SyncService) RegisterDataSource(ctx context.Context, source *models.DataSource) (string, error) {
	if source.Name == "" {
		return "", fmt.Errorf("data source name is required")
	}
	return s.registry.Register(ctx, source)
}

// ListDataSources returns every registered source.
func (s *SyncService) ListDataSources(ctx context.Context) ([]models.DataSource, error) {
	return s.store.ListSources(ctx)
}

// GetDataSource returns one source by id.
func (s *SyncService) GetDataSource(ctx context.Context, id string) (*models.DataSource, error) {
	return s.store.GetSource(ctx, id)
}

// CreateSyncJob validates a job definition, persists it and, when
// active, arms its schedule entry.
func (s *SyncService) CreateSyncJob(ctx context.Context, job *models.SyncJob) (*models.SyncJob, error) {
	if err := s.validateJob(ctx, job); err != nil {
		return nil, err
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.IsActive = true
	job.NextSyncAt = time.Now().Add(time.Duration(job.FrequencyMinutes) * time.Minute)

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	if err := s.scheduler.Schedule(job); err != nil {
		s.log.Warn("job created but not scheduled",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
	s.log.Info("created sync job",
		zap.String("job_id", job.ID),
		zap.String("name", job.Name),
		zap.String("data_type", string(job.DataType)),
		zap.Int("frequency_minutes", job.FrequencyMinutes))
	return job, nil
}

// ListSyncJobs returns all jobs, optionally only the active ones.
func (s *SyncService) ListSyncJobs(ctx context.Context, activeOnly bool) ([]models.SyncJob, error) {
	return s.store.ListJobs(ctx, activeOnly)
}

// GetSyncJob returns one job definition.
func (s *SyncService) GetSyncJob(ctx context.Context, id string) (*models.SyncJob, error) {
	return s.store.GetJob(ctx, id)
}

// ExecuteSyncJob runs a job now, outside its schedule. The run obeys
// the same single-flight rule as scheduled ticks.
func (s *SyncService) ExecuteSyncJob(ctx context.Context, jobID string) (*models.SyncLog, error) {
	return s.executor.Execute(ctx, jobID)
}

// GetSyncJobStatus returns the job plus its recent run history.
func (s *SyncService) GetSyncJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.RecentLogs(ctx, jobID, s.recentLimit)
	if err != nil {
		return nil, err
	}
	status := &JobStatus{Job: job, RecentResults: logs}
	if next := s.scheduler.NextRun(jobID); !next.IsZero() {
		status.NextRun = &next
	}
	return status, nil
}

// ActivateJob re-enables a job and re-arms its schedule entry.
func (s *SyncService) ActivateJob(ctx context.Context, jobID string) (*models.SyncJob, error) {
	job, err := s.store.SetJobActive(ctx, jobID, true)
	if err != nil {
		return nil, err
	}
	if err := s.scheduler.Schedule(job); err != nil {
		return nil, err
	}
	return job, nil
}

// DeactivateJob disables a job and disarms its schedule entry. An
// in-flight run finishes normally.
func (s *SyncService) DeactivateJob(ctx context.Context, jobID string) (*models.SyncJob, error) {
	job, err := s.store.SetJobActive(ctx, jobID, false)
	if err != nil {
		return nil, err
	}
	s.scheduler.Unschedule(jobID)
	return job, nil
}

// DeleteSyncJob removes a job; run history and conflicts stay.
func (s *SyncService) DeleteSyncJob(ctx context.Context, jobID string) error {
	if err := s.store.DeleteJob(ctx, jobID); err != nil {
		return err
	}
	s.scheduler.Unschedule(jobID)
	return nil
}

// ListConflicts returns a job's detected conflicts.
func (s *SyncService) ListConflicts(ctx context.Context, jobID string, unresolvedOnly bool) ([]models.SyncConflict, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.ListConflicts(ctx, jobID, unresolvedOnly)
}

// ResolveConflict marks one conflict settled with the given note.
func (s *SyncService) ResolveConflict(ctx context.Context, conflictID, resolution string) (*models.SyncConflict, error) {
	return s.store.ResolveConflict(ctx, conflictID, resolution)
}

// StartScheduler arms all active jobs and starts the cron loop.
func (s *SyncService) StartScheduler(ctx context.Context) error {
	return s.scheduler.Start(ctx)
}

// StopScheduler halts recurring execution; in-flight runs finish.
func (s *SyncService) StopScheduler() {
	s.scheduler.Stop()
}

// SchedulerStatus summarizes the scheduler for the status endpoint.
type SchedulerStatus struct {
	Running       bool `json:"running"`
	ScheduledJobs int  `json:"scheduled_jobs"`
}

// GetSchedulerStatus reports whether the loop runs and how many jobs
// are armed.
func (s *SyncService) GetSchedulerStatus() SchedulerStatus {
	return SchedulerStatus{
		Running:       s.scheduler.Running(),
		ScheduledJobs: s.scheduler.EntryCount(),
	}
}

func (s *SyncService) validateJob(ctx context.Context, job *models.SyncJob) error {
	if job.Name == "" {
		return fmt.Errorf("%w: name is required", models.ErrInvalidJobConfig)
	}
	if job.FrequencyMinutes <= 0 {
		return fmt.Errorf("%w: frequency_minutes must be positive", models.ErrInvalidJobConfig)
	}
	switch job.DataType {
	case models.DataTypeProducts, models.DataTypeOrders, models.DataTypeCustomers,
		models.DataTypeInventory, models.DataTypePricing:
	default:
		return fmt.Errorf("%w: unknown data type %q", models.ErrInvalidJobConfig, job.DataType)
	}
	switch job.SyncType {
	case models.SyncTypeFull, models.SyncTypeIncremental, models.SyncTypeRealTime, "":
	default:
		return fmt.Errorf("%w: unknown sync type %q", models.ErrInvalidJobConfig, job.SyncType)
	}
	if job.SyncType == "" {
		job.SyncType = models.SyncTypeFull
	}

	if _, err := s.store.GetSource(ctx, job.SourceSystem); err != nil {
		return fmt.Errorf("%w: source system: %v", models.ErrInvalidJobConfig, err)
	}
	if _, err := s.store.GetSource(ctx, job.TargetSystem); err != nil {
		return fmt.Errorf("%w: target system: %v", models.ErrInvalidJobConfig, err)
	}

	if _, err := job.ParseConfig(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidJobConfig, err)
	}
	return nil
}
