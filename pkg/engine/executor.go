package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncbridge/internal/models"
	"syncbridge/pkg/record"
)

// Executor runs one sync job to completion: pull source records,
// validate, transform, detect conflicts, write to the target, and
// persist an append-only SyncLog describing the run.
//
// Runs of the same job are serialized: a second Execute for a job
// still in flight fails with models.ErrJobAlreadyRunning instead of
// racing the first run's write phase. Runs of different jobs are
// independent and may proceed concurrently.
type Executor struct {
	jobs        JobStore
	logs        LogStore
	conflicts   ConflictStore
	connector   Connector
	transformer *Transformer
	detector    *ConflictDetector
	log         *zap.Logger

	inflightMu sync.Mutex
	inflight   map[string]bool

	// sleep is swapped out by tests exercising the retry policy.
	sleep func(time.Duration)
}

// NewExecutor creates an executor over the given stores and connector.
func NewExecutor(jobs JobStore, logs LogStore, conflicts ConflictStore, connector Connector, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		jobs:        jobs,
		logs:        logs,
		conflicts:   conflicts,
		connector:   connector,
		transformer: NewTransformer(nil),
		detector:    NewConflictDetector(connector),
		log:         logger,
		inflight:    make(map[string]bool),
		sleep:       time.Sleep,
	}
}

// runState accumulates one run's counters and errors.
type runState struct {
	processed  int
	success    int
	failed     int
	syncErrors []models.SyncError
}

func (rs *runState) appendError(recordID, field, msg, code, severity string) {
	rs.syncErrors = append(rs.syncErrors, models.SyncError{
		RecordID:  recordID,
		Field:     field,
		Error:     msg,
		ErrorCode: code,
		Severity:  severity,
	})
}

// Execute runs the job once, synchronously. It returns the persisted
// SyncLog, and additionally a non-nil error for configuration errors
// (unknown or inactive job, overlapping run) and system-level failures
// (source or target unreachable). Record-level failures are reported
// through the SyncLog only.
func (e *Executor) Execute(ctx context.Context, jobID string) (*models.SyncLog, error) {
	if !e.acquire(jobID) {
		return nil, fmt.Errorf("%w: %s", models.ErrJobAlreadyRunning, jobID)
	}
	defer e.release(jobID)

	job, err := e.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsActive {
		return nil, fmt.Errorf("%w: %s", models.ErrJobInactive, jobID)
	}
	cfg, err := job.ParseConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidJobConfig, err)
	}

	start := time.Now().UTC()
	runLog := &models.SyncLog{
		ID:        uuid.New().String(),
		JobID:     job.ID,
		Status:    models.SyncStatusRunning,
		StartTime: start,
	}
	if err := e.logs.SaveLog(ctx, runLog); err != nil {
		return nil, fmt.Errorf("failed to create run log for job %s: %w", job.ID, err)
	}

	e.log.Info("Starting sync run",
		zap.String("job_id", job.ID),
		zap.String("job_name", job.Name),
		zap.String("data_type", string(job.DataType)),
		zap.String("run_id", runLog.ID))

	state := &runState{}
	sysErr := e.runBatch(ctx, job, cfg, state)

	return e.finalize(ctx, job, runLog, state, start, sysErr)
}

// runBatch processes the whole source read. A non-nil return is a
// system-level failure; record-level failures are accumulated in state
// and do not stop the loop.
func (e *Executor) runBatch(ctx context.Context, job *models.SyncJob, cfg *models.SyncConfig, state *runState) error {
	iter, err := e.connector.Read(ctx, job.SourceSystem, job.DataType, cfg.Filters)
	if err != nil {
		return fmt.Errorf("source read failed: %w", err)
	}
	defer iter.Close()

	validator := NewValidator(cfg.Validation)

	for {
		rec, ok, err := iter.Next(ctx)
		if err != nil {
			return fmt.Errorf("source read failed: %w", err)
		}
		if !ok {
			return nil
		}

		state.processed++
		recordID := rec.ID()
		if recordID == "" {
			recordID = fmt.Sprintf("record_%d", state.processed)
		}

		if issues := validator.Validate(rec); len(issues) > 0 {
			for _, issue := range issues {
				state.appendError(recordID, issue.Field, issue.Message,
					models.ErrCodeValidationFailed, models.SeverityError)
			}
			state.failed++
			if cfg.ErrorHandling.OnError == models.OnErrorFail {
				return fmt.Errorf("on_error=fail: record %s failed validation", recordID)
			}
			continue
		}

		transformed, warnings := e.transformer.Transform(rec, cfg)
		for _, w := range warnings {
			state.appendError(recordID, w.Field,
				fmt.Sprintf("unknown transformation rule %q, value passed through", w.Rule),
				models.ErrCodeProcessingFailed, models.SeverityWarning)
		}

		// Conflict detection is advisory: a detection failure is
		// logged but never fails the record, and detected conflicts
		// never block the write (last-write-wins).
		conflicts, err := e.detector.Detect(ctx, job.ID, transformed, job.TargetSystem, job.DataType)
		if err != nil {
			e.log.Warn("Conflict detection failed",
				zap.String("job_id", job.ID),
				zap.String("record_id", recordID),
				zap.Error(err))
		} else if len(conflicts) > 0 {
			if err := e.conflicts.SaveConflicts(ctx, conflicts); err != nil {
				e.log.Warn("Failed to persist conflicts",
					zap.String("job_id", job.ID),
					zap.String("record_id", recordID),
					zap.Error(err))
			}
		}

		if err := e.writeWithRetry(ctx, job, cfg, transformed); err != nil {
			state.appendError(recordID, "", err.Error(),
				models.ErrCodeProcessingFailed, models.SeverityError)
			state.failed++
			if cfg.ErrorHandling.OnError == models.OnErrorFail {
				return fmt.Errorf("on_error=fail: record %s failed to write: %w", recordID, err)
			}
			continue
		}
		state.success++
	}
}

// writeWithRetry writes one record, retrying per the job's error
// handling policy. Policies skip and fail write exactly once.
func (e *Executor) writeWithRetry(ctx context.Context, job *models.SyncJob, cfg *models.SyncConfig, rec record.Record) error {
	attempts := 1
	if cfg.ErrorHandling.OnError == models.OnErrorRetry && cfg.ErrorHandling.MaxRetries > 1 {
		attempts = cfg.ErrorHandling.MaxRetries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && cfg.ErrorHandling.RetryDelaySeconds > 0 {
			e.sleep(time.Duration(cfg.ErrorHandling.RetryDelaySeconds) * time.Second)
		}
		lastErr = e.connector.Write(ctx, job.TargetSystem, job.DataType, rec)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// finalize computes the run's final status, persists the completed
// log entry and advances the job's schedule bookkeeping.
func (e *Executor) finalize(ctx context.Context, job *models.SyncJob, runLog *models.SyncLog, state *runState, start time.Time, sysErr error) (*models.SyncLog, error) {
	if sysErr != nil {
		state.appendError(models.RecordIDAll, "", sysErr.Error(),
			models.ErrCodeSyncFailed, models.SeverityCritical)
	}

	switch {
	case sysErr != nil:
		runLog.Status = models.SyncStatusError
	case state.failed == 0:
		runLog.Status = models.SyncStatusSuccess
	case state.success > 0:
		runLog.Status = models.SyncStatusPartial
	default:
		runLog.Status = models.SyncStatusError
	}

	end := time.Now().UTC()
	runLog.RecordsProcessed = state.processed
	runLog.RecordsSuccess = state.success
	runLog.RecordsError = state.failed
	runLog.EndTime = &end
	runLog.DurationSeconds = end.Sub(start).Seconds()
	if err := runLog.SetErrors(state.syncErrors); err != nil {
		e.log.Error("Failed to encode run errors", zap.String("run_id", runLog.ID), zap.Error(err))
	}
	if err := e.logs.SaveLog(ctx, runLog); err != nil {
		e.log.Error("Failed to persist run log", zap.String("run_id", runLog.ID), zap.Error(err))
	}

	job.RunCount++
	if runLog.Status == models.SyncStatusError {
		job.FailCount++
	}
	if runLog.Status == models.SyncStatusSuccess {
		job.LastSyncAt = &start
		job.NextSyncAt = start.Add(time.Duration(job.FrequencyMinutes) * time.Minute)
	}
	if err := e.jobs.UpdateJobRun(ctx, job); err != nil {
		e.log.Error("Failed to update job after run", zap.String("job_id", job.ID), zap.Error(err))
	}

	e.log.Info("Sync run finished",
		zap.String("job_id", job.ID),
		zap.String("run_id", runLog.ID),
		zap.String("status", string(runLog.Status)),
		zap.Int("records_processed", runLog.RecordsProcessed),
		zap.Int("records_success", runLog.RecordsSuccess),
		zap.Int("records_error", runLog.RecordsError),
		zap.Float64("duration_seconds", runLog.DurationSeconds))

	if sysErr != nil {
		return runLog, sysErr
	}
	return runLog, nil
}

func (e *Executor) acquire(jobID string) bool {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	if e.inflight[jobID] {
		return false
	}
	e.inflight[jobID] = true
	return true
}

func (e *Executor) release(jobID string) {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	delete(e.inflight, jobID)
}
