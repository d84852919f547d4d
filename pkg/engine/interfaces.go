package engine

import (
	"context"

	"syncbridge/internal/models"
	"syncbridge/pkg/record"
)

// RecordIterator is a lazy, finite, one-pass sequence of source
// records. Next returns ok=false after the last record; a non-nil
// error aborts the run through the system-failure path.
type RecordIterator interface {
	Next(ctx context.Context) (record.Record, bool, error)
	Close() error
}

// Connector is the uniform read/write capability over registered data
// sources. The datasource registry implements it; tests substitute
// fakes.
type Connector interface {
	// Read opens a one-pass iterator over matching source records.
	Read(ctx context.Context, sourceID string, dataType models.DataType, filters []models.SyncFilter) (RecordIterator, error)

	// ReadOne fetches the target's current copy of one record, or nil
	// when the target does not hold it.
	ReadOne(ctx context.Context, sourceID string, dataType models.DataType, recordID string) (record.Record, error)

	// Write upserts one transformed record into the target.
	Write(ctx context.Context, targetID string, dataType models.DataType, rec record.Record) error
}

// JobStore provides the executor's view of persisted job state.
type JobStore interface {
	// GetJob returns a job by id, or an error satisfying
	// models.ErrJobNotFound.
	GetJob(ctx context.Context, id string) (*models.SyncJob, error)

	// UpdateJobRun persists the post-run mutation of a job
	// (lastSyncAt, nextSyncAt, run counters).
	UpdateJobRun(ctx context.Context, job *models.SyncJob) error
}

// LogStore persists SyncLog entries. SaveLog is called twice per run:
// once for the running entry and once with the completed outcome.
type LogStore interface {
	SaveLog(ctx context.Context, log *models.SyncLog) error
}

// ConflictStore appends detected conflicts.
type ConflictStore interface {
	SaveConflicts(ctx context.Context, conflicts []models.SyncConflict) error
}
