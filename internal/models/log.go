package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// SyncStatus represents the final state of one executor run.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusError   SyncStatus = "error"
)

// Error codes attached to SyncError entries.
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeProcessingFailed = "PROCESSING_FAILED"
	ErrCodeSyncFailed       = "SYNC_FAILED"
)

// Severities attached to SyncError entries.
const (
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// RecordIDAll marks a system-level failure that is not attributable to
// a single record.
const RecordIDAll = "ALL"

// SyncError is one record-level or system-level failure inside a run.
type SyncError struct {
	RecordID  string `json:"record_id"`
	Field     string `json:"field,omitempty"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Severity  string `json:"severity"`
}

// SyncLog is the immutable outcome of one executor run, persisted as
// an append-only entry in sync_logs. It references its job by id only;
// deleting the job keeps the history.
type SyncLog struct {
	ID               string         `gorm:"primaryKey" json:"id"`
	JobID            string         `gorm:"index;not null" json:"job_id"`
	Status           SyncStatus     `gorm:"not null" json:"status"`
	RecordsProcessed int            `gorm:"default:0" json:"records_processed"`
	RecordsSuccess   int            `gorm:"default:0" json:"records_success"`
	RecordsError     int            `gorm:"default:0" json:"records_error"`
	Errors           datatypes.JSON `json:"errors,omitempty"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          *time.Time     `json:"end_time"`
	DurationSeconds  float64        `json:"duration_seconds"`
	CreatedAt        time.Time      `json:"created_at"`
}

// TableName returns the table name for SyncLog model
func (SyncLog) TableName() string {
	return "sync_logs"
}

// SetErrors encodes errs into the log's JSON errors column.
func (l *SyncLog) SetErrors(errs []SyncError) error {
	if len(errs) == 0 {
		l.Errors = nil
		return nil
	}
	data, err := json.Marshal(errs)
	if err != nil {
		return err
	}
	l.Errors = datatypes.JSON(data)
	return nil
}

// ParseErrors decodes the log's errors column.
func (l *SyncLog) ParseErrors() ([]SyncError, error) {
	if len(l.Errors) == 0 {
		return nil, nil
	}
	var errs []SyncError
	if err := json.Unmarshal(l.Errors, &errs); err != nil {
		return nil, err
	}
	return errs, nil
}
