package models

import (
	"time"

	"gorm.io/gorm"
)

// ConflictType classifies a detected divergence.
type ConflictType string

const (
	ConflictTypeValueMismatch ConflictType = "value_mismatch"
	ConflictTypeMissingTarget ConflictType = "missing_in_target"
)

// SyncConflict records one field-level disagreement between an
// incoming transformed record and the value already held by the
// target. Conflicts are informational: the executor still writes the
// source value (last-write-wins) and resolution happens later,
// independent of the originating run.
type SyncConflict struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	JobID       string         `gorm:"index;not null" json:"job_id"`
	RecordID    string         `gorm:"index;not null" json:"record_id"`
	FieldName   string         `gorm:"not null" json:"field_name"`
	SourceValue string         `json:"source_value"`
	TargetValue string         `json:"target_value"`
	Type        ConflictType   `gorm:"default:value_mismatch" json:"conflict_type"`
	Resolution  *string        `json:"resolution"`
	ResolvedAt  *time.Time     `json:"resolved_at"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for SyncConflict model
func (SyncConflict) TableName() string {
	return "sync_conflicts"
}

// Resolved reports whether a resolution has been recorded.
func (c *SyncConflict) Resolved() bool {
	return c.Resolution != nil
}
