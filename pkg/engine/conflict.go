package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"syncbridge/internal/models"
	"syncbridge/pkg/record"
)

// ConflictDetector compares incoming transformed records against the
// target's current data. Detection is read-only and advisory: the
// executor writes the source value regardless (last-write-wins) and
// the conflict log carries the audit trail.
type ConflictDetector struct {
	connector Connector
}

// NewConflictDetector creates a detector reading targets through the
// given connector.
func NewConflictDetector(connector Connector) *ConflictDetector {
	return &ConflictDetector{connector: connector}
}

// Detect returns one SyncConflict per mapped field whose target value
// disagrees with the incoming record. A record the target does not
// hold yet produces no conflicts (it is a plain insert).
func (d *ConflictDetector) Detect(ctx context.Context, jobID string, rec record.Record, targetID string, dataType models.DataType) ([]models.SyncConflict, error) {
	recordID := rec.ID()
	if recordID == "" {
		return nil, nil
	}
	target, err := d.connector.ReadOne(ctx, targetID, dataType, recordID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}
	return DiffRecords(jobID, recordID, rec, target), nil
}

// DiffRecords computes field-level conflicts between an incoming
// record and the target's existing copy. Only fields carried by the
// incoming record are compared; the record identity field never
// conflicts with itself.
func DiffRecords(jobID, recordID string, incoming, target record.Record) []models.SyncConflict {
	fields := make([]string, 0, len(incoming))
	for f := range incoming {
		if f != "id" {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)

	var conflicts []models.SyncConflict
	now := time.Now().UTC()
	for _, f := range fields {
		src := incoming.Get(f)
		tgt := target.Get(f)
		if src.Equal(tgt) {
			continue
		}
		conflictType := models.ConflictTypeValueMismatch
		if tgt.IsNull() && !src.IsNull() {
			conflictType = models.ConflictTypeMissingTarget
		}
		conflicts = append(conflicts, models.SyncConflict{
			ID:          uuid.New().String(),
			JobID:       jobID,
			RecordID:    recordID,
			FieldName:   f,
			SourceValue: src.AsString(),
			TargetValue: tgt.AsString(),
			Type:        conflictType,
			CreatedAt:   now,
		})
	}
	return conflicts
}
