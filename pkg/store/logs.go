package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"syncbridge/internal/models"
)

// SaveLog upserts one run log entry. The executor writes the entry
// once when the run starts and again with the final outcome.
func (s *Store) SaveLog(ctx context.Context, log *models.SyncLog) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(log).Error
	if err != nil {
		return fmt.Errorf("failed to save sync log: %w", err)
	}
	return nil
}

// RecentLogs returns the newest run logs for a job, most recent first.
func (s *Store) RecentLogs(ctx context.Context, jobID string, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 10
	}
	var logs []models.SyncLog
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("start_time DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync logs: %w", err)
	}
	return logs, nil
}
