package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"syncbridge/internal/models"
)

// SaveConflicts appends detected conflicts in one batch.
func (s *Store) SaveConflicts(ctx context.Context, conflicts []models.SyncConflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&conflicts).Error; err != nil {
		return fmt.Errorf("failed to save sync conflicts: %w", err)
	}
	return nil
}

// ListConflicts returns a job's conflicts, unresolved first, newest
// within each group.
func (s *Store) ListConflicts(ctx context.Context, jobID string, unresolvedOnly bool) ([]models.SyncConflict, error) {
	q := s.db.WithContext(ctx).Where("job_id = ?", jobID)
	if unresolvedOnly {
		q = q.Where("resolution IS NULL")
	}
	var conflicts []models.SyncConflict
	if err := q.Order("resolution IS NULL DESC, created_at DESC").Find(&conflicts).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync conflicts: %w", err)
	}
	return conflicts, nil
}

// ResolveConflict records how a conflict was settled. Resolving an
// already resolved conflict overwrites the previous resolution.
func (s *Store) ResolveConflict(ctx context.Context, id, resolution string) (*models.SyncConflict, error) {
	var conflict models.SyncConflict
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&conflict).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", models.ErrConflictNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync conflict: %w", err)
	}

	now := time.Now()
	conflict.Resolution = &resolution
	conflict.ResolvedAt = &now
	err = s.db.WithContext(ctx).Model(&conflict).
		Updates(map[string]interface{}{
			"resolution":  resolution,
			"resolved_at": now,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sync conflict: %w", err)
	}
	return &conflict, nil
}
