package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"syncbridge/internal/models"
)

// CreateJob persists a new job definition. Names are unique across
// live jobs.
func (s *Store) CreateJob(ctx context.Context, job *models.SyncJob) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.SyncJob{}).
		Where("id = ? OR name = ?", job.ID, job.Name).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check job uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: duplicate id or name %q", models.ErrInvalidJobConfig, job.Name)
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create sync job: %w", err)
	}
	return nil
}

// GetJob returns one job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*models.SyncJob, error) {
	var job models.SyncJob
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync job: %w", err)
	}
	return &job, nil
}

// ListJobs returns all jobs, optionally narrowed to active ones.
func (s *Store) ListJobs(ctx context.Context, activeOnly bool) ([]models.SyncJob, error) {
	q := s.db.WithContext(ctx).Order("created_at")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var jobs []models.SyncJob
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync jobs: %w", err)
	}
	return jobs, nil
}

// SetJobActive flips the activation flag.
func (s *Store) SetJobActive(ctx context.Context, id string, active bool) (*models.SyncJob, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.IsActive == active {
		return job, nil
	}
	job.IsActive = active
	if err := s.db.WithContext(ctx).Model(job).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update sync job activation: %w", err)
	}
	return job, nil
}

// UpdateJobRun persists the post-run mutation of a job.
func (s *Store) UpdateJobRun(ctx context.Context, job *models.SyncJob) error {
	err := s.db.WithContext(ctx).Model(job).
		Select("last_sync_at", "next_sync_at", "run_count", "fail_count").
		Updates(map[string]interface{}{
			"last_sync_at": job.LastSyncAt,
			"next_sync_at": job.NextSyncAt,
			"run_count":    job.RunCount,
			"fail_count":   job.FailCount,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record sync job run: %w", err)
	}
	return nil
}

// DeleteJob soft deletes a job. Its logs and conflicts stay.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SyncJob{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete sync job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
	}
	return nil
}
