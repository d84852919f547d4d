package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"syncbridge/internal/models"
)

// CreateSource persists a new data source. Registering an id or name
// that is already taken fails with models.ErrDuplicateSource.
func (s *Store) CreateSource(ctx context.Context, source *models.DataSource) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.DataSource{}).
		Where("id = ? OR name = ?", source.ID, source.Name).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check source uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", models.ErrDuplicateSource, source.Name)
	}
	if err := s.db.WithContext(ctx).Create(source).Error; err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	return nil
}

// GetSource returns one source by id.
func (s *Store) GetSource(ctx context.Context, id string) (*models.DataSource, error) {
	var source models.DataSource
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", models.ErrSourceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load data source: %w", err)
	}
	return &source, nil
}

// ListSources returns all registered sources.
func (s *Store) ListSources(ctx context.Context) ([]models.DataSource, error) {
	var sources []models.DataSource
	if err := s.db.WithContext(ctx).Order("created_at").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}
	return sources, nil
}
