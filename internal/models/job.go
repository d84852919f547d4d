package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DataType enumerates the record families a job can move.
type DataType string

const (
	DataTypeProducts  DataType = "products"
	DataTypeOrders    DataType = "orders"
	DataTypeCustomers DataType = "customers"
	DataTypeInventory DataType = "inventory"
	DataTypePricing   DataType = "pricing"
)

// SyncType enumerates how a job pulls from its source.
type SyncType string

const (
	SyncTypeFull        SyncType = "full"
	SyncTypeIncremental SyncType = "incremental"
	SyncTypeRealTime    SyncType = "real_time"
)

// SyncJob is a named, recurring data-movement task between two
// registered data sources. The executor advances LastSyncAt/NextSyncAt
// after each successful run; deactivation stops scheduling without
// deleting run history.
type SyncJob struct {
	ID               string         `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"uniqueIndex;not null" json:"name"`
	SourceSystem     string         `gorm:"not null" json:"source_system"`
	TargetSystem     string         `gorm:"not null" json:"target_system"`
	DataType         DataType       `gorm:"not null" json:"data_type"`
	SyncType         SyncType       `gorm:"default:full" json:"sync_type"`
	FrequencyMinutes int            `gorm:"not null" json:"frequency_minutes"`
	LastSyncAt       *time.Time     `json:"last_sync_at"`
	NextSyncAt       time.Time      `json:"next_sync_at"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	Config           datatypes.JSON `json:"config"`
	RunCount         int            `gorm:"default:0" json:"run_count"`
	FailCount        int            `gorm:"default:0" json:"fail_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for SyncJob model
func (SyncJob) TableName() string {
	return "sync_jobs"
}

// ParseConfig decodes the embedded SyncConfig document.
func (j *SyncJob) ParseConfig() (*SyncConfig, error) {
	cfg := &SyncConfig{}
	if len(j.Config) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(j.Config, cfg); err != nil {
		return nil, fmt.Errorf("job %s has malformed config: %w", j.ID, err)
	}
	return cfg, nil
}

// SetConfig encodes cfg into the job's JSON config column.
func (j *SyncJob) SetConfig(cfg *SyncConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode sync config: %w", err)
	}
	j.Config = datatypes.JSON(data)
	return nil
}
