package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SourceType enumerates the supported data source backends.
type SourceType string

const (
	SourceTypeDatabase SourceType = "database"
	SourceTypeAPI      SourceType = "api"
	SourceTypeFile     SourceType = "file"
	SourceTypeWebhook  SourceType = "webhook"
)

// DataSource is a registered, named connection plus schema describing
// one external or internal system. Immutable after registration except
// for deactivation; shared read-only among any number of jobs.
type DataSource struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"uniqueIndex;not null" json:"name"`
	Type       SourceType     `gorm:"not null" json:"type"`
	Connection datatypes.JSON `json:"connection"`
	Schema     datatypes.JSON `json:"schema,omitempty"`
	Enabled    bool           `gorm:"default:true" json:"enabled"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for DataSource model
func (DataSource) TableName() string {
	return "data_sources"
}

// ConnectionConfig is the adapter-facing connection document. Fields
// are interpreted per source type; the engine core treats the whole
// document as opaque.
type ConnectionConfig struct {
	// database
	Driver string `json:"driver,omitempty"` // sqlite, mysql, clickhouse
	DSN    string `json:"dsn,omitempty"`
	Table  string `json:"table,omitempty"` // overrides the data-type table name

	// api / webhook
	BaseURL        string            `json:"base_url,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
	RatePerSecond  float64           `json:"rate_per_second,omitempty"`

	// file
	Path string `json:"path,omitempty"`
}

// SchemaField describes one field of a source's record shape.
type SchemaField struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"max_length,omitempty"`
	Format    string `json:"format,omitempty"`
}

// ParseConnection decodes the source's connection document.
func (s *DataSource) ParseConnection() (*ConnectionConfig, error) {
	conn := &ConnectionConfig{}
	if len(s.Connection) == 0 {
		return conn, nil
	}
	if err := json.Unmarshal(s.Connection, conn); err != nil {
		return nil, fmt.Errorf("source %s has malformed connection config: %w", s.ID, err)
	}
	return conn, nil
}

// SetConnection encodes conn into the source's connection column.
func (s *DataSource) SetConnection(conn *ConnectionConfig) error {
	data, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("failed to encode connection config: %w", err)
	}
	s.Connection = datatypes.JSON(data)
	return nil
}

// ParseSchema decodes the source's schema field list.
func (s *DataSource) ParseSchema() ([]SchemaField, error) {
	if len(s.Schema) == 0 {
		return nil, nil
	}
	var fields []SchemaField
	if err := json.Unmarshal(s.Schema, &fields); err != nil {
		return nil, fmt.Errorf("source %s has malformed schema: %w", s.ID, err)
	}
	return fields, nil
}
