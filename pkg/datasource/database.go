package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"syncbridge/internal/models"
	"syncbridge/pkg/engine"
	"syncbridge/pkg/record"
)

// databaseAdapter reads and writes relational sources through gorm.
// One table per data type (products, orders, ...), overridable via the
// connection config. Records are keyed by an "id" column.
type databaseAdapter struct {
	sourceID string
	conn     *models.ConnectionConfig
	db       *gorm.DB
	pageSize int
}

func newDatabaseAdapter(sourceID string, conn *models.ConnectionConfig, opts Options) (*databaseAdapter, error) {
	var dialector gorm.Dialector
	switch conn.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(conn.DSN)
	case "mysql":
		dialector = mysql.Open(conn.DSN)
	default:
		return nil, fmt.Errorf("%w: database driver %s", models.ErrUnsupportedSourceType, conn.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database for source %s: %w", sourceID, err)
	}

	return &databaseAdapter{
		sourceID: sourceID,
		conn:     conn,
		db:       db,
		pageSize: opts.PageSize,
	}, nil
}

func (a *databaseAdapter) table(dataType models.DataType) string {
	if a.conn.Table != "" {
		return a.conn.Table
	}
	return string(dataType)
}

func (a *databaseAdapter) Read(ctx context.Context, dataType models.DataType, filters []models.SyncFilter) (engine.RecordIterator, error) {
	table := a.table(dataType)
	fetch := func(ctx context.Context, offset, limit int) ([]record.Record, error) {
		var rows []map[string]interface{}
		q := applyFilters(a.db.WithContext(ctx).Table(table), filters)
		if err := q.Order("id").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
			return nil, &ReadError{SourceID: a.sourceID, Err: err}
		}
		records := make([]record.Record, 0, len(rows))
		for _, row := range rows {
			records = append(records, record.FromMap(row))
		}
		return records, nil
	}
	return newPageIterator(fetch, a.pageSize), nil
}

func (a *databaseAdapter) ReadOne(ctx context.Context, dataType models.DataType, recordID string) (record.Record, error) {
	var row map[string]interface{}
	err := a.db.WithContext(ctx).Table(a.table(dataType)).Where("id = ?", recordID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &ReadError{SourceID: a.sourceID, Err: err}
	}
	return record.FromMap(row), nil
}

// Write upserts by id: update first, insert when the row is absent.
// Map payloads keep the adapter schema-free, so the upsert is spelled
// out instead of relying on the dialect's native conflict clause.
func (a *databaseAdapter) Write(ctx context.Context, dataType models.DataType, rec record.Record) error {
	table := a.table(dataType)
	row := rec.ToMap()
	id, ok := row["id"]
	if !ok || rec.ID() == "" {
		return &WriteError{TargetID: a.sourceID, Err: fmt.Errorf("record has no id field")}
	}

	res := a.db.WithContext(ctx).Table(table).Where("id = ?", id).Updates(row)
	if res.Error != nil {
		return &WriteError{TargetID: a.sourceID, Err: res.Error}
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// MySQL reports rows changed, not rows matched, so an update that
	// left an existing row untouched also lands here. Probe before
	// inserting or every unchanged record in a steady-state run would
	// hit a duplicate key.
	var matched int64
	if err := a.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&matched).Error; err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}
	if matched > 0 {
		return nil
	}
	if err := a.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}
	return nil
}

func (a *databaseAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// applyFilters translates sync filters into WHERE clauses. Field names
// come from operator-managed job configs, not end-user input.
func applyFilters(q *gorm.DB, filters []models.SyncFilter) *gorm.DB {
	for _, f := range filters {
		switch f.Operator {
		case models.OpEquals:
			q = q.Where(fmt.Sprintf("%s = ?", f.Field), f.Value)
		case models.OpNotEquals:
			q = q.Where(fmt.Sprintf("%s <> ?", f.Field), f.Value)
		case models.OpGreaterThan:
			q = q.Where(fmt.Sprintf("%s > ?", f.Field), f.Value)
		case models.OpLessThan:
			q = q.Where(fmt.Sprintf("%s < ?", f.Field), f.Value)
		case models.OpContains:
			q = q.Where(fmt.Sprintf("%s LIKE ?", f.Field), "%"+strings.ReplaceAll(f.Value, "%", `\%`)+"%")
		case models.OpIn:
			q = q.Where(fmt.Sprintf("%s IN ?", f.Field), splitList(f.Value))
		}
	}
	return q
}
