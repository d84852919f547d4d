package datasource

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"syncbridge/internal/models"
	"syncbridge/pkg/engine"
	"syncbridge/pkg/record"
)

// clickhouseAdapter serves database sources with driver "clickhouse",
// typically analytics targets. Writes are plain inserts; row-version
// reconciliation belongs to the table engine (ReplacingMergeTree).
type clickhouseAdapter struct {
	sourceID string
	conn     *models.ConnectionConfig
	ch       driver.Conn
	pageSize int
}

func newClickHouseAdapter(sourceID string, conn *models.ConnectionConfig, opts Options) (*clickhouseAdapter, error) {
	chOpts, err := clickhouse.ParseDSN(conn.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid clickhouse dsn for source %s: %w", sourceID, err)
	}
	chOpts.DialTimeout = opts.HTTPTimeout
	chOpts.MaxOpenConns = 10
	chOpts.MaxIdleConns = 5
	chOpts.ConnMaxLifetime = time.Hour

	ch, err := clickhouse.Open(chOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse for source %s: %w", sourceID, err)
	}

	return &clickhouseAdapter{
		sourceID: sourceID,
		conn:     conn,
		ch:       ch,
		pageSize: opts.PageSize,
	}, nil
}

func (a *clickhouseAdapter) table(dataType models.DataType) string {
	if a.conn.Table != "" {
		return a.conn.Table
	}
	return string(dataType)
}

func (a *clickhouseAdapter) Read(ctx context.Context, dataType models.DataType, filters []models.SyncFilter) (engine.RecordIterator, error) {
	table := a.table(dataType)
	where, args := buildWhere(filters)
	fetch := func(ctx context.Context, offset, limit int) ([]record.Record, error) {
		query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY id LIMIT %d OFFSET %d", table, where, limit, offset)
		rows, err := a.ch.Query(ctx, query, args...)
		if err != nil {
			return nil, &ReadError{SourceID: a.sourceID, Err: err}
		}
		defer rows.Close()
		records, err := scanRows(rows)
		if err != nil {
			return nil, &ReadError{SourceID: a.sourceID, Err: err}
		}
		return records, nil
	}
	return newPageIterator(fetch, a.pageSize), nil
}

func (a *clickhouseAdapter) ReadOne(ctx context.Context, dataType models.DataType, recordID string) (record.Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = ? LIMIT 1", a.table(dataType))
	rows, err := a.ch.Query(ctx, query, recordID)
	if err != nil {
		return nil, &ReadError{SourceID: a.sourceID, Err: err}
	}
	defer rows.Close()
	records, err := scanRows(rows)
	if err != nil {
		return nil, &ReadError{SourceID: a.sourceID, Err: err}
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (a *clickhouseAdapter) Write(ctx context.Context, dataType models.DataType, rec record.Record) error {
	row := rec.ToMap()
	columns := make([]string, 0, len(row))
	for col := range row {
		columns = append(columns, col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	values := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		values = append(values, row[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		a.table(dataType), strings.Join(columns, ", "), placeholders)
	if err := a.ch.Exec(ctx, query, values...); err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}
	return nil
}

func (a *clickhouseAdapter) Close() error {
	return a.ch.Close()
}

// scanRows reads all rows of the result into records, using the
// driver's scan types to stay schema-free.
func scanRows(rows driver.Rows) ([]record.Record, error) {
	columns := rows.Columns()
	types := rows.ColumnTypes()

	var records []record.Record
	for rows.Next() {
		dest := make([]interface{}, len(columns))
		for i, ct := range types {
			dest[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = reflect.ValueOf(dest[i]).Elem().Interface()
		}
		records = append(records, record.FromMap(row))
	}
	return records, rows.Err()
}

// buildWhere renders filters as a parameterized WHERE clause.
func buildWhere(filters []models.SyncFilter) (string, []interface{}) {
	if len(filters) == 0 {
		return "", nil
	}
	var clauses []string
	var args []interface{}
	for _, f := range filters {
		switch f.Operator {
		case models.OpEquals:
			clauses = append(clauses, fmt.Sprintf("%s = ?", f.Field))
			args = append(args, f.Value)
		case models.OpNotEquals:
			clauses = append(clauses, fmt.Sprintf("%s != ?", f.Field))
			args = append(args, f.Value)
		case models.OpGreaterThan:
			clauses = append(clauses, fmt.Sprintf("%s > ?", f.Field))
			args = append(args, f.Value)
		case models.OpLessThan:
			clauses = append(clauses, fmt.Sprintf("%s < ?", f.Field))
			args = append(args, f.Value)
		case models.OpContains:
			clauses = append(clauses, fmt.Sprintf("positionCaseSensitive(%s, ?) > 0", f.Field))
			args = append(args, f.Value)
		case models.OpIn:
			clauses = append(clauses, fmt.Sprintf("%s IN ?", f.Field))
			args = append(args, splitList(f.Value))
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
