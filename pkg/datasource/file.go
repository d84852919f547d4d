package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"syncbridge/internal/models"
	"syncbridge/pkg/engine"
	"syncbridge/pkg/record"
)

// fileAdapter keeps one JSON array per data type under the configured
// directory, e.g. {path}/products.json. Writes rewrite the whole file;
// a mutex serializes the read-modify-write so concurrent jobs against
// the same file source cannot clobber each other.
type fileAdapter struct {
	sourceID string
	dir      string

	mu sync.Mutex
}

func newFileAdapter(sourceID string, conn *models.ConnectionConfig) (*fileAdapter, error) {
	if conn.Path == "" {
		return nil, fmt.Errorf("file source %s has no path", sourceID)
	}
	if err := os.MkdirAll(conn.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare directory for source %s: %w", sourceID, err)
	}
	return &fileAdapter{sourceID: sourceID, dir: conn.Path}, nil
}

func (a *fileAdapter) fileFor(dataType models.DataType) string {
	return filepath.Join(a.dir, string(dataType)+".json")
}

func (a *fileAdapter) load(dataType models.DataType) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(a.fileFor(dataType))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("malformed json in %s: %w", a.fileFor(dataType), err)
	}
	return rows, nil
}

func (a *fileAdapter) save(dataType models.DataType, rows []map[string]interface{}) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	tmp := a.fileFor(dataType) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, a.fileFor(dataType))
}

func (a *fileAdapter) Read(ctx context.Context, dataType models.DataType, filters []models.SyncFilter) (engine.RecordIterator, error) {
	a.mu.Lock()
	rows, err := a.load(dataType)
	a.mu.Unlock()
	if err != nil {
		return nil, &ReadError{SourceID: a.sourceID, Err: err}
	}

	var records []record.Record
	for _, row := range rows {
		rec := record.FromMap(row)
		if matchesFilters(rec, filters) {
			records = append(records, rec)
		}
	}
	return newSliceIterator(records), nil
}

func (a *fileAdapter) ReadOne(ctx context.Context, dataType models.DataType, recordID string) (record.Record, error) {
	a.mu.Lock()
	rows, err := a.load(dataType)
	a.mu.Unlock()
	if err != nil {
		return nil, &ReadError{SourceID: a.sourceID, Err: err}
	}
	for _, row := range rows {
		rec := record.FromMap(row)
		if rec.ID() == recordID {
			return rec, nil
		}
	}
	return nil, nil
}

func (a *fileAdapter) Write(ctx context.Context, dataType models.DataType, rec record.Record) error {
	id := rec.ID()
	if id == "" {
		return &WriteError{TargetID: a.sourceID, Err: fmt.Errorf("record has no id field")}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.load(dataType)
	if err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}

	replaced := false
	for i, row := range rows {
		if record.FromMap(row).ID() == id {
			rows[i] = rec.ToMap()
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, rec.ToMap())
	}

	if err := a.save(dataType, rows); err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}
	return nil
}

func (a *fileAdapter) Close() error {
	return nil
}
