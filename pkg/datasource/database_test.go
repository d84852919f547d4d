package datasource

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"syncbridge/internal/models"
	"syncbridge/pkg/record"
)

func newTestDatabaseAdapter(t *testing.T) *databaseAdapter {
	t.Helper()
	conn := &models.ConnectionConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "source.db"),
	}
	a, err := newDatabaseAdapter("db-src", conn, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to create database adapter: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	if err := a.db.Exec(`CREATE TABLE products (id TEXT PRIMARY KEY, name TEXT, price REAL)`).Error; err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return a
}

func TestDatabaseWriteInsertsAndUpdates(t *testing.T) {
	a := newTestDatabaseAdapter(t)
	ctx := context.Background()

	rec := record.FromMap(map[string]interface{}{"id": "p1", "name": "Widget", "price": 9.5})
	if err := a.Write(ctx, models.DataTypeProducts, rec); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	changed := record.FromMap(map[string]interface{}{"id": "p1", "name": "Widget", "price": 12.0})
	if err := a.Write(ctx, models.DataTypeProducts, changed); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := a.ReadOne(ctx, models.DataTypeProducts, "p1")
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if f, _ := got.Get("price").AsFloat(); f != 12.0 {
		t.Errorf("price = %v, want 12", f)
	}
}

func TestDatabaseWriteUnchangedRecordIsNotDuplicated(t *testing.T) {
	a := newTestDatabaseAdapter(t)
	ctx := context.Background()

	// Re-writing an identical record is the steady state of a
	// recurring full sync. MySQL reports zero affected rows for an
	// update that changes nothing, so the upsert must confirm the
	// row is absent before inserting.
	rec := record.FromMap(map[string]interface{}{"id": "p1", "name": "Widget", "price": 9.5})
	for i := 0; i < 3; i++ {
		if err := a.Write(ctx, models.DataTypeProducts, rec); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	var n int64
	if err := a.db.Table("products").Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("row count = %d, want 1", n)
	}
}

func TestDatabaseWriteRequiresID(t *testing.T) {
	a := newTestDatabaseAdapter(t)
	rec := record.FromMap(map[string]interface{}{"name": "Widget"})
	err := a.Write(context.Background(), models.DataTypeProducts, rec)
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WriteError, got %T", err)
	}
}

func TestDatabaseReadOneMissingRowIsNil(t *testing.T) {
	a := newTestDatabaseAdapter(t)
	got, err := a.ReadOne(context.Background(), models.DataTypeProducts, "nope")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != nil {
		t.Errorf("missing row should read as nil, got %v", got)
	}
}
