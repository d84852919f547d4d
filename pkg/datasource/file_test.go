package datasource

import (
	"context"
	"errors"
	"testing"

	"syncbridge/internal/models"
	"syncbridge/pkg/record"
)

func newTestFileAdapter(t *testing.T) *fileAdapter {
	t.Helper()
	a, err := newFileAdapter("file-src", &models.ConnectionConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create file adapter: %v", err)
	}
	return a
}

func drain(t *testing.T, a *fileAdapter, dataType models.DataType, filters []models.SyncFilter) []record.Record {
	t.Helper()
	it, err := a.Read(context.Background(), dataType, filters)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	defer it.Close()
	var out []record.Record
	for {
		rec, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, rec)
	}
}

func TestFileAdapterWriteReadRoundTrip(t *testing.T) {
	a := newTestFileAdapter(t)
	ctx := context.Background()

	rec := record.Record{
		"id":    record.String("p1"),
		"name":  record.String("widget"),
		"price": record.Number(19.99),
	}
	if err := a.Write(ctx, models.DataTypeProducts, rec); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got := drain(t, a, models.DataTypeProducts, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if !got[0].Get("name").Equal(record.String("widget")) {
		t.Errorf("name mismatch: %v", got[0].Get("name"))
	}
	if !got[0].Get("price").Equal(record.Number(19.99)) {
		t.Errorf("price mismatch: %v", got[0].Get("price"))
	}
}

func TestFileAdapterUpsert(t *testing.T) {
	a := newTestFileAdapter(t)
	ctx := context.Background()

	first := record.Record{"id": record.String("p1"), "name": record.String("old")}
	second := record.Record{"id": record.String("p1"), "name": record.String("new")}
	if err := a.Write(ctx, models.DataTypeProducts, first); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := a.Write(ctx, models.DataTypeProducts, second); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	got := drain(t, a, models.DataTypeProducts, nil)
	if len(got) != 1 {
		t.Fatalf("upsert should replace, not append; got %d records", len(got))
	}
	if !got[0].Get("name").Equal(record.String("new")) {
		t.Errorf("expected updated value, got %v", got[0].Get("name"))
	}
}

func TestFileAdapterReadOne(t *testing.T) {
	a := newTestFileAdapter(t)
	ctx := context.Background()

	if err := a.Write(ctx, models.DataTypeProducts, record.Record{"id": record.String("p1")}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rec, err := a.ReadOne(ctx, models.DataTypeProducts, "p1")
	if err != nil {
		t.Fatalf("readone failed: %v", err)
	}
	if rec == nil || rec.ID() != "p1" {
		t.Errorf("expected p1, got %v", rec)
	}

	missing, err := a.ReadOne(ctx, models.DataTypeProducts, "nope")
	if err != nil {
		t.Fatalf("readone failed: %v", err)
	}
	if missing != nil {
		t.Errorf("absent record should be nil, got %v", missing)
	}
}

func TestFileAdapterFilters(t *testing.T) {
	a := newTestFileAdapter(t)
	ctx := context.Background()

	for _, rec := range []record.Record{
		{"id": record.String("p1"), "status": record.String("active")},
		{"id": record.String("p2"), "status": record.String("archived")},
	} {
		if err := a.Write(ctx, models.DataTypeProducts, rec); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	got := drain(t, a, models.DataTypeProducts, []models.SyncFilter{
		{Field: "status", Operator: models.OpEquals, Value: "active"},
	})
	if len(got) != 1 || got[0].ID() != "p1" {
		t.Errorf("filter should narrow the read, got %v", got)
	}
}

func TestFileAdapterSeparatesDataTypes(t *testing.T) {
	a := newTestFileAdapter(t)
	ctx := context.Background()

	if err := a.Write(ctx, models.DataTypeProducts, record.Record{"id": record.String("p1")}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if got := drain(t, a, models.DataTypeOrders, nil); len(got) != 0 {
		t.Errorf("orders should be empty, got %v", got)
	}
}

func TestFileAdapterWriteRequiresID(t *testing.T) {
	a := newTestFileAdapter(t)
	err := a.Write(context.Background(), models.DataTypeProducts, record.Record{"name": record.String("x")})
	if err == nil {
		t.Fatal("write without id should fail")
	}
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Errorf("expected WriteError, got %T", err)
	}
}
