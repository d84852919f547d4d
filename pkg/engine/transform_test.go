package engine

import (
	"testing"
	"time"

	"syncbridge/internal/models"
	"syncbridge/pkg/record"
)

func strPtr(s string) *string { return &s }

func TestTransformProductMapping(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{
			{SourceField: "id", TargetField: "id"},
			{SourceField: "product_name", TargetField: "title", Transformation: "uppercase"},
			{SourceField: "price", TargetField: "price", Transformation: "currency_format"},
			{SourceField: "desc", TargetField: "description"},
		},
	}
	rec := record.Record{
		"id":           record.String("p1"),
		"product_name": record.String("widget"),
		"price":        record.Number(19.999),
		"desc":         record.String("a widget"),
	}

	out, warnings := NewTransformer(nil).Transform(rec, cfg)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !out.Get("title").Equal(record.String("WIDGET")) {
		t.Errorf("expected WIDGET, got %v", out.Get("title"))
	}
	if !out.Get("price").Equal(record.Number(20.00)) {
		t.Errorf("expected 20.00, got %v", out.Get("price"))
	}
	if !out.Get("description").Equal(record.String("a widget")) {
		t.Errorf("expected description carried over, got %v", out.Get("description"))
	}
	if _, present := out["product_name"]; present {
		t.Error("unmapped source field name should not leak into output")
	}
}

func TestTransformUnknownRulePassesThrough(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{
			{SourceField: "name", TargetField: "name", Transformation: "upppercase"},
		},
	}
	rec := record.Record{"name": record.String("widget")}

	out, warnings := NewTransformer(nil).Transform(rec, cfg)
	if !out.Get("name").Equal(record.String("widget")) {
		t.Errorf("unknown rule should pass value through, got %v", out.Get("name"))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
	if warnings[0].Rule != "upppercase" || warnings[0].Field != "name" {
		t.Errorf("unexpected warning: %+v", warnings[0])
	}
}

func TestTransformDefaultValue(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{
			{SourceField: "category", TargetField: "category", DefaultValue: strPtr("uncategorized")},
			{SourceField: "name", TargetField: "name", DefaultValue: strPtr("unnamed")},
		},
	}
	rec := record.Record{"name": record.String("widget")}

	out, _ := NewTransformer(nil).Transform(rec, cfg)
	if !out.Get("category").Equal(record.String("uncategorized")) {
		t.Errorf("missing source field should take default, got %v", out.Get("category"))
	}
	if !out.Get("name").Equal(record.String("widget")) {
		t.Errorf("present value should win over default, got %v", out.Get("name"))
	}
}

func TestTransformIdempotent(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{
			{SourceField: "id", TargetField: "id"},
			{SourceField: "name", TargetField: "name", Transformation: "uppercase"},
			{SourceField: "price", TargetField: "price", Transformation: "currency_format"},
			{SourceField: "updated", TargetField: "updated", Transformation: "date_format"},
		},
	}
	rec := record.Record{
		"id":      record.String("p1"),
		"name":    record.String("Widget"),
		"price":   record.Number(10.005),
		"updated": record.String("2026-03-01"),
	}

	tr := NewTransformer(nil)
	once, _ := tr.Transform(rec, cfg)
	twice, _ := tr.Transform(once, cfg)
	for field := range once {
		if !once.Get(field).Equal(twice.Get(field)) {
			t.Errorf("field %s not idempotent: %v vs %v", field, once.Get(field), twice.Get(field))
		}
	}
}

func TestTransformDateFormats(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{
			{SourceField: "d", TargetField: "d", Transformation: "date_format"},
		},
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2026-03-15", "2026/03/15", "03/15/2026"} {
		out, _ := NewTransformer(nil).Transform(record.Record{"d": record.String(raw)}, cfg)
		got := out.Get("d")
		if got.Kind() != record.KindTime || !got.TimeVal().Equal(want) {
			t.Errorf("layout %q: expected %v, got %v", raw, want, got)
		}
	}

	// Unparseable dates pass through
	out, _ := NewTransformer(nil).Transform(record.Record{"d": record.String("not a date")}, cfg)
	if !out.Get("d").Equal(record.String("not a date")) {
		t.Errorf("unparseable date should pass through, got %v", out.Get("d"))
	}
}

func TestTransformCalculate(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{
			{SourceField: "price", TargetField: "price"},
		},
		Transformations: []models.DataTransformation{
			{Field: "price", Type: "calculate", Rule: "multiply", Parameters: map[string]string{"operand": "1.1"}},
			{Field: "price", Type: "calculate", Rule: "round", Parameters: map[string]string{"precision": "2"}},
		},
	}
	out, warnings := NewTransformer(nil).Transform(record.Record{"price": record.Number(10)}, cfg)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !out.Get("price").Equal(record.Number(11)) {
		t.Errorf("expected 11, got %v", out.Get("price"))
	}
}

func TestTransformCalculateDivideByZero(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{{SourceField: "qty", TargetField: "qty"}},
		Transformations: []models.DataTransformation{
			{Field: "qty", Type: "calculate", Rule: "divide", Parameters: map[string]string{"operand": "0"}},
		},
	}
	out, warnings := NewTransformer(nil).Transform(record.Record{"qty": record.Number(4)}, cfg)
	if len(warnings) != 1 {
		t.Fatalf("expected a warning for divide by zero, got %d", len(warnings))
	}
	if !out.Get("qty").Equal(record.Number(4)) {
		t.Errorf("value should pass through on failed calculation, got %v", out.Get("qty"))
	}
}

func TestTransformLookup(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{{SourceField: "status", TargetField: "status"}},
		Transformations: []models.DataTransformation{
			{Field: "status", Type: "lookup", Parameters: map[string]string{
				"A":       "active",
				"I":       "inactive",
				"default": "unknown",
			}},
		},
	}
	tr := NewTransformer(nil)

	out, _ := tr.Transform(record.Record{"status": record.String("A")}, cfg)
	if !out.Get("status").Equal(record.String("active")) {
		t.Errorf("expected active, got %v", out.Get("status"))
	}
	out, _ = tr.Transform(record.Record{"status": record.String("X")}, cfg)
	if !out.Get("status").Equal(record.String("unknown")) {
		t.Errorf("expected default unknown, got %v", out.Get("status"))
	}
}

func TestTransformConditional(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{{SourceField: "tier", TargetField: "tier"}},
		Transformations: []models.DataTransformation{
			{Field: "tier", Type: "conditional", Parameters: map[string]string{
				"equals": "vip",
				"then":   "priority",
				"else":   "standard",
			}},
		},
	}
	tr := NewTransformer(nil)

	out, _ := tr.Transform(record.Record{"tier": record.String("vip")}, cfg)
	if !out.Get("tier").Equal(record.String("priority")) {
		t.Errorf("expected priority, got %v", out.Get("tier"))
	}
	out, _ = tr.Transform(record.Record{"tier": record.String("basic")}, cfg)
	if !out.Get("tier").Equal(record.String("standard")) {
		t.Errorf("expected standard, got %v", out.Get("tier"))
	}
}

func TestTransformSkipsAbsentFields(t *testing.T) {
	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{{SourceField: "name", TargetField: "name"}},
		Transformations: []models.DataTransformation{
			{Field: "missing", Type: "format", Rule: "uppercase"},
		},
	}
	out, warnings := NewTransformer(nil).Transform(record.Record{"name": record.String("x")}, cfg)
	if len(warnings) != 0 {
		t.Fatalf("transformations on absent fields should be skipped silently, got %v", warnings)
	}
	if _, present := out["missing"]; present {
		t.Error("absent field should not materialize")
	}
}

func TestRuleRegistryCustomRule(t *testing.T) {
	reg := NewRuleRegistry()
	reg.Register("reverse", func(v record.Value, _ map[string]string) record.Value {
		s := v.Str()
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return record.String(string(runes))
	})

	cfg := &models.SyncConfig{
		Mapping: []models.FieldMapping{{SourceField: "s", TargetField: "s", Transformation: "reverse"}},
	}
	out, warnings := NewTransformer(reg).Transform(record.Record{"s": record.String("abc")}, cfg)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !out.Get("s").Equal(record.String("cba")) {
		t.Errorf("expected cba, got %v", out.Get("s"))
	}
}
