package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"syncbridge/internal/models"
	"syncbridge/pkg/config"
	"syncbridge/pkg/datasource"
	"syncbridge/pkg/engine"
	"syncbridge/pkg/scheduler"
	"syncbridge/pkg/store"
)

// testEnv wires the real store, file-backed sources, executor and
// scheduler, so service tests run the full path end to end.
type testEnv struct {
	svc       *SyncService
	store     *store.Store
	sourceDir string
	targetDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "svc.db"),
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	registry := datasource.NewRegistry(st, datasource.DefaultOptions(), zap.NewNop())
	t.Cleanup(func() { registry.Close() })

	executor := engine.NewExecutor(st, st, st, registry, zap.NewNop())
	sched := scheduler.New(executor, st, zap.NewNop())
	t.Cleanup(sched.Stop)

	svc := New(st, registry, executor, sched, Options{RecentResultsLimit: 10}, zap.NewNop())
	env := &testEnv{
		svc:       svc,
		store:     st,
		sourceDir: t.TempDir(),
		targetDir: t.TempDir(),
	}

	ctx := context.Background()
	for _, src := range []struct {
		id, name, dir string
	}{
		{"src", "erp", env.sourceDir},
		{"tgt", "shop", env.targetDir},
	} {
		ds := &models.DataSource{ID: src.id, Name: src.name, Type: models.SourceTypeFile, Enabled: true}
		if err := ds.SetConnection(&models.ConnectionConfig{Path: src.dir}); err != nil {
			t.Fatalf("failed to set connection: %v", err)
		}
		if _, err := svc.RegisterDataSource(ctx, ds); err != nil {
			t.Fatalf("failed to register source %s: %v", src.name, err)
		}
	}
	return env
}

func (e *testEnv) seedProducts(t *testing.T, rows []map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("failed to marshal seed data: %v", err)
	}
	if err := os.WriteFile(filepath.Join(e.sourceDir, "products.json"), data, 0o644); err != nil {
		t.Fatalf("failed to seed source: %v", err)
	}
}

func (e *testEnv) targetProducts(t *testing.T) []map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.targetDir, "products.json"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read target: %v", err)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("malformed target file: %v", err)
	}
	return rows
}

func productJob(t *testing.T, name string) *models.SyncJob {
	t.Helper()
	job := &models.SyncJob{
		Name:             name,
		SourceSystem:     "src",
		TargetSystem:     "tgt",
		DataType:         models.DataTypeProducts,
		FrequencyMinutes: 30,
	}
	err := job.SetConfig(&models.SyncConfig{
		Mapping: []models.FieldMapping{
			{SourceField: "id", TargetField: "id"},
			{SourceField: "product_name", TargetField: "title", Transformation: "uppercase"},
			{SourceField: "price", TargetField: "price", Transformation: "currency_format"},
		},
	})
	if err != nil {
		t.Fatalf("failed to set config: %v", err)
	}
	return job
}

func TestCreateAndExecuteSyncJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProducts(t, []map[string]interface{}{
		{"id": "p1", "product_name": "widget", "price": 19.999},
		{"id": "p2", "product_name": "gadget", "price": 5.0},
	})

	job, err := env.svc.CreateSyncJob(ctx, productJob(t, "products-sync"))
	if err != nil {
		t.Fatalf("create job failed: %v", err)
	}
	if job.ID == "" {
		t.Fatal("created job should have an id")
	}
	if !job.IsActive {
		t.Error("new jobs start active")
	}

	runLog, err := env.svc.ExecuteSyncJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if runLog.Status != models.SyncStatusSuccess {
		t.Fatalf("expected success, got %s", runLog.Status)
	}
	if runLog.RecordsProcessed != 2 || runLog.RecordsSuccess != 2 {
		t.Errorf("unexpected counters: %+v", runLog)
	}

	rows := env.targetProducts(t)
	if len(rows) != 2 {
		t.Fatalf("expected 2 target rows, got %d", len(rows))
	}
	byID := map[string]map[string]interface{}{}
	for _, row := range rows {
		byID[row["id"].(string)] = row
	}
	if byID["p1"]["title"] != "WIDGET" {
		t.Errorf("expected WIDGET, got %v", byID["p1"]["title"])
	}
	if byID["p1"]["price"] != 20.0 {
		t.Errorf("expected 20.0, got %v", byID["p1"]["price"])
	}

	status, err := env.svc.GetSyncJobStatus(ctx, job.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if len(status.RecentResults) != 1 {
		t.Fatalf("expected 1 recent result, got %d", len(status.RecentResults))
	}
	if status.Job.LastSyncAt == nil {
		t.Error("lastSyncAt should be set after a successful run")
	}
}

func TestCreateSyncJobValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bad := productJob(t, "no-name")
	bad.Name = ""
	if _, err := env.svc.CreateSyncJob(ctx, bad); !errors.Is(err, models.ErrInvalidJobConfig) {
		t.Errorf("missing name should be rejected, got %v", err)
	}

	bad = productJob(t, "bad-freq")
	bad.FrequencyMinutes = 0
	if _, err := env.svc.CreateSyncJob(ctx, bad); !errors.Is(err, models.ErrInvalidJobConfig) {
		t.Errorf("zero frequency should be rejected, got %v", err)
	}

	bad = productJob(t, "bad-source")
	bad.SourceSystem = "no-such-source"
	if _, err := env.svc.CreateSyncJob(ctx, bad); !errors.Is(err, models.ErrInvalidJobConfig) {
		t.Errorf("unknown source should be rejected, got %v", err)
	}

	bad = productJob(t, "bad-type")
	bad.DataType = "invoices"
	if _, err := env.svc.CreateSyncJob(ctx, bad); !errors.Is(err, models.ErrInvalidJobConfig) {
		t.Errorf("unknown data type should be rejected, got %v", err)
	}
}

func TestActivateDeactivateJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, err := env.svc.CreateSyncJob(ctx, productJob(t, "toggle"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deactivated, err := env.svc.DeactivateJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if deactivated.IsActive {
		t.Error("job should be inactive")
	}

	// Executing a deactivated job is rejected
	if _, err := env.svc.ExecuteSyncJob(ctx, job.ID); !errors.Is(err, models.ErrJobInactive) {
		t.Errorf("expected ErrJobInactive, got %v", err)
	}

	reactivated, err := env.svc.ActivateJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if !reactivated.IsActive {
		t.Error("job should be active again")
	}
}

func TestDuplicateSourceRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dup := &models.DataSource{ID: "src", Name: "erp-2", Type: models.SourceTypeFile, Enabled: true}
	if err := dup.SetConnection(&models.ConnectionConfig{Path: t.TempDir()}); err != nil {
		t.Fatalf("set connection failed: %v", err)
	}
	if _, err := env.svc.RegisterDataSource(ctx, dup); !errors.Is(err, models.ErrDuplicateSource) {
		t.Errorf("re-registering an id should fail, got %v", err)
	}
}

func TestConflictFlowThroughService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProducts(t, []map[string]interface{}{
		{"id": "p1", "product_name": "widget", "price": 10.0},
	})
	// Target already holds a diverging copy of p1
	pre, _ := json.Marshal([]map[string]interface{}{
		{"id": "p1", "title": "OLD TITLE", "price": 10.0},
	})
	if err := os.WriteFile(filepath.Join(env.targetDir, "products.json"), pre, 0o644); err != nil {
		t.Fatalf("failed to seed target: %v", err)
	}

	job, err := env.svc.CreateSyncJob(ctx, productJob(t, "conflict-sync"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := env.svc.ExecuteSyncJob(ctx, job.ID); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	conflicts, err := env.svc.ListConflicts(ctx, job.ID, true)
	if err != nil {
		t.Fatalf("list conflicts failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0].FieldName != "title" || conflicts[0].SourceValue != "WIDGET" {
		t.Errorf("unexpected conflict: %+v", conflicts[0])
	}

	// Last-write-wins: the target now carries the source value
	rows := env.targetProducts(t)
	if len(rows) != 1 || rows[0]["title"] != "WIDGET" {
		t.Errorf("target should hold the incoming value, got %v", rows)
	}

	resolved, err := env.svc.ResolveConflict(ctx, conflicts[0].ID, "accepted source")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !resolved.Resolved() {
		t.Error("conflict should be resolved")
	}
	remaining, err := env.svc.ListConflicts(ctx, job.ID, true)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("no unresolved conflicts expected, got %v", remaining)
	}
}

func TestSchedulerLifecycleThroughService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateSyncJob(ctx, productJob(t, "scheduled")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := env.svc.StartScheduler(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	status := env.svc.GetSchedulerStatus()
	if !status.Running {
		t.Error("scheduler should report running")
	}
	if status.ScheduledJobs != 1 {
		t.Errorf("expected 1 scheduled job, got %d", status.ScheduledJobs)
	}
	env.svc.StopScheduler()
	if env.svc.GetSchedulerStatus().Running {
		t.Error("scheduler should report stopped")
	}
}
