package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncbridge/internal/models"
	"syncbridge/pkg/engine"
	"syncbridge/pkg/record"
)

// SourceStore is the registry's persistence for DataSource metadata.
type SourceStore interface {
	// CreateSource persists a new source, failing with
	// models.ErrDuplicateSource when the id is taken.
	CreateSource(ctx context.Context, source *models.DataSource) error

	// GetSource returns a source by id, or an error satisfying
	// models.ErrSourceNotFound.
	GetSource(ctx context.Context, id string) (*models.DataSource, error)
}

// adapter is one backend's read/write implementation. Adapters are
// built lazily per source and cached for the registry's lifetime.
type adapter interface {
	Read(ctx context.Context, dataType models.DataType, filters []models.SyncFilter) (engine.RecordIterator, error)
	ReadOne(ctx context.Context, dataType models.DataType, recordID string) (record.Record, error)
	Write(ctx context.Context, dataType models.DataType, rec record.Record) error
	Close() error
}

// Options bound adapter behavior.
type Options struct {
	PageSize      int
	HTTPTimeout   time.Duration
	RatePerSecond float64
}

// DefaultOptions returns the adapter defaults.
func DefaultOptions() Options {
	return Options{
		PageSize:      500,
		HTTPTimeout:   30 * time.Second,
		RatePerSecond: 10,
	}
}

// Registry resolves DataSource ids to connection metadata and provides
// a uniform read/read-one/write capability over the source types. It
// implements engine.Connector.
type Registry struct {
	store SourceStore
	opts  Options
	log   *zap.Logger

	mu       sync.Mutex
	adapters map[string]adapter
}

// NewRegistry creates a registry over the given source store.
func NewRegistry(store SourceStore, opts Options, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultOptions().PageSize
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = DefaultOptions().HTTPTimeout
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = DefaultOptions().RatePerSecond
	}
	return &Registry{
		store:    store,
		opts:     opts,
		log:      logger,
		adapters: make(map[string]adapter),
	}
}

// Register stores a new data source and returns its id. Registration
// of an already-present id is rejected with models.ErrDuplicateSource;
// there is no idempotent no-op for identical content.
func (r *Registry) Register(ctx context.Context, source *models.DataSource) (string, error) {
	if source.ID == "" {
		source.ID = uuid.New().String()
	}
	switch source.Type {
	case models.SourceTypeDatabase, models.SourceTypeAPI, models.SourceTypeFile, models.SourceTypeWebhook:
	default:
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedSourceType, source.Type)
	}
	if !source.Enabled {
		source.Enabled = true
	}
	if err := r.store.CreateSource(ctx, source); err != nil {
		return "", err
	}
	r.log.Info("Registered data source",
		zap.String("source_id", source.ID),
		zap.String("name", source.Name),
		zap.String("type", string(source.Type)))
	return source.ID, nil
}

// Read opens a lazy, one-pass iterator over matching records of the
// source.
func (r *Registry) Read(ctx context.Context, sourceID string, dataType models.DataType, filters []models.SyncFilter) (engine.RecordIterator, error) {
	a, err := r.adapterFor(ctx, sourceID)
	if err != nil {
		return nil, &ReadError{SourceID: sourceID, Err: err}
	}
	return a.Read(ctx, dataType, filters)
}

// ReadOne fetches the current copy of one record from the source, or
// nil when it is absent.
func (r *Registry) ReadOne(ctx context.Context, sourceID string, dataType models.DataType, recordID string) (record.Record, error) {
	a, err := r.adapterFor(ctx, sourceID)
	if err != nil {
		return nil, &ReadError{SourceID: sourceID, Err: err}
	}
	return a.ReadOne(ctx, dataType, recordID)
}

// Write upserts one transformed record into the target source.
func (r *Registry) Write(ctx context.Context, targetID string, dataType models.DataType, rec record.Record) error {
	a, err := r.adapterFor(ctx, targetID)
	if err != nil {
		return &WriteError{TargetID: targetID, Err: err}
	}
	return a.Write(ctx, dataType, rec)
}

// Close releases every cached adapter connection.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for id, a := range r.adapters {
		if err := a.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing adapter for source %s: %w", id, err)
		}
		delete(r.adapters, id)
	}
	return firstErr
}

func (r *Registry) adapterFor(ctx context.Context, sourceID string) (adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.adapters[sourceID]; ok {
		return a, nil
	}

	source, err := r.store.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !source.Enabled {
		return nil, fmt.Errorf("%w: %s", models.ErrSourceDisabled, sourceID)
	}
	conn, err := source.ParseConnection()
	if err != nil {
		return nil, err
	}

	var a adapter
	switch source.Type {
	case models.SourceTypeDatabase:
		if conn.Driver == "clickhouse" {
			a, err = newClickHouseAdapter(source.ID, conn, r.opts)
		} else {
			a, err = newDatabaseAdapter(source.ID, conn, r.opts)
		}
	case models.SourceTypeAPI:
		a, err = newAPIAdapter(source.ID, conn, r.opts)
	case models.SourceTypeFile:
		a, err = newFileAdapter(source.ID, conn)
	case models.SourceTypeWebhook:
		a, err = newWebhookAdapter(source.ID, conn, r.opts)
	default:
		err = fmt.Errorf("%w: %s", models.ErrUnsupportedSourceType, source.Type)
	}
	if err != nil {
		return nil, err
	}
	r.adapters[sourceID] = a
	return a, nil
}
