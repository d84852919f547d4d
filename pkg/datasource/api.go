package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"syncbridge/internal/models"
	"syncbridge/pkg/engine"
	"syncbridge/pkg/record"
)

// apiAdapter talks to REST sources. Collections live at
// {base_url}/{data_type}; single records at {base_url}/{data_type}/{id}.
// All requests pass through a token-bucket limiter so a misconfigured
// job cannot hammer a partner API.
type apiAdapter struct {
	sourceID string
	conn     *models.ConnectionConfig
	client   *http.Client
	limiter  *rate.Limiter
}

func newAPIAdapter(sourceID string, conn *models.ConnectionConfig, opts Options) (*apiAdapter, error) {
	if conn.BaseURL == "" {
		return nil, fmt.Errorf("api source %s has no base_url", sourceID)
	}
	timeout := opts.HTTPTimeout
	if conn.TimeoutSeconds > 0 {
		timeout = time.Duration(conn.TimeoutSeconds) * time.Second
	}
	rps := opts.RatePerSecond
	if conn.RatePerSecond > 0 {
		rps = conn.RatePerSecond
	}
	return &apiAdapter{
		sourceID: sourceID,
		conn:     conn,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func (a *apiAdapter) url(parts ...string) string {
	return strings.TrimSuffix(a.conn.BaseURL, "/") + "/" + strings.Join(parts, "/")
}

func (a *apiAdapter) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range a.conn.Headers {
		req.Header.Set(k, v)
	}
	return a.client.Do(req)
}

func (a *apiAdapter) Read(ctx context.Context, dataType models.DataType, filters []models.SyncFilter) (engine.RecordIterator, error) {
	resp, err := a.do(ctx, http.MethodGet, a.url(string(dataType)), nil)
	if err != nil {
		return nil, &ReadError{SourceID: a.sourceID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &ReadError{SourceID: a.sourceID, Err: fmt.Errorf("unexpected status %d listing %s", resp.StatusCode, dataType)}
	}

	rows, err := decodeCollection(resp.Body)
	if err != nil {
		return nil, &ReadError{SourceID: a.sourceID, Err: err}
	}

	// Partner APIs rarely support our filter operators, so filtering
	// happens client side after the fetch.
	var records []record.Record
	for _, row := range rows {
		rec := record.FromMap(row)
		if matchesFilters(rec, filters) {
			records = append(records, rec)
		}
	}
	return newSliceIterator(records), nil
}

func (a *apiAdapter) ReadOne(ctx context.Context, dataType models.DataType, recordID string) (record.Record, error) {
	resp, err := a.do(ctx, http.MethodGet, a.url(string(dataType), recordID), nil)
	if err != nil {
		return nil, &ReadError{SourceID: a.sourceID, Err: err}
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, &ReadError{SourceID: a.sourceID, Err: fmt.Errorf("unexpected status %d fetching %s/%s", resp.StatusCode, dataType, recordID)}
	}

	var row map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return nil, &ReadError{SourceID: a.sourceID, Err: err}
	}
	return record.FromMap(row), nil
}

func (a *apiAdapter) Write(ctx context.Context, dataType models.DataType, rec record.Record) error {
	id := rec.ID()
	if id == "" {
		return &WriteError{TargetID: a.sourceID, Err: fmt.Errorf("record has no id field")}
	}
	payload, err := json.Marshal(rec.ToMap())
	if err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}
	resp, err := a.do(ctx, http.MethodPut, a.url(string(dataType), id), bytes.NewReader(payload))
	if err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &WriteError{TargetID: a.sourceID, Err: fmt.Errorf("unexpected status %d writing %s/%s", resp.StatusCode, dataType, id)}
	}
	return nil
}

func (a *apiAdapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// decodeCollection accepts either a bare JSON array or the common
// {"data": [...]} envelope.
func decodeCollection(r io.Reader) ([]map[string]interface{}, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("response is neither an array nor a data envelope: %w", err)
	}
	return envelope.Data, nil
}

// webhookAdapter is write-only. Each record is POSTed to the endpoint;
// receivers are expected to handle their own dedup.
type webhookAdapter struct {
	sourceID string
	conn     *models.ConnectionConfig
	client   *http.Client
	limiter  *rate.Limiter
}

func newWebhookAdapter(sourceID string, conn *models.ConnectionConfig, opts Options) (*webhookAdapter, error) {
	if conn.BaseURL == "" {
		return nil, fmt.Errorf("webhook source %s has no base_url", sourceID)
	}
	timeout := opts.HTTPTimeout
	if conn.TimeoutSeconds > 0 {
		timeout = time.Duration(conn.TimeoutSeconds) * time.Second
	}
	rps := opts.RatePerSecond
	if conn.RatePerSecond > 0 {
		rps = conn.RatePerSecond
	}
	return &webhookAdapter{
		sourceID: sourceID,
		conn:     conn,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func (a *webhookAdapter) Read(ctx context.Context, dataType models.DataType, filters []models.SyncFilter) (engine.RecordIterator, error) {
	return nil, &ReadError{SourceID: a.sourceID, Err: ErrReadNotSupported}
}

func (a *webhookAdapter) ReadOne(ctx context.Context, dataType models.DataType, recordID string) (record.Record, error) {
	return nil, &ReadError{SourceID: a.sourceID, Err: ErrReadNotSupported}
}

func (a *webhookAdapter) Write(ctx context.Context, dataType models.DataType, rec record.Record) error {
	payload, err := json.Marshal(map[string]interface{}{
		"data_type": string(dataType),
		"record":    rec.ToMap(),
	})
	if err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.conn.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range a.conn.Headers {
		req.Header.Set(k, v)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return &WriteError{TargetID: a.sourceID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &WriteError{TargetID: a.sourceID, Err: fmt.Errorf("unexpected status %d delivering webhook", resp.StatusCode)}
	}
	return nil
}

func (a *webhookAdapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}
