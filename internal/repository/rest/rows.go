// Package rest talks to the tracker table through Supabase's hosted data
// API (PostgREST) instead of a direct database connection.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dptracker/internal/domain/models"
	"dptracker/internal/domain/repositories"
	"dptracker/internal/schema"
)

// RowRepository implements RowRepository over PostgREST.
type RowRepository struct {
	baseURL    string
	apiKey     string
	table      string
	schema     *schema.Schema
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRowRepository creates a PostgREST row store for table. apiKey is the
// Supabase key sent as both apikey and bearer token.
func NewRowRepository(supabaseURL, apiKey, table string, s *schema.Schema, logger *slog.Logger) repositories.RowRepository {
	return &RowRepository{
		baseURL: strings.TrimRight(supabaseURL, "/") + "/rest/v1/" + table,
		apiKey:  apiKey,
		table:   table,
		schema:  s,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// StatusError is a non-2xx response from the data API.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.Status, e.Body)
}

// List retrieves all rows, newest id first
func (r *RowRepository) List(ctx context.Context) ([]models.Row, error) {
	q := url.Values{}
	q.Set("select", r.schema.Projection())
	q.Set("order", "id.desc")

	body, err := r.do(ctx, "list rows", http.MethodGet, "?"+q.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}

	var rows []models.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if rows == nil {
		rows = []models.Row{}
	}
	return rows, nil
}

// Upsert posts all rows in one request with merge-duplicates resolution.
// PostgREST requires uniform keys in a bulk insert, so every row carries
// every column; absent columns are sent as null.
func (r *RowRepository) Upsert(ctx context.Context, rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	columns := r.schema.ColumnNames()
	payload := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		if row.ID == nil {
			return fmt.Errorf("upsert rows: row %d has no id", i)
		}
		obj := make(map[string]interface{}, len(columns)+1)
		obj[schema.IDColumn] = *row.ID
		for _, col := range columns {
			obj[col] = row.Get(col)
		}
		payload[i] = obj
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Prefer":       "resolution=merge-duplicates,return=minimal",
	}
	q := url.Values{}
	q.Set("on_conflict", schema.IDColumn)

	_, err = r.do(ctx, "upsert rows", http.MethodPost, "?"+q.Encode(), data, headers)
	return err
}

// Delete removes rows by id with an in.(...) filter
func (r *RowRepository) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	q := url.Values{}
	q.Set("id", "in.("+strings.Join(parts, ",")+")")

	_, err := r.do(ctx, "delete rows", http.MethodDelete, "?"+q.Encode(), nil, nil)
	return err
}

// MaxID reads the single highest id
func (r *RowRepository) MaxID(ctx context.Context) (int64, error) {
	q := url.Values{}
	q.Set("select", schema.IDColumn)
	q.Set("order", "id.desc")
	q.Set("limit", "1")

	body, err := r.do(ctx, "max id", http.MethodGet, "?"+q.Encode(), nil, nil)
	if err != nil {
		return 0, err
	}

	var result []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("decode max id: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].ID, nil
}

func (r *RowRepository) do(ctx context.Context, op, method, query string, payload []byte, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+query, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}

	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	r.logger.Debug("data api call",
		"op", op,
		"method", method,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
