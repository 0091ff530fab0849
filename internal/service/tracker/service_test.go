package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"dptracker/internal/config"
	"dptracker/internal/datefmt"
	"dptracker/internal/domain"
	"dptracker/internal/domain/models"
	"dptracker/internal/domain/services"
	"dptracker/internal/export"
	"dptracker/internal/reconcile"
	"dptracker/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
table: projects
columns:
  - {name: project_id, kind: text}
  - {name: programming_deadline, kind: date}
  - {name: field_start_date, kind: date}
`

// memRepo is an in-memory RowRepository.
type memRepo struct {
	mu      sync.Mutex
	rows    map[int64]models.Row
	failErr error
	deletes [][]int64
}

func newMemRepo(rows ...models.Row) *memRepo {
	r := &memRepo{rows: map[int64]models.Row{}}
	for _, row := range rows {
		r.rows[*row.ID] = row.Clone()
	}
	return r
}

func (r *memRepo) List(ctx context.Context) ([]models.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	out := make([]models.Row, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].ID < *out[j].ID })
	return out, nil
}

func (r *memRepo) Upsert(ctx context.Context, rows []models.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	for _, row := range rows {
		r.rows[*row.ID] = row.Clone()
	}
	return nil
}

func (r *memRepo) Delete(ctx context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.deletes = append(r.deletes, ids)
	for _, id := range ids {
		delete(r.rows, id)
	}
	return nil
}

func (r *memRepo) MaxID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return 0, r.failErr
	}
	var maxID int64
	for id := range r.rows {
		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

func str(s string) *string { return &s }
func id(n int64) *int64    { return &n }

func row(rowID *int64, kv ...string) models.Row {
	r := models.NewRow(rowID)
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], str(kv[i+1]))
	}
	return r
}

func newTestService(t *testing.T, repo *memRepo) *trackerService {
	t.Helper()
	s, err := schema.Load([]byte(testSchema))
	require.NoError(t, err)

	svc := NewTrackerService(
		repo,
		s,
		reconcile.New(s, datefmt.NewConverter(time.UTC)),
		export.NewCSVExporter(s, export.Options{RowHeaders: true, FilenamePrefix: config.ExportFilenamePrefix}),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	).(*trackerService)
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestLoadRows_ConvertsDatesForDisplay(t *testing.T) {
	repo := newMemRepo(
		row(id(1), "project_id", "P-1", "programming_deadline", "2024-03-05"),
		row(id(2), "project_id", "P-2", "programming_deadline", "2024-12-31"),
	)
	svc := newTestService(t, repo)

	rows, err := svc.LoadRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "05.03.2024", *rows[0].Get("programming_deadline"))
	assert.Equal(t, "31.12.2024", *rows[1].Get("programming_deadline"))
	assert.Equal(t, "P-1", *rows[0].Get("project_id"))
}

func TestLoadRows_StoreFailure(t *testing.T) {
	repo := newMemRepo()
	repo.failErr = errors.New("connection refused")
	svc := newTestService(t, repo)

	rows, err := svc.LoadRows(context.Background())
	assert.Nil(t, rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestSaveRows_AssignsIDsAndNormalizesDates(t *testing.T) {
	repo := newMemRepo(row(id(5), "project_id", "P-5"))
	svc := newTestService(t, repo)

	res, err := svc.SaveRows(context.Background(), &services.SaveRowsRequest{Rows: []models.Row{
		row(id(5), "project_id", "P-5", "programming_deadline", "01.02.2024"),
		row(nil, "project_id", "P-6", "field_start_date", "garbage"),
		row(nil, "project_id", "P-7"),
	}})
	require.NoError(t, err)

	assert.Equal(t, []int64{6, 7}, res.AssignedIDs)
	assert.Equal(t, int64(7), res.MaxID)
	assert.Equal(t, 1, res.ClearedDates)

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "2024-02-01", *stored[0].Get("programming_deadline"))
	assert.Nil(t, stored[1].Get("field_start_date"))
	assert.True(t, stored[1].Has("field_start_date"))
	assert.Equal(t, "P-7", *stored[2].Get("project_id"))
}

func TestSaveRows_UsesStoreMaxAsFloor(t *testing.T) {
	// Another client saved row 9 after this one loaded.
	repo := newMemRepo(row(id(2)), row(id(9)))
	svc := newTestService(t, repo)

	res, err := svc.SaveRows(context.Background(), &services.SaveRowsRequest{Rows: []models.Row{
		row(id(2)),
		row(nil, "project_id", "new"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, res.AssignedIDs)
}

func TestSaveRows_Validation(t *testing.T) {
	tests := []struct {
		name string
		rows []models.Row
	}{
		{name: "empty", rows: nil},
		{name: "unknown column", rows: []models.Row{row(nil, "budget", "1")}},
		{name: "non-positive id", rows: []models.Row{row(id(0))}},
		{name: "id beyond client range", rows: []models.Row{row(id(math.MaxInt64)), row(nil)}},
		{name: "duplicate ids", rows: []models.Row{row(id(3)), row(id(3))}},
		{name: "text too long", rows: []models.Row{row(nil, "project_id", strings.Repeat("x", config.MaxTextFieldLength+1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			svc := newTestService(t, repo)

			_, err := svc.SaveRows(context.Background(), &services.SaveRowsRequest{Rows: tt.rows})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Empty(t, repo.rows)
		})
	}
}

func TestSaveRows_StoreMaxLeavesNoID(t *testing.T) {
	repo := newMemRepo(row(id(math.MaxInt64)))
	svc := newTestService(t, repo)

	_, err := svc.SaveRows(context.Background(), &services.SaveRowsRequest{Rows: []models.Row{row(nil)}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Len(t, repo.rows, 1)
}

func TestSaveRows_StoreFailure(t *testing.T) {
	repo := newMemRepo()
	repo.failErr = errors.New("timeout")
	svc := newTestService(t, repo)

	_, err := svc.SaveRows(context.Background(), &services.SaveRowsRequest{Rows: []models.Row{row(nil)}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))

	var storeErr *domain.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "read max id", storeErr.Op)
}

func TestSaveRows_ConcurrentSavesGetDistinctIDs(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo)

	const workers = 8
	var wg sync.WaitGroup
	assigned := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.SaveRows(context.Background(), &services.SaveRowsRequest{Rows: []models.Row{row(nil)}})
			if assert.NoError(t, err) {
				assigned <- res.AssignedIDs[0]
			}
		}()
	}
	wg.Wait()
	close(assigned)

	seen := map[int64]bool{}
	for n := range assigned {
		assert.False(t, seen[n], "id %d assigned twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}

func TestRemoveRows(t *testing.T) {
	snapshot := []models.Row{row(id(10)), row(id(20)), row(nil), row(id(42))}

	t.Run("deletes persisted rows", func(t *testing.T) {
		repo := newMemRepo(row(id(10)), row(id(20)), row(id(42)))
		svc := newTestService(t, repo)

		ids, err := svc.RemoveRows(context.Background(), &services.RemoveRowsRequest{Rows: snapshot, Positions: []int{3}})
		require.NoError(t, err)
		assert.Equal(t, []int64{42}, ids)
		assert.Len(t, repo.rows, 2)
	})

	t.Run("unsaved rows skip the store", func(t *testing.T) {
		repo := newMemRepo(row(id(10)))
		svc := newTestService(t, repo)

		ids, err := svc.RemoveRows(context.Background(), &services.RemoveRowsRequest{Rows: snapshot, Positions: []int{2}})
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.Empty(t, repo.deletes)
	})

	t.Run("position out of range", func(t *testing.T) {
		svc := newTestService(t, newMemRepo())
		_, err := svc.RemoveRows(context.Background(), &services.RemoveRowsRequest{Rows: snapshot, Positions: []int{4}})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("negative position", func(t *testing.T) {
		svc := newTestService(t, newMemRepo())
		_, err := svc.RemoveRows(context.Background(), &services.RemoveRowsRequest{Rows: snapshot, Positions: []int{-1}})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("store failure", func(t *testing.T) {
		repo := newMemRepo()
		repo.failErr = errors.New("down")
		svc := newTestService(t, repo)
		_, err := svc.RemoveRows(context.Background(), &services.RemoveRowsRequest{Rows: snapshot, Positions: []int{0}})
		assert.True(t, errors.Is(err, domain.ErrUpstream))
	})
}

func TestDeleteRows(t *testing.T) {
	repo := newMemRepo(row(id(1)), row(id(2)))
	svc := newTestService(t, repo)

	require.NoError(t, svc.DeleteRows(context.Background(), &services.DeleteRowsRequest{IDs: []int64{1}}))
	assert.Len(t, repo.rows, 1)

	err := svc.DeleteRows(context.Background(), &services.DeleteRowsRequest{IDs: []int64{0}})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	err = svc.DeleteRows(context.Background(), &services.DeleteRowsRequest{IDs: []int64{config.MaxRowID + 1}})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	err = svc.DeleteRows(context.Background(), &services.DeleteRowsRequest{})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestExportCSV(t *testing.T) {
	repo := newMemRepo(row(id(1), "project_id", "P-1", "programming_deadline", "2024-03-05"))
	svc := newTestService(t, repo)

	t.Run("stored table", func(t *testing.T) {
		res, err := svc.ExportCSV(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "DP_Tracker_16.10.2026.csv", res.Filename)
		assert.Equal(t, "1,1,P-1,05.03.2024,\r\n", string(res.Data))
	})

	t.Run("client view", func(t *testing.T) {
		res, err := svc.ExportCSV(context.Background(), []models.Row{row(nil, "project_id", "draft")})
		require.NoError(t, err)
		assert.Equal(t, "1,,draft,,\r\n", string(res.Data))
	})

	t.Run("client view with unknown column", func(t *testing.T) {
		_, err := svc.ExportCSV(context.Background(), []models.Row{row(nil, "nope", "x")})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}
