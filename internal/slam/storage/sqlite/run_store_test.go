package sqlite

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gridslam/internal/monitoring"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	t.Cleanup(monitoring.Mute())
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_Migrates(t *testing.T) {
	db := openTestDB(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Running again is a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestRunStore_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	store := NewRunStore(db.DB)

	run := &Run{Seed: 42, Width: 120, Height: 80, ParamsJSON: json.RawMessage(`{"cell_size":7.5}`)}
	require.NoError(t, store.Start(run))
	require.NotEmpty(t, run.RunID)
	require.NotZero(t, run.StartedUnixNanos)

	got, err := store.Get(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Seed)
	assert.JSONEq(t, `{"cell_size":7.5}`, string(got.ParamsJSON))
	assert.Zero(t, got.FinishedUnixNanos)
	assert.Empty(t, got.Quality)

	steps := []StepRecord{
		{Step: 1, TruthX: 10, TruthY: 20, BeliefX: 10.4, BeliefY: 20.1, PoseError: 0.41, Score: 12.5, KnownCells: 30},
		{Step: 2, TruthX: 10.8, TruthY: 20, BeliefX: 11, BeliefY: 20, PoseError: 0.2, Score: 20, Corrected: true, KnownCells: 41},
	}
	require.NoError(t, store.RecordSteps(run.RunID, steps))
	require.NoError(t, store.RecordSteps(run.RunID, nil))

	trace, err := store.Steps(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, steps, trace)

	require.NoError(t, store.Finish(run.RunID, 2, 0.32, "good"))
	got, err = store.Get(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Steps)
	assert.InDelta(t, 0.32, got.RMSE, 1e-12)
	assert.Equal(t, "good", got.Quality)
	assert.NotZero(t, got.FinishedUnixNanos)
}

func TestRunStore_NotFound(t *testing.T) {
	store := NewRunStore(openTestDB(t).DB)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, store.Finish("missing", 1, 0, ""), ErrRunNotFound)
}

func TestRunStore_DuplicateStep(t *testing.T) {
	store := NewRunStore(openTestDB(t).DB)
	run := &Run{Seed: 1, Width: 10, Height: 10}
	require.NoError(t, store.Start(run))

	require.NoError(t, store.RecordSteps(run.RunID, []StepRecord{{Step: 1}}))
	assert.Error(t, store.RecordSteps(run.RunID, []StepRecord{{Step: 2}, {Step: 1}}))

	// The failed batch is rolled back as a whole.
	trace, err := store.Steps(run.RunID)
	require.NoError(t, err)
	assert.Len(t, trace, 1)
}

func TestRunStore_List(t *testing.T) {
	store := NewRunStore(openTestDB(t).DB)
	for i, ts := range []int64{100, 300, 200} {
		require.NoError(t, store.Start(&Run{Seed: int64(i), Width: 1, Height: 1, StartedUnixNanos: ts}))
	}

	runs, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int64{300, 200, 100}, []int64{runs[0].StartedUnixNanos, runs[1].StartedUnixNanos, runs[2].StartedUnixNanos})

	runs, err = store.List(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRecorder_Batches(t *testing.T) {
	store := NewRunStore(openTestDB(t).DB)
	run := &Run{Seed: 1, Width: 10, Height: 10}
	require.NoError(t, store.Start(run))

	rec := NewRecorder(store, run.RunID, 3)
	for i := 1; i <= 7; i++ {
		require.NoError(t, rec.Add(StepRecord{Step: i}))
	}
	assert.Equal(t, 6, rec.Written())

	require.NoError(t, rec.Flush())
	assert.Equal(t, 7, rec.Written())
	trace, err := store.Steps(run.RunID)
	require.NoError(t, err)
	assert.Len(t, trace, 7)
}

func TestAttachAdminRoutes(t *testing.T) {
	db := openTestDB(t)
	mux := http.NewServeMux()
	require.NoError(t, db.AttachAdminRoutes(mux))

	for _, path := range []string{"/debug/", "/debug/tailsql/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		// Registered routes may still answer 403 when debug access is restricted.
		assert.NotEqual(t, http.StatusNotFound, rec.Code, "route %s should be registered", path)
	}
}
