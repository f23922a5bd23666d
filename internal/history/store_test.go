package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidgate/droidgate/internal/errors"
	"github.com/droidgate/droidgate/internal/preflight"
)

var _ preflight.Recorder = (*Store)(nil)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	require.NoError(t, err)

	err = InitHistorySchema(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func sampleInputs() preflight.RunInputs {
	return preflight.RunInputs{
		NDKDir:      "/opt/android-ndk-r27",
		TargetAPI:   34,
		NDKAPI:      24,
		Arch:        "arm64-v8a",
		Interpreter: "python3",
	}
}

func sampleResults() []preflight.CheckResult {
	return []preflight.CheckResult{
		{Name: preflight.NDKVersionCheck, Status: preflight.StatusPass, Message: "Found NDK version 27b", Required: true},
		{Name: preflight.TargetAPICheck, Status: preflight.StatusPass, Message: "Target API 34 meets the recommended minimum", Required: true},
		{Name: preflight.NDKAPICheck, Status: preflight.StatusWarn, Message: "NDK API 19 is below the minimum of 21", Details: "Builds may fail against modern toolchains", Required: true},
		{Name: preflight.PythonCheck, Status: preflight.StatusFail, Message: "Python 2 is not supported", Remediation: "Install Python 3.6 or newer", Code: errors.ErrCodePython2Unsupported, Required: true},
	}
}

func TestNewStore_NilDB(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestStore_RecordRun(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	err = store.RecordRun(context.Background(), sampleInputs(), "failed", sampleResults())
	require.NoError(t, err)

	// Verify by querying back
	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Len(t, run.ID, 36)
	assert.Equal(t, "failed", run.Summary)
	assert.Equal(t, "/opt/android-ndk-r27", run.NDKDir)
	assert.Equal(t, 34, run.TargetAPI)
	assert.Equal(t, 24, run.NDKAPI)
	assert.Equal(t, "arm64-v8a", run.Arch)
	assert.Equal(t, "python3", run.Interpreter)
	assert.Equal(t, 2, run.Passed)
	assert.Equal(t, 1, run.Warnings)
	assert.Equal(t, 1, run.Failures)
	assert.WithinDuration(t, time.Now(), run.CreatedAt, time.Minute)
}

func TestStore_RecordRun_EmptyResults(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	err = store.RecordRun(context.Background(), sampleInputs(), "ready", nil)
	require.NoError(t, err)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, 0, runs[0].Passed)
	assert.Equal(t, 0, runs[0].Warnings)
	assert.Equal(t, 0, runs[0].Failures)
}

func TestStore_ListRuns_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	for _, summary := range []string{"first", "second", "third"} {
		err = store.RecordRun(context.Background(), sampleInputs(), summary, sampleResults())
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Most recent run comes first
	assert.Equal(t, "third", runs[0].Summary)
	assert.Equal(t, "second", runs[1].Summary)
	assert.Equal(t, "first", runs[2].Summary)
}

func TestStore_ListRuns_Limit(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		err = store.RecordRun(context.Background(), sampleInputs(), "ready", sampleResults())
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_ListRuns_ZeroLimitUsesDefault(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	err = store.RecordRun(context.Background(), sampleInputs(), "ready", nil)
	require.NoError(t, err)

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStore_ListRuns_Empty(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStore_GetRun(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	want := sampleResults()
	err = store.RecordRun(context.Background(), sampleInputs(), "failed", want)
	require.NoError(t, err)

	runs, err := store.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run, results, err := store.GetRun(context.Background(), runs[0].ID)
	require.NoError(t, err)

	assert.Equal(t, runs[0].ID, run.ID)
	assert.Equal(t, "failed", run.Summary)
	assert.Equal(t, 1, run.Failures)
	// Results come back in the order they were recorded
	assert.Equal(t, want, results)
}

func TestStore_GetRun_Prefix(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	err = store.RecordRun(context.Background(), sampleInputs(), "ready", sampleResults())
	require.NoError(t, err)

	runs, err := store.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run, _, err := store.GetRun(context.Background(), runs[0].ID[:8])
	require.NoError(t, err)
	assert.Equal(t, runs[0].ID, run.ID)
}

func TestStore_GetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	_, _, err = store.GetRun(context.Background(), "ffffffff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_GetRun_AmbiguousPrefix(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	// Two runs sharing an id prefix
	for _, id := range []string{"deadbeef-0000-4000-8000-000000000001", "deadbeef-0000-4000-8000-000000000002"} {
		_, err = db.Exec(`INSERT INTO runs (id, created_at, summary, target_api, ndk_api, arch) VALUES (?, ?, ?, ?, ?, ?)`,
			id, time.Now().UTC().Format(time.RFC3339), "ready", 34, 24, "arm64-v8a")
		require.NoError(t, err)
	}

	_, _, err = store.GetRun(context.Background(), "deadbeef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestStore_Prune(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	for _, summary := range []string{"run-1", "run-2", "run-3", "run-4", "run-5"} {
		err = store.RecordRun(context.Background(), sampleInputs(), summary, sampleResults())
		require.NoError(t, err)
	}

	deleted, err := store.Prune(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-5", runs[0].Summary)
	assert.Equal(t, "run-4", runs[1].Summary)

	// Orphaned check results are gone too
	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM check_results`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2*len(sampleResults()), count)
}

func TestStore_Prune_KeepsEverythingUnderLimit(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		err = store.RecordRun(context.Background(), sampleInputs(), "ready", nil)
		require.NoError(t, err)
	}

	deleted, err := store.Prune(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "droidgate", "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Full round trip through the modernc driver
	err = store.RecordRun(context.Background(), sampleInputs(), "ready", sampleResults())
	require.NoError(t, err)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ready", runs[0].Summary)
}

func TestOpen_PruneRefusesWhenLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	err = store.RecordRun(context.Background(), sampleInputs(), "ready", nil)
	require.NoError(t, err)

	// Another process holds the history lock
	other := NewFileLock(filepath.Dir(path))
	require.NoError(t, other.Lock())
	defer func() { _ = other.Unlock() }()

	_, err = store.Prune(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLockFailed, errors.GetCode(err))
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	err = store.RecordRun(context.Background(), sampleInputs(), "ready", sampleResults())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Runs survive across opens
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
