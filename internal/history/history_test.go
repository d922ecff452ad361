package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWithEmptyPathDisablesHistory(t *testing.T) {
	db, err := Open("", false)
	require.NoError(t, err)
	assert.Nil(t, db)
}

func TestRecordIsNoOpWhenDBIsNil(t *testing.T) {
	assert.NoError(t, Record(nil, Run{ID: "x"}))
}

func TestRecentReturnsNilWhenDBIsNil(t *testing.T) {
	runs, err := Recent(nil, 10)
	assert.NoError(t, err)
	assert.Nil(t, runs)
}

func TestOpenCreatesParentDirAndMigrates(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := Open(dbPath, false)
	require.NoError(t, err)
	require.NotNil(t, db)

	assert.True(t, db.Migrator().HasTable(&Run{}))
}

func TestRecordAndRecentRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(dbPath, false)
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, Record(db, Run{
		ID:                "sess-1",
		ScriptPath:         "probe.stp",
		LastPassRequested:  5,
		LastPassReached:    5,
		ErrorCount:         0,
		StartedAt:          now,
		FinishedAt:         now.Add(250 * time.Millisecond),
		DurationMS:         250,
	}))
	require.NoError(t, Record(db, Run{
		ID:                "sess-2",
		ScriptPath:         "probe2.stp",
		LastPassRequested:  2,
		LastPassReached:    2,
		ErrorCount:         1,
		StartedAt:          now.Add(time.Minute),
		FinishedAt:         now.Add(time.Minute + 50*time.Millisecond),
		DurationMS:         50,
	}))

	runs, err := Recent(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "sess-2", runs[0].ID, "most recent run first")
	assert.Equal(t, "sess-1", runs[1].ID)
}

func TestRecentRespectsLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(dbPath, false)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, Record(db, Run{
			ID:        filepath.Join("sess", string(rune('a'+i))),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	runs, err := Recent(db, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
