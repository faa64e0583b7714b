package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domi413/typetrace-backend/internal/applog"
	"github.com/domi413/typetrace-backend/internal/keystroke"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := applog.New(false)
	s, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchemaIdempotently(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.createTables())
	require.NoError(t, s.createTables())

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'keystrokes'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "keystrokes", name)
}

func TestWriteBatchEmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteBatch(context.Background(), nil))
}

func TestWriteBatchSingleKeyDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	events := []keystroke.Event{
		{ScanCode: 30, KeyName: "KEY_A", Date: "2024-01-01"},
		{ScanCode: 30, KeyName: "KEY_A", Date: "2024-01-01"},
		{ScanCode: 30, KeyName: "KEY_A", Date: "2024-01-01"},
	}
	require.NoError(t, s.WriteBatch(ctx, events))

	row, err := s.ReadRow(ctx, 30, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(3), row.Count)
	assert.Equal(t, "KEY_A", row.KeyName)
}

func TestWriteBatchTwiceDoublesCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	events := []keystroke.Event{
		{ScanCode: 30, KeyName: "KEY_A", Date: "2024-01-01"},
		{ScanCode: 31, KeyName: "KEY_S", Date: "2024-01-01"},
	}
	require.NoError(t, s.WriteBatch(ctx, events))
	require.NoError(t, s.WriteBatch(ctx, events))

	row, err := s.ReadRow(ctx, 30, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), row.Count)
}

func TestWriteBatchNameEvolutionLastWriterWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteBatch(ctx, []keystroke.Event{
		{ScanCode: 30, KeyName: "KEY_A", Date: "2024-01-01"},
	}))
	require.NoError(t, s.WriteBatch(ctx, []keystroke.Event{
		{ScanCode: 30, KeyName: "OTHER_NAME", Date: "2024-01-01"},
	}))

	row, err := s.ReadRow(ctx, 30, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), row.Count)
	assert.Equal(t, "OTHER_NAME", row.KeyName)
}

func TestWriteBatchDistinctDatesAreSeparateRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteBatch(ctx, []keystroke.Event{
		{ScanCode: 30, KeyName: "KEY_A", Date: "2024-01-01"},
		{ScanCode: 30, KeyName: "KEY_A", Date: "2024-01-02"},
	}))

	row1, err := s.ReadRow(ctx, 30, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), row1.Count)

	row2, err := s.ReadRow(ctx, 30, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, int64(1), row2.Count)
}

func TestReadRowMissingReturnsErrNoRows(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReadRow(context.Background(), 999, "2024-01-01")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestWriteBatchPreservesOtherRowsOnPartialFailure(t *testing.T) {
	// One malformed event must not cost the whole batch: a trigger makes
	// the upsert for scan_code 31 fail, and the transaction must still
	// commit the other two rows.
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.Exec(`CREATE TRIGGER reject_31 BEFORE INSERT ON keystrokes
		WHEN NEW.scan_code = 31 BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	events := []keystroke.Event{
		{ScanCode: 30, KeyName: "KEY_A", Date: "2024-01-01"},
		{ScanCode: 31, KeyName: "KEY_S", Date: "2024-01-01"},
		{ScanCode: 32, KeyName: "KEY_D", Date: "2024-01-01"},
	}
	require.NoError(t, s.WriteBatch(ctx, events))

	for _, ev := range []keystroke.Event{events[0], events[2]} {
		row, err := s.ReadRow(ctx, ev.ScanCode, ev.Date)
		require.NoError(t, err)
		assert.Equal(t, int64(1), row.Count)
	}

	_, err = s.ReadRow(ctx, 31, "2024-01-01")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCheckpointSucceeds(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteBatch(context.Background(), []keystroke.Event{
		{ScanCode: 30, KeyName: "KEY_A", Date: "2024-01-01"},
	}))
	assert.NoError(t, s.Checkpoint(context.Background()))
}
