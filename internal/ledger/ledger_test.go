package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMigratesAndRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	l.RecordSegmentRotation("appendonly.aof.1", 4096)
	l.RecordSnapshot(42)

	var segCount, snapCount int
	require.NoError(t, l.db.Get(&segCount, "SELECT COUNT(*) FROM aol_segments"))
	require.NoError(t, l.db.Get(&snapCount, "SELECT COUNT(*) FROM dbsize_snapshots"))
	assert.Equal(t, 1, segCount)
	assert.Equal(t, 1, snapCount)
}

func TestNilLedgerMethodsAreNoop(t *testing.T) {
	var l *Ledger
	l.RecordSegmentRotation("x", 1)
	l.RecordSnapshot(1)
	assert.NoError(t, l.Close())
}
