package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBolt(t *testing.T) {
	exerciseStore(t, NewBolt(filepath.Join(t.TempDir(), "nested", "sdn.db")))
}

func TestBoltPublishLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewBolt(filepath.Join(dir, "sdn.db"))
	require.NoError(t, s.Publish(context.Background(), testSnapshot(1, 2)))
	require.NoError(t, s.Publish(context.Background(), testSnapshot(3)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sdn.db", entries[0].Name())
}

func TestBoltReaderSeesWholeSnapshots(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sdn.db")
	writer := NewBolt(path)
	reader := NewBolt(path)

	first := testSnapshot(1, 2, 3)
	require.NoError(t, writer.Publish(ctx, first))
	before, err := reader.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, writer.Publish(ctx, testSnapshot(4)))
	after, err := reader.Load(ctx)
	require.NoError(t, err)

	assert.Len(t, before.Records, 3)
	assert.Equal(t, first.ID, before.ID)
	assert.Equal(t, []int64{4}, entryIDs(after.Records))
}
