package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBoltJournal returns a journal stored in a temporary file removed at test end.
func newTestBoltJournal(t *testing.T) *boltJournal {
	t.Helper()
	testConfig := &Config{
		BoltDB: BoltDBConfig{
			FilePath:   filepath.Join(t.TempDir(), "journal.db"),
			Timeout:    5 * time.Second,
			BucketName: "test.journal",
		},
	}
	client, err := GetBoltDBClient(testConfig)
	require.NoError(t, err, "failed in creating a test bolt journal")
	bj := NewBoltJournal(zap.NewNop(), &testConfig.BoltDB, client)
	t.Cleanup(func() { _ = bj.Close() })
	return bj
}

// Ensure bolt journal keeps entries in arrival order and serves newest first.
func TestBoltJournal_AppendAndRecent(t *testing.T) {
	bj := newTestBoltJournal(t)
	ctx := context.TODO()
	at := NewMockClocker().Now()

	require.NoError(t, bj.Append(ctx, "created", NewCatalogEvent(EntityAuthor, "a:1", at, Author{ID: "a:1", Name: "Ama Ata Aidoo"})))
	require.NoError(t, bj.Append(ctx, "updated", NewCatalogEvent(EntityAuthor, "a:1", at, nil)))
	require.NoError(t, bj.Append(ctx, "deleted", NewCatalogEvent(EntityAuthor, "a:1", at, nil)))

	entries, err := bj.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(3), entries[0].Seq)
	assert.Equal(t, "deleted", entries[0].Action)
	assert.Equal(t, "created", entries[2].Action)
	assert.True(t, at.Equal(entries[2].Event.At))
	assert.Contains(t, string(entries[2].Event.Data), "Ama Ata Aidoo")

	entries, err = bj.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "updated", entries[1].Action)
}

func TestBoltJournal_EmptyBucket(t *testing.T) {
	bj := newTestBoltJournal(t)
	entries, err := bj.Recent(context.TODO(), 10)
	require.NoError(t, err)
	assert.Equal(t, []JournalEntry{}, entries)
}

func TestGetBoltDBClient_InvalidPath(t *testing.T) {
	config := &Config{BoltDB: BoltDBConfig{
		FilePath:   filepath.Join(t.TempDir(), "missing", "journal.db"),
		Timeout:    time.Second,
		BucketName: "test.journal",
	}}
	_, err := GetBoltDBClient(config)
	assert.Error(t, err)
	_, statErr := os.Stat(config.BoltDB.FilePath)
	assert.True(t, os.IsNotExist(statErr))
}
