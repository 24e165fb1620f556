package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// JournalEntry is one recorded catalog change.
type JournalEntry struct {
	Seq    uint64       `json:"seq"`
	Action string       `json:"action"`
	Event  CatalogEvent `json:"event"`
}

// Journal is an append-only log of catalog changes.
type Journal interface {
	Append(ctx context.Context, action string, event CatalogEvent) error
	Recent(ctx context.Context, limit int) ([]JournalEntry, error)
}

var _ Journal = (*boltJournal)(nil)

type boltJournal struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltJournal provides a bolt-based journal of catalog changes.
func NewBoltJournal(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) *boltJournal {
	return &boltJournal{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// Close shuts down the underlying bolt database.
func (bj *boltJournal) Close() error {
	return bj.client.Close()
}

// Append stores the event under the next bucket sequence, so keys
// sort in arrival order.
func (bj *boltJournal) Append(_ context.Context, action string, event CatalogEvent) error {
	return bj.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bj.config.BucketName))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		entryBytes, err := json.Marshal(JournalEntry{Seq: seq, Action: action, Event: event})
		if err != nil {
			return err
		}
		return b.Put(itob(seq), entryBytes)
	})
}

// Recent returns at most limit entries, newest first. A zero limit returns all.
func (bj *boltJournal) Recent(_ context.Context, limit int) ([]JournalEntry, error) {
	tx, err := bj.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := tx.Bucket([]byte(bj.config.BucketName)).Cursor()

	entries := []JournalEntry{}
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		if limit > 0 && len(entries) == limit {
			break
		}
		var entry JournalEntry
		if err = json.Unmarshal(v, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
