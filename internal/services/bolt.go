package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltDB persists the identifiers of lazily created upstream resources across restarts. Conversations
// and leads are never stored here.
type BoltDB struct {
	db *bolt.DB
}

type assistantRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

var assistantsBucket = []byte("assistants")

// NewBoltDB opens (creating if needed) the database file at path with 0600 permissions and makes sure
// the required buckets exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(assistantsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return BoltDB{}, fmt.Errorf("failed to create buckets: %w", err)
	}

	return BoltDB{db: db}, nil
}

// AssistantID returns the stored assistant id for key, or an empty string when none was stored.
func (b BoltDB) AssistantID(_ context.Context, key string) (string, error) {
	var id string
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(assistantsBucket)
		if bk == nil {
			return nil
		}

		v := bk.Get([]byte(key))
		if v == nil {
			return nil
		}

		var rec assistantRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal assistant record: %w", err)
		}
		id = rec.ID
		return nil
	})
	return id, err
}

// SetAssistantID stores id under key, replacing any previous value.
func (b BoltDB) SetAssistantID(_ context.Context, key, id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(assistantsBucket)
		if bk == nil {
			return fmt.Errorf("bucket %s not found", assistantsBucket)
		}

		v, err := json.Marshal(assistantRecord{ID: id, CreatedAt: time.Now()})
		if err != nil {
			return fmt.Errorf("failed to marshal assistant record: %w", err)
		}

		return bk.Put([]byte(key), v)
	})
}

// Close releases the database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}
