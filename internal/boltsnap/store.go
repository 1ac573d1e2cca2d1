// Package boltsnap persists preference-state snapshots in bbolt so the
// daemon survives restarts. Saves are transactional; a crash mid-save
// cannot corrupt the previously committed snapshot. The engine never
// touches this store directly, the daemon snapshots and restores through
// the facade's SnapshotAll/RestoreAll contract.
package boltsnap

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fyrsmithlabs/prefd/internal/feedback"
	"github.com/fyrsmithlabs/prefd/internal/prefstore"
)

var bucketPreferences = []byte("preferences")

// Store is a bbolt-backed snapshot store.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// entryKey encodes a preference key as the bolt key. NUL separators keep
// the encoding unambiguous since key components never contain NUL.
func entryKey(k feedback.Key) []byte {
	out := make([]byte, 0, len(k.AgentID)+len(k.UserID)+len(k.TaskType)+2)
	out = append(out, k.AgentID...)
	out = append(out, 0)
	out = append(out, k.UserID...)
	out = append(out, 0)
	out = append(out, k.TaskType...)
	return out
}

// Save replaces the stored snapshot with the given one in a single
// transaction.
func (s *Store) Save(snapshot []prefstore.Snapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketPreferences) != nil {
			if err := tx.DeleteBucket(bucketPreferences); err != nil {
				return fmt.Errorf("clear bucket: %w", err)
			}
		}
		b, err := tx.CreateBucket(bucketPreferences)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		for _, snap := range snapshot {
			data, err := json.Marshal(snap)
			if err != nil {
				return fmt.Errorf("marshal snapshot for agent %s: %w", snap.Key.AgentID, err)
			}
			if err := b.Put(entryKey(snap.Key), data); err != nil {
				return fmt.Errorf("put snapshot: %w", err)
			}
		}
		return nil
	})
}

// Load retrieves the stored snapshot. Returns an empty slice when nothing
// has been saved yet (fresh database).
func (s *Store) Load() ([]prefstore.Snapshot, error) {
	var out []prefstore.Snapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPreferences)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var snap prefstore.Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return fmt.Errorf("unmarshal snapshot: %w", err)
			}
			out = append(out, snap)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
