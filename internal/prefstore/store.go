// Package prefstore owns all preference state for the adaptive feedback
// engine. The store guarantees that concurrent folds on the same key are
// serialized while folds on different keys proceed independently: the key
// space is sharded for map access, and each key carries its own fold lock.
// Callers only ever receive clones, so a reader can never observe a
// half-applied fold.
package prefstore

import (
	"hash/fnv"
	"sync"

	"github.com/fyrsmithlabs/prefd/internal/feedback"
)

// shardCount sizes the shard array. Power of two so the hash can be masked.
const shardCount = 32

// FoldFn combines existing state with a new event to produce updated state.
// Folds receive a private clone and may mutate it freely.
type FoldFn func(*State, *feedback.Event) *State

// Snapshot is one (key, state) pair produced by SnapshotAll.
type Snapshot struct {
	Key   feedback.Key `json:"key"`
	State *State       `json:"state"`
}

// entry holds one key's state plus the lock serializing its folds.
type entry struct {
	mu    sync.Mutex
	state *State
}

type shard struct {
	mu      sync.RWMutex
	entries map[feedback.Key]*entry
}

// Store is the keyed in-memory preference store.
type Store struct {
	shards   [shardCount]*shard
	newState func() *State
}

// NewStore creates a store. The factory produces the default state handed
// out for unseen keys; it must return a fresh value on every call.
func NewStore(newState func() *State) *Store {
	s := &Store{newState: newState}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[feedback.Key]*entry)}
	}
	return s
}

func (s *Store) shardFor(key feedback.Key) *shard {
	h := fnv.New32a()
	h.Write([]byte(key.AgentID))
	h.Write([]byte{0})
	h.Write([]byte(key.UserID))
	h.Write([]byte{0})
	h.Write([]byte(key.TaskType))
	return s.shards[h.Sum32()&(shardCount-1)]
}

// Get returns a clone of the key's current state, or a fresh default state
// if the key is unseen. Never fails, never stores the default.
func (s *Store) Get(key feedback.Key) *State {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.entries[key]
	sh.mu.RUnlock()

	if !ok {
		return s.newState()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Update applies fold atomically with respect to other updates on the same
// key and returns a clone of the resulting state. Updates on different
// keys never contend beyond the brief shard map lookup.
func (s *Store) Update(key feedback.Key, event *feedback.Event, fold FoldFn) *State {
	e := s.entryFor(key)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = fold(e.state.Clone(), event)
	return e.state.Clone()
}

// entryFor returns the key's entry, creating it with default state on
// first use.
func (s *Store) entryFor(key feedback.Key) *entry {
	sh := s.shardFor(key)

	sh.mu.RLock()
	e, ok := sh.entries[key]
	sh.mu.RUnlock()
	if ok {
		return e
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok = sh.entries[key]; ok {
		return e
	}
	e = &entry{state: s.newState()}
	sh.entries[key] = e
	return e
}

// Reset deletes the key's state. The next Get returns defaults. Resetting
// an unseen key is a no-op.
func (s *Store) Reset(key feedback.Key) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
}

// Len returns the number of keys with state.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// SnapshotAll returns a clone of every (key, state) pair. Each entry is
// internally consistent; the snapshot as a whole is not a global
// point-in-time cut, which is acceptable for restart persistence.
func (s *Store) SnapshotAll() []Snapshot {
	var out []Snapshot
	for _, sh := range s.shards {
		sh.mu.RLock()
		keys := make([]feedback.Key, 0, len(sh.entries))
		entries := make([]*entry, 0, len(sh.entries))
		for k, e := range sh.entries {
			keys = append(keys, k)
			entries = append(entries, e)
		}
		sh.mu.RUnlock()

		for i, e := range entries {
			e.mu.Lock()
			out = append(out, Snapshot{Key: keys[i], State: e.state.Clone()})
			e.mu.Unlock()
		}
	}
	return out
}

// RestoreAll replaces the store's contents with the snapshot. Entries with
// nil state are skipped.
func (s *Store) RestoreAll(snapshot []Snapshot) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.entries = make(map[feedback.Key]*entry)
		sh.mu.Unlock()
	}
	for _, snap := range snapshot {
		if snap.State == nil {
			continue
		}
		sh := s.shardFor(snap.Key)
		sh.mu.Lock()
		sh.entries[snap.Key] = &entry{state: snap.State.Clone()}
		sh.mu.Unlock()
	}
}
