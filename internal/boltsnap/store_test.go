package boltsnap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/prefd/internal/feedback"
	"github.com/fyrsmithlabs/prefd/internal/prefstore"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "prefd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshot() []prefstore.Snapshot {
	thresholds := prefstore.ConfidenceThresholds{Show: 0.2, Accept: 0.5, Prioritize: 0.8}

	a := prefstore.NewState(thresholds, 10)
	a.SampleCount = 7
	a.CategoryWeights["financial"] = 0.9
	a.History.Push(feedback.Summary{ID: "evt-1", Kind: feedback.KindAccepted})

	b := prefstore.NewState(thresholds, 10)
	b.SampleCount = 2

	return []prefstore.Snapshot{
		{Key: feedback.Key{AgentID: "a1", UserID: "u1", TaskType: "t1"}, State: a},
		{Key: feedback.Key{AgentID: "a2", UserID: "u2", TaskType: "t2"}, State: b},
	}
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save(sampleSnapshot()))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byAgent := map[string]prefstore.Snapshot{}
	for _, snap := range loaded {
		byAgent[snap.Key.AgentID] = snap
	}

	got := byAgent["a1"]
	assert.Equal(t, 7, got.State.SampleCount)
	assert.InDelta(t, 0.9, got.State.CategoryWeights["financial"], 1e-9)
	assert.Equal(t, 1, got.State.History.Count)
	assert.InDelta(t, 0.2, got.State.Thresholds.Show, 1e-9)
}

func TestStore_Load_EmptyDatabase(t *testing.T) {
	s := openTestStore(t)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStore_Save_ReplacesPreviousSnapshot(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save(sampleSnapshot()))
	require.NoError(t, s.Save(sampleSnapshot()[:1]))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "save replaces, never merges")
}

func TestStore_FeedsEngineRestore(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save(sampleSnapshot()))

	loaded, err := s.Load()
	require.NoError(t, err)

	store := prefstore.NewStore(func() *prefstore.State {
		return prefstore.NewState(prefstore.ConfidenceThresholds{Show: 0.3, Accept: 0.55, Prioritize: 0.75}, 10)
	})
	store.RestoreAll(loaded)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 7, store.Get(feedback.Key{AgentID: "a1", UserID: "u1", TaskType: "t1"}).SampleCount)
}
