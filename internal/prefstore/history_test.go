package prefstore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/prefd/internal/feedback"
)

func summary(id string) feedback.Summary {
	return feedback.Summary{ID: id, Kind: feedback.KindAccepted}
}

func TestHistory_PushAndItems(t *testing.T) {
	h := NewHistory(3)
	assert.Equal(t, 3, h.Capacity())
	assert.Empty(t, h.Items())

	h.Push(summary("a"))
	h.Push(summary("b"))

	items := h.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
}

func TestHistory_EvictsOldestBeyondCapacity(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Push(summary(fmt.Sprintf("e%d", i)))
	}

	items := h.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "e2", items[0].ID)
	assert.Equal(t, "e3", items[1].ID)
	assert.Equal(t, "e4", items[2].ID)
}

func TestHistory_WrapsRepeatedly(t *testing.T) {
	h := NewHistory(2)
	for i := 0; i < 101; i++ {
		h.Push(summary(fmt.Sprintf("e%d", i)))
	}

	items := h.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "e99", items[0].ID)
	assert.Equal(t, "e100", items[1].ID)
}

func TestHistory_CloneIsIndependent(t *testing.T) {
	h := NewHistory(4)
	h.Push(summary("a"))

	c := h.Clone()
	c.Push(summary("b"))

	assert.Equal(t, 1, h.Count)
	assert.Equal(t, 2, c.Count)
}

func TestNewHistory_DefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultHistoryCapacity, h.Capacity())
}
