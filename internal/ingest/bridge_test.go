package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prefd/internal/adapt"
	"github.com/fyrsmithlabs/prefd/internal/engine"
	"github.com/fyrsmithlabs/prefd/internal/feedback"
)

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func newTestBridge(t *testing.T) (*Bridge, *engine.Service, *fakePublisher) {
	t.Helper()

	eng, err := engine.NewService(adapt.DefaultConfig(), nil, zap.NewNop())
	require.NoError(t, err)

	pub := &fakePublisher{}
	bridge, err := NewBridge(eng, pub, "feedback", zap.NewNop())
	require.NoError(t, err)
	return bridge, eng, pub
}

func eventJSON(t *testing.T, kind feedback.Kind) []byte {
	t.Helper()
	data, err := json.Marshal(feedback.Event{
		ID:               "evt-1",
		AgentID:          "scheduler",
		UserID:           "dana",
		TaskType:         "meeting-prep",
		RecommendationID: "rec-1",
		Kind:             kind,
		Timestamp:        time.Now(),
	})
	require.NoError(t, err)
	return data
}

func TestNewBridge_Validation(t *testing.T) {
	eng, err := engine.NewService(adapt.DefaultConfig(), nil, zap.NewNop())
	require.NoError(t, err)
	pub := &fakePublisher{}

	_, err = NewBridge(nil, pub, "feedback", nil)
	assert.ErrorContains(t, err, "engine cannot be nil")

	_, err = NewBridge(eng, nil, "feedback", nil)
	assert.ErrorContains(t, err, "publisher cannot be nil")

	_, err = NewBridge(eng, pub, "", nil)
	assert.ErrorContains(t, err, "prefix cannot be empty")
}

func TestHandle_FoldsAndPublishes(t *testing.T) {
	bridge, eng, pub := newTestBridge(t)

	bridge.Handle(context.Background(), eventJSON(t, feedback.KindAccepted))

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "feedback.state.scheduler.dana", pub.subjects[0])

	var update StateUpdate
	require.NoError(t, json.Unmarshal(pub.payloads[0], &update))
	assert.Equal(t, "evt-1", update.EventID)
	assert.Equal(t, 1, update.SampleCount)
	assert.Equal(t, "cold", update.Phase)
	assert.Equal(t, "accepted", update.Kind)

	key := feedback.Key{AgentID: "scheduler", UserID: "dana", TaskType: "meeting-prep"}
	rep, err := eng.GetLearningReport(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.SampleCount)
}

func TestHandle_DropsUnparseableMessage(t *testing.T) {
	bridge, _, pub := newTestBridge(t)

	bridge.Handle(context.Background(), []byte("{not json"))

	assert.Empty(t, pub.subjects, "no state update for dropped message")
}

func TestHandle_DropsInvalidEvent(t *testing.T) {
	bridge, eng, pub := newTestBridge(t)

	data, err := json.Marshal(feedback.Event{
		ID:        "evt-bad",
		AgentID:   "scheduler",
		Kind:      feedback.KindAccepted,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	bridge.Handle(context.Background(), data)

	assert.Empty(t, pub.subjects)

	key := feedback.Key{AgentID: "scheduler", UserID: "dana", TaskType: "meeting-prep"}
	rep, err := eng.GetLearningReport(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.SampleCount, "invalid events never reach the store")
}

func TestHandle_PublishFailureDoesNotLoseFold(t *testing.T) {
	bridge, eng, pub := newTestBridge(t)
	pub.err = fmt.Errorf("broker unavailable")

	bridge.Handle(context.Background(), eventJSON(t, feedback.KindRejected))

	key := feedback.Key{AgentID: "scheduler", UserID: "dana", TaskType: "meeting-prep"}
	rep, err := eng.GetLearningReport(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.SampleCount, "fold committed even when the publish failed")
}

func TestHandle_SampleCountAccumulates(t *testing.T) {
	bridge, _, pub := newTestBridge(t)

	for i := 0; i < 6; i++ {
		bridge.Handle(context.Background(), eventJSON(t, feedback.KindAccepted))
	}

	require.Len(t, pub.subjects, 6)

	var update StateUpdate
	require.NoError(t, json.Unmarshal(pub.payloads[5], &update))
	assert.Equal(t, 6, update.SampleCount)
	assert.Equal(t, "warming", update.Phase)
}
