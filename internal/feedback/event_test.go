package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	e, err := NewEvent("agent-1", "user-1", "triage", "rec-42", KindAccepted)
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, Key{AgentID: "agent-1", UserID: "user-1", TaskType: "triage"}, e.Key())
}

func TestEvent_Validate(t *testing.T) {
	base := func() *Event {
		return &Event{
			ID:               "evt-1",
			AgentID:          "agent-1",
			UserID:           "user-1",
			TaskType:         "triage",
			RecommendationID: "rec-1",
			Kind:             KindRejected,
			Timestamp:        time.Now(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr error
	}{
		{"valid", func(e *Event) {}, nil},
		{"missing id", func(e *Event) { e.ID = "" }, ErrEmptyID},
		{"missing agent", func(e *Event) { e.AgentID = "" }, ErrEmptyAgentID},
		{"missing user", func(e *Event) { e.UserID = "" }, ErrEmptyUserID},
		{"missing task type", func(e *Event) { e.TaskType = "" }, ErrEmptyTaskType},
		{"missing recommendation", func(e *Event) { e.RecommendationID = "" }, ErrEmptyRecommendationID},
		{"unknown kind", func(e *Event) { e.Kind = "meh" }, ErrUnknownKind},
		{"zero timestamp", func(e *Event) { e.Timestamp = time.Time{} }, ErrZeroTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := base()
			tt.mutate(e)
			err := e.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestEvent_Validate_OptionalFieldsMayBeMissing(t *testing.T) {
	e := &Event{
		ID:               "evt-1",
		AgentID:          "a",
		UserID:           "u",
		TaskType:         "t",
		RecommendationID: "r",
		Kind:             KindModified,
		Timestamp:        time.Now(),
		// EditedContent and ImpactScore deliberately absent
	}
	assert.NoError(t, e.Validate())
}

func TestEvent_Impact(t *testing.T) {
	e := &Event{Kind: KindRejected}
	assert.InDelta(t, 0.8, e.Impact(), 0.001, "default derives from kind")

	v := 0.3
	e.ImpactScore = &v
	assert.InDelta(t, 0.3, e.Impact(), 0.001)

	neg := -2.0
	e.ImpactScore = &neg
	assert.Equal(t, 0.0, e.Impact(), "malformed impact clamps, never errors")

	big := 7.5
	e.ImpactScore = &big
	assert.Equal(t, 1.0, e.Impact())
}

func TestKind_Reward(t *testing.T) {
	assert.Equal(t, 1.0, KindAccepted.Reward())
	assert.Equal(t, 0.6, KindModified.Reward())
	assert.Equal(t, 0.4, KindDelayed.Reward())
	assert.Equal(t, 0.2, KindIgnored.Reward())
	assert.Equal(t, 0.0, KindRejected.Reward())
}

func TestValidKind(t *testing.T) {
	for _, k := range []Kind{KindAccepted, KindRejected, KindIgnored, KindDelayed, KindModified} {
		assert.True(t, ValidKind(k))
	}
	assert.False(t, ValidKind("shrugged"))
	assert.False(t, ValidKind(""))
}
