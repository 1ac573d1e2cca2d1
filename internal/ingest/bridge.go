// Package ingest bridges feedback events from NATS into the engine.
// Agents publish events on "<prefix>.events.>"; each fold result is
// published back on "<prefix>.state.<agent>.<user>" so dashboards can
// watch preference state evolve without polling.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prefd/internal/engine"
	"github.com/fyrsmithlabs/prefd/internal/feedback"
)

// Publisher publishes a payload on a subject. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// StateUpdate is the payload published after each successful fold.
type StateUpdate struct {
	EventID     string    `json:"event_id"`
	AgentID     string    `json:"agent_id"`
	UserID      string    `json:"user_id"`
	TaskType    string    `json:"task_type"`
	Kind        string    `json:"kind"`
	SampleCount int       `json:"sample_count"`
	Phase       string    `json:"phase"`
	FoldedAt    time.Time `json:"folded_at"`
}

// Bridge subscribes to feedback subjects and records events.
type Bridge struct {
	engine *engine.Service
	pub    Publisher
	prefix string
	logger *zap.Logger

	conn *nats.Conn
	sub  *nats.Subscription
}

// NewBridge creates a bridge around an existing publisher. Used directly
// in tests; production code goes through Connect.
func NewBridge(eng *engine.Service, pub Publisher, prefix string, logger *zap.Logger) (*Bridge, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if pub == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if prefix == "" {
		return nil, fmt.Errorf("subject prefix cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		engine: eng,
		pub:    pub,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Connect dials NATS and subscribes to "<prefix>.events.>".
func Connect(url, prefix string, eng *engine.Service, logger *zap.Logger) (*Bridge, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	b, err := NewBridge(eng, nc, prefix, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	b.conn = nc

	sub, err := nc.Subscribe(prefix+".events.>", func(msg *nats.Msg) {
		b.Handle(context.Background(), msg.Data)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s.events.>: %w", prefix, err)
	}
	b.sub = sub

	logger.Info("connected feedback ingest bridge",
		zap.String("url", url),
		zap.String("subject", prefix+".events.>"))
	return b, nil
}

// Handle processes one raw event message. Malformed or invalid events are
// logged and dropped; a broker message cannot be retried into validity.
func (b *Bridge) Handle(ctx context.Context, data []byte) {
	var event feedback.Event
	if err := json.Unmarshal(data, &event); err != nil {
		b.logger.Warn("dropped unparseable feedback message", zap.Error(err))
		return
	}

	state, err := b.engine.RecordFeedback(ctx, &event)
	if err != nil {
		b.logger.Warn("dropped invalid feedback event",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return
	}

	update := StateUpdate{
		EventID:     event.ID,
		AgentID:     event.AgentID,
		UserID:      event.UserID,
		TaskType:    event.TaskType,
		Kind:        string(event.Kind),
		SampleCount: state.SampleCount,
		Phase:       b.engine.Config().PhaseFor(state.SampleCount).String(),
		FoldedAt:    time.Now(),
	}
	payload, err := json.Marshal(update)
	if err != nil {
		b.logger.Error("marshal state update", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("%s.state.%s.%s", b.prefix, event.AgentID, event.UserID)
	if err := b.pub.Publish(subject, payload); err != nil {
		b.logger.Warn("publish state update",
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// Close unsubscribes and closes the NATS connection if the bridge owns one.
func (b *Bridge) Close() error {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			return fmt.Errorf("unsubscribe: %w", err)
		}
	}
	if b.conn != nil {
		b.conn.Close()
	}
	return nil
}
