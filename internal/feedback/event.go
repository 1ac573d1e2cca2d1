package feedback

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation errors returned at the engine boundary.
var (
	ErrNilEvent              = errors.New("event cannot be nil")
	ErrEmptyID               = errors.New("event ID cannot be empty")
	ErrEmptyAgentID          = errors.New("agent ID cannot be empty")
	ErrEmptyUserID           = errors.New("user ID cannot be empty")
	ErrEmptyTaskType         = errors.New("task type cannot be empty")
	ErrEmptyRecommendationID = errors.New("recommendation ID cannot be empty")
	ErrUnknownKind           = errors.New("unknown feedback kind")
	ErrZeroTimestamp         = errors.New("timestamp cannot be zero")
)

// Kind identifies the user's reaction to a recommendation.
//
// The set is closed: adaptation folds switch exhaustively over it, so an
// unknown kind is a validation error rather than a silently ignored event.
type Kind string

const (
	// KindAccepted means the user acted on the recommendation as given.
	KindAccepted Kind = "accepted"

	// KindRejected means the user explicitly dismissed the recommendation.
	KindRejected Kind = "rejected"

	// KindIgnored means the recommendation expired without interaction.
	KindIgnored Kind = "ignored"

	// KindDelayed means the user deferred the recommendation to later.
	KindDelayed Kind = "delayed"

	// KindModified means the user acted on an edited version of the
	// recommendation. Events of this kind may carry EditedContent.
	KindModified Kind = "modified"
)

// ValidKind reports whether k is a member of the closed kind set.
func ValidKind(k Kind) bool {
	switch k {
	case KindAccepted, KindRejected, KindIgnored, KindDelayed, KindModified:
		return true
	}
	return false
}

// Reward returns the per-event reward used by report scoring.
func (k Kind) Reward() float64 {
	switch k {
	case KindAccepted:
		return 1.0
	case KindModified:
		return 0.6
	case KindDelayed:
		return 0.4
	case KindIgnored:
		return 0.2
	default: // KindRejected and anything unreachable
		return 0.0
	}
}

// DefaultImpact returns the impact score assumed when an event carries none.
//
// Rejected carries a high default because an explicit dismissal is strong
// evidence even though its reward is zero.
func (k Kind) DefaultImpact() float64 {
	switch k {
	case KindAccepted:
		return 1.0
	case KindRejected:
		return 0.8
	case KindModified:
		return 0.6
	case KindDelayed:
		return 0.4
	default:
		return 0.2
	}
}

// Key identifies one adaptive preference slot: the (agent, user, task-type)
// triple. Comparable, so it is used directly as a map key.
type Key struct {
	AgentID  string `json:"agent_id"`
	UserID   string `json:"user_id"`
	TaskType string `json:"task_type"`
}

// Validate checks that all key components are present.
func (k Key) Validate() error {
	if k.AgentID == "" {
		return ErrEmptyAgentID
	}
	if k.UserID == "" {
		return ErrEmptyUserID
	}
	if k.TaskType == "" {
		return ErrEmptyTaskType
	}
	return nil
}

// Event is one recorded user reaction to a recommendation.
//
// Events are immutable: the engine folds them into preference state but
// never mutates them. EditedContent and ImpactScore are optional; every
// other field is required and checked by Validate.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// AgentID identifies the agent that produced the recommendation.
	AgentID string `json:"agent_id"`

	// UserID identifies the user who reacted.
	UserID string `json:"user_id"`

	// TaskType is the recommendation's task category (key component).
	TaskType string `json:"task_type"`

	// RecommendationID is the recommendation this event reacts to.
	RecommendationID string `json:"recommendation_id"`

	// Kind is the reaction type.
	Kind Kind `json:"kind"`

	// Category is the recommendation's content category, used by the
	// priority-weight fold. May be empty.
	Category string `json:"category,omitempty"`

	// Timestamp is when the reaction happened. Its hour-of-day feeds the
	// timing fold.
	Timestamp time.Time `json:"timestamp"`

	// EditedContent is the user's rewritten text on Modified events.
	EditedContent string `json:"edited_content,omitempty"`

	// ImpactScore optionally overrides the kind-derived impact. Nil means
	// use Kind.DefaultImpact().
	ImpactScore *float64 `json:"impact_score,omitempty"`
}

// NewEvent creates an Event with a generated ID and current timestamp.
func NewEvent(agentID, userID, taskType, recommendationID string, kind Kind) (*Event, error) {
	e := &Event{
		ID:               uuid.New().String(),
		AgentID:          agentID,
		UserID:           userID,
		TaskType:         taskType,
		RecommendationID: recommendationID,
		Kind:             kind,
		Timestamp:        time.Now(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks required fields. EditedContent and ImpactScore are
// optional and never cause a validation failure.
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if err := e.Key().Validate(); err != nil {
		return err
	}
	if e.RecommendationID == "" {
		return ErrEmptyRecommendationID
	}
	if !ValidKind(e.Kind) {
		return ErrUnknownKind
	}
	if e.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

// Key returns the preference key this event belongs to.
func (e *Event) Key() Key {
	return Key{AgentID: e.AgentID, UserID: e.UserID, TaskType: e.TaskType}
}

// Impact returns the event's impact score, falling back to the kind
// default when none was supplied. Malformed values (negative, >1) are
// clamped rather than rejected so folds stay total.
func (e *Event) Impact() float64 {
	if e.ImpactScore == nil {
		return e.Kind.DefaultImpact()
	}
	v := *e.ImpactScore
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Summary is the compact form of an event kept in preference state and
// reports. It drops EditedContent, which can be large.
type Summary struct {
	ID               string    `json:"id"`
	RecommendationID string    `json:"recommendation_id"`
	Kind             Kind      `json:"kind"`
	Category         string    `json:"category,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Impact           float64   `json:"impact"`
}

// Summarize returns the event's compact form.
func (e *Event) Summarize() Summary {
	return Summary{
		ID:               e.ID,
		RecommendationID: e.RecommendationID,
		Kind:             e.Kind,
		Category:         e.Category,
		Timestamp:        e.Timestamp,
		Impact:           e.Impact(),
	}
}
