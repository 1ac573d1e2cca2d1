// Package engine is the facade over the adaptive feedback engine: it owns
// the preference store's lifecycle and sequences the adaptation folds,
// recommendation adapter, and report generator. External collaborators
// call only this package; nothing else mutates preference state.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prefd/internal/adapt"
	"github.com/fyrsmithlabs/prefd/internal/feedback"
	"github.com/fyrsmithlabs/prefd/internal/prefstore"
	"github.com/fyrsmithlabs/prefd/internal/recommend"
	"github.com/fyrsmithlabs/prefd/internal/report"
)

// Service sequences the engine components behind the four public
// operations. All methods are safe for concurrent use; per-key
// serialization is delegated to the store.
type Service struct {
	cfg     adapt.Config
	store   *prefstore.Store
	folder  *adapt.Folder
	adapter *recommend.Adapter
	reports *report.Generator
	logger  *zap.Logger
}

// NewService creates the engine. A nil classifier selects the built-in
// keyword classifier; a nil logger disables logging.
func NewService(cfg adapt.Config, classifier adapt.StyleClassifier, logger *zap.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid adaptation config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		cfg:     cfg,
		store:   prefstore.NewStore(cfg.NewState),
		folder:  adapt.NewFolder(cfg, classifier),
		adapter: recommend.NewAdapter(cfg),
		reports: report.NewGenerator(cfg),
		logger:  logger,
	}, nil
}

// Config returns the engine's adaptation tunables.
func (s *Service) Config() adapt.Config {
	return s.cfg
}

// RecordFeedback validates the event, folds it into the key's preference
// state, and returns the resulting state for debugging/telemetry.
// Validation failures never reach the store.
func (s *Service) RecordFeedback(ctx context.Context, event *feedback.Event) (*prefstore.State, error) {
	if event == nil {
		return nil, feedback.ErrNilEvent
	}
	if err := event.Validate(); err != nil {
		ValidationFailuresTotal.Inc()
		s.logger.Debug("rejected feedback event",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return nil, err
	}

	start := time.Now()
	state := s.store.Update(event.Key(), event, s.folder.Fold)
	FoldDuration.Observe(time.Since(start).Seconds())
	FeedbackEventsTotal.WithLabelValues(string(event.Kind)).Inc()
	ActiveKeys.Set(float64(s.store.Len()))

	s.logger.Debug("folded feedback event",
		zap.String("event_id", event.ID),
		zap.String("agent_id", event.AgentID),
		zap.String("user_id", event.UserID),
		zap.String("task_type", event.TaskType),
		zap.String("kind", string(event.Kind)),
		zap.Int("sample_count", state.SampleCount),
		zap.String("phase", s.cfg.PhaseFor(state.SampleCount).String()))

	return state, nil
}

// AdaptRecommendation applies the key's learned preferences to a raw
// candidate. A nil window allows any delivery hour.
func (s *Service) AdaptRecommendation(ctx context.Context, key feedback.Key, candidate recommend.Candidate, window *recommend.HourRange) (recommend.Adapted, error) {
	if err := key.Validate(); err != nil {
		return recommend.Adapted{}, err
	}

	state := s.store.Get(key)
	adapted, err := s.adapter.Adapt(candidate, state, window)
	if err != nil {
		return recommend.Adapted{}, err
	}

	switch {
	case s.cfg.PhaseFor(state.SampleCount) == adapt.PhaseCold:
		AdaptationsTotal.WithLabelValues("neutral").Inc()
	case adapted.Suppressed:
		AdaptationsTotal.WithLabelValues("suppressed").Inc()
	default:
		AdaptationsTotal.WithLabelValues("shown").Inc()
	}

	s.logger.Debug("adapted recommendation",
		zap.String("recommendation_id", candidate.RecommendationID),
		zap.String("agent_id", key.AgentID),
		zap.Bool("suppressed", adapted.Suppressed),
		zap.Float64("effective_priority", adapted.EffectivePriority),
		zap.Int("delivery_hour", adapted.RecommendedDeliveryHour))

	return adapted, nil
}

// GetLearningReport derives a report for the key. An unseen key yields a
// valid neutral report, not an error.
func (s *Service) GetLearningReport(ctx context.Context, key feedback.Key) (*report.LearningReport, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return s.reports.Generate(key, s.store.Get(key)), nil
}

// ResetPreferences deletes the key's state. Resetting an unseen key is a
// no-op.
func (s *Service) ResetPreferences(ctx context.Context, key feedback.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	s.store.Reset(key)
	ActiveKeys.Set(float64(s.store.Len()))
	s.logger.Info("reset preferences",
		zap.String("agent_id", key.AgentID),
		zap.String("user_id", key.UserID),
		zap.String("task_type", key.TaskType))
	return nil
}

// SnapshotAll exports every (key, state) pair for the persistence
// collaborator. The engine itself holds no file or database handles.
func (s *Service) SnapshotAll() []prefstore.Snapshot {
	return s.store.SnapshotAll()
}

// RestoreAll replaces the store's contents, typically at process boot.
func (s *Service) RestoreAll(snapshot []prefstore.Snapshot) {
	s.store.RestoreAll(snapshot)
	ActiveKeys.Set(float64(s.store.Len()))
	s.logger.Info("restored preference snapshot", zap.Int("keys", len(snapshot)))
}
