// Package adapt implements the pure adaptation folds that turn feedback
// events into updated preference state. Each dimension (timing, style,
// confidence thresholds, category priority, history) has its own fold;
// Folder composes them in sequence. Folds are total functions: malformed
// optional fields degrade to defaults or no-ops, never errors.
package adapt

import (
	"math"

	"github.com/fyrsmithlabs/prefd/internal/feedback"
	"github.com/fyrsmithlabs/prefd/internal/prefstore"
)

// Folder applies the composed adaptation folds under one Config.
type Folder struct {
	cfg        Config
	classifier StyleClassifier
}

// NewFolder creates a Folder. A nil classifier falls back to the built-in
// keyword classifier.
func NewFolder(cfg Config, classifier StyleClassifier) *Folder {
	if classifier == nil {
		classifier = NewKeywordStyleClassifier()
	}
	return &Folder{cfg: cfg, classifier: classifier}
}

// Config returns the folder's tunables.
func (f *Folder) Config() Config {
	return f.cfg
}

// Fold composes all dimension folds in sequence. It mutates and returns
// the passed state, which the store guarantees is a private clone. The
// phase is computed from the pre-fold sample count so every dimension
// sees a consistent view of the key's maturity.
func (f *Folder) Fold(s *prefstore.State, e *feedback.Event) *prefstore.State {
	phase := f.cfg.PhaseFor(s.SampleCount)

	f.foldTiming(s, e)
	f.foldStyle(s, e)
	f.foldThresholds(s, e, phase)
	f.foldPriority(s, e, phase)
	f.foldHistory(s, e)

	return s
}

// foldTiming smooths the event's hour bucket upward and every other
// bucket downward, then renormalizes.
func (f *Folder) foldTiming(s *prefstore.State, e *feedback.Event) {
	hour := e.Timestamp.Hour()
	a := f.cfg.LearningRate
	for i := range s.TimingHistogram {
		if i == hour {
			s.TimingHistogram[i] = a + (1-a)*s.TimingHistogram[i]
		} else {
			s.TimingHistogram[i] = (1 - a) * s.TimingHistogram[i]
		}
	}
	s.TimingHistogram.Normalize()
}

// foldStyle adjusts assertiveness on Accepted/Rejected and, for Modified
// events carrying edited content, nudges the tone and detail
// distributions toward the classifier's signal. Missing edited content
// makes the distribution nudge a no-op.
func (f *Folder) foldStyle(s *prefstore.State, e *feedback.Event) {
	d := f.cfg.AssertivenessDelta

	switch e.Kind {
	case feedback.KindAccepted:
		s.StyleWeights.Assertiveness = prefstore.Clamp01(s.StyleWeights.Assertiveness + d)
	case feedback.KindRejected:
		s.StyleWeights.Assertiveness = prefstore.Clamp01(s.StyleWeights.Assertiveness - d)
	case feedback.KindModified:
		if e.EditedContent == "" {
			return
		}
		sig := f.classifier.Classify(e.EditedContent)
		if sig.Tone != "" {
			nudgeDist(s.StyleWeights.Tone, sig.Tone, f.cfg.LearningRate)
		}
		if sig.Detail != "" {
			nudgeDist(s.StyleWeights.DetailLevel, sig.Detail, f.cfg.LearningRate)
		}
		if sig.Stronger {
			s.StyleWeights.Assertiveness = prefstore.Clamp01(s.StyleWeights.Assertiveness + d)
		}
	}
}

// nudgeDist applies the same exponential smoothing as the timing fold to
// a categorical distribution, then renormalizes.
func nudgeDist(dist map[string]float64, category string, rate float64) {
	for k, v := range dist {
		if k == category {
			dist[k] = rate + (1-rate)*v
		} else {
			dist[k] = (1 - rate) * v
		}
	}
	prefstore.NormalizeDist(dist)
}

// foldThresholds moves the confidence gates. Accepted lowers show (the
// agent was right to surface the recommendation); Rejected and Ignored
// raise show and accept. The step shrinks with sample count and phase so
// early feedback moves the gates quickly while stable keys barely drift.
func (f *Folder) foldThresholds(s *prefstore.State, e *feedback.Event, phase Phase) {
	delta := f.cfg.BaseThresholdDelta * phase.Gain() / math.Sqrt(float64(s.SampleCount)+1)

	switch e.Kind {
	case feedback.KindAccepted:
		s.Thresholds.Show = math.Max(f.cfg.ShowFloor, s.Thresholds.Show-delta)
	case feedback.KindRejected, feedback.KindIgnored:
		s.Thresholds.Show = math.Min(f.cfg.ShowCeiling, s.Thresholds.Show+delta)
		s.Thresholds.Accept = math.Min(f.cfg.AcceptCeiling, s.Thresholds.Accept+delta)
	}

	s.Thresholds.Clamp()
}

// foldPriority moves the event category's weight: up on Accepted, down on
// Rejected, untouched otherwise. Weights are floor-clamped at epsilon so
// a category can always recover. Events without a category are a no-op.
func (f *Folder) foldPriority(s *prefstore.State, e *feedback.Event, phase Phase) {
	if e.Category == "" {
		return
	}

	w, ok := s.CategoryWeights[e.Category]
	if !ok {
		w = 0.5 // neutral starting weight for a first-seen category
	}

	step := f.cfg.LearningRate * e.Impact() * phase.Gain()
	switch e.Kind {
	case feedback.KindAccepted:
		w += step
	case feedback.KindRejected:
		w -= step
	default:
		s.CategoryWeights[e.Category] = w
		return
	}

	if w < f.cfg.CategoryEpsilon {
		w = f.cfg.CategoryEpsilon
	}
	if w > 1 {
		w = 1
	}
	s.CategoryWeights[e.Category] = w
}

// foldHistory records the event: ring push, sample count, last feedback.
func (f *Folder) foldHistory(s *prefstore.State, e *feedback.Event) {
	sum := e.Summarize()
	s.History.Push(sum)
	s.SampleCount++
	s.LastFeedback = &sum
}
