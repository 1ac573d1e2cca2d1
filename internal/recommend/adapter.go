// Package recommend applies learned preference state to candidate
// recommendations: re-ranking, suppression, delivery timing, and style
// hints, each decision documented in a plain-text adaptation trace for UI
// explainability.
package recommend

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/prefd/internal/adapt"
	"github.com/fyrsmithlabs/prefd/internal/prefstore"
)

// Adapter errors.
var (
	ErrEmptyRecommendationID = errors.New("recommendation ID cannot be empty")
	ErrBadHourRange          = errors.New("hour range values must be in [0,23]")
)

// Candidate is a raw recommendation produced upstream, before adaptation.
type Candidate struct {
	// RecommendationID identifies the candidate.
	RecommendationID string `json:"recommendation_id"`

	// Category is the content category matched against learned priority
	// weights. May be empty.
	Category string `json:"category,omitempty"`

	// BasePriority is the upstream priority/rank score.
	BasePriority float64 `json:"base_priority"`

	// BaseConfidence is the upstream confidence in [0,1], measured
	// against the learned show threshold.
	BaseConfidence float64 `json:"base_confidence"`

	// ProposedHour is the upstream delivery-hour proposal, or nil.
	ProposedHour *int `json:"proposed_hour,omitempty"`
}

// HourRange is an inclusive delivery window. Start may exceed End, in
// which case the window wraps midnight (e.g. 22-06).
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Validate checks both bounds are valid hours.
func (r HourRange) Validate() error {
	if r.Start < 0 || r.Start > 23 || r.End < 0 || r.End > 23 {
		return ErrBadHourRange
	}
	return nil
}

// Contains reports whether hour falls inside the window.
func (r HourRange) Contains(hour int) bool {
	if r.Start <= r.End {
		return hour >= r.Start && hour <= r.End
	}
	return hour >= r.Start || hour <= r.End
}

func (r HourRange) String() string {
	return fmt.Sprintf("%02d-%02d", r.Start, r.End)
}

// StyleHints is the dominant learned style attached to an adapted
// recommendation.
type StyleHints struct {
	Tone          string  `json:"tone"`
	DetailLevel   string  `json:"detail_level"`
	Assertiveness float64 `json:"assertiveness"`
}

// Adapted is the result of applying preference state to a candidate.
type Adapted struct {
	RecommendationID string `json:"recommendation_id"`
	Category         string `json:"category,omitempty"`

	BasePriority      float64 `json:"base_priority"`
	EffectivePriority float64 `json:"effective_priority"`

	// Suppressed means the candidate's confidence fell below the learned
	// show threshold. Never set for cold keys.
	Suppressed bool `json:"suppressed"`

	// RecommendedDeliveryHour is the best delivery hour within the
	// caller's window, from the timing histogram.
	RecommendedDeliveryHour int `json:"recommended_delivery_hour"`

	StyleHints StyleHints `json:"style_hints"`

	// Trace lists, in order, which learned parameters drove each
	// decision. Plain structured text, not markup, not for re-parsing.
	Trace []string `json:"trace"`
}

// Adapter computes adapted recommendations from preference state.
type Adapter struct {
	cfg adapt.Config
}

// NewAdapter creates an Adapter sharing the engine's adaptation config.
func NewAdapter(cfg adapt.Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// Adapt applies state to the candidate. A nil window means any hour. Keys
// still in the cold phase get neutral treatment: no suppression, no
// reprioritization, trace marked "insufficient data". Cold keys must
// never silently hide recommendations.
func (a *Adapter) Adapt(c Candidate, s *prefstore.State, window *HourRange) (Adapted, error) {
	if c.RecommendationID == "" {
		return Adapted{}, ErrEmptyRecommendationID
	}
	if window != nil {
		if err := window.Validate(); err != nil {
			return Adapted{}, err
		}
	}

	out := Adapted{
		RecommendationID: c.RecommendationID,
		Category:         c.Category,
		BasePriority:     c.BasePriority,
		StyleHints: StyleHints{
			Tone:          prefstore.DominantCategory(s.StyleWeights.Tone),
			DetailLevel:   prefstore.DominantCategory(s.StyleWeights.DetailLevel),
			Assertiveness: s.StyleWeights.Assertiveness,
		},
	}

	phase := a.cfg.PhaseFor(s.SampleCount)
	out.Trace = append(out.Trace, fmt.Sprintf("phase=%s samples=%d", phase, s.SampleCount))

	if phase == adapt.PhaseCold {
		out.EffectivePriority = c.BasePriority
		hour, fromProposal := a.deliveryHour(c, s, window)
		out.RecommendedDeliveryHour = hour
		out.Trace = append(out.Trace, fmt.Sprintf(
			"insufficient data (%d of %d samples); neutral adaptation, no suppression",
			s.SampleCount, a.cfg.MinSamples))
		if fromProposal {
			out.Trace = append(out.Trace, fmt.Sprintf(
				"delivery hour %d kept from upstream proposal", hour))
		} else {
			out.Trace = append(out.Trace, a.hourTrace(hour, window))
		}
		return out, nil
	}

	a.applyPriority(c, s, &out)
	a.applySuppression(c, s, &out)

	out.RecommendedDeliveryHour, _ = a.deliveryHour(c, s, window)
	out.Trace = append(out.Trace, a.hourTrace(out.RecommendedDeliveryHour, window))

	out.Trace = append(out.Trace, fmt.Sprintf(
		"style: tone=%s detail=%s assertiveness=%.2f",
		out.StyleHints.Tone, out.StyleHints.DetailLevel, out.StyleHints.Assertiveness))

	return out, nil
}

// applyPriority scales base priority by the category's normalized weight.
// The normalized weight is rescaled by the category count so a uniform
// distribution yields a factor of exactly 1 (no reprioritization).
func (a *Adapter) applyPriority(c Candidate, s *prefstore.State, out *Adapted) {
	normalized := s.NormalizedCategoryWeights()
	w, ok := normalized[c.Category]
	if c.Category == "" || !ok {
		out.EffectivePriority = c.BasePriority
		out.Trace = append(out.Trace, fmt.Sprintf(
			"category %q has no learned weight; priority unchanged at %.2f",
			c.Category, c.BasePriority))
		return
	}

	factor := w * float64(len(normalized))
	out.EffectivePriority = c.BasePriority * factor
	out.Trace = append(out.Trace, fmt.Sprintf(
		"category %q weight %.3f (normalized, x%d categories) scaled priority %.2f -> %.2f",
		c.Category, w, len(normalized), c.BasePriority, out.EffectivePriority))
}

// applySuppression compares candidate confidence to the learned show
// threshold.
func (a *Adapter) applySuppression(c Candidate, s *prefstore.State, out *Adapted) {
	if c.BaseConfidence < s.Thresholds.Show {
		out.Suppressed = true
		out.Trace = append(out.Trace, fmt.Sprintf(
			"confidence %.2f below show threshold %.2f; suppressed",
			c.BaseConfidence, s.Thresholds.Show))
		return
	}
	out.Trace = append(out.Trace, fmt.Sprintf(
		"confidence %.2f meets show threshold %.2f",
		c.BaseConfidence, s.Thresholds.Show))
}

// hourTrace renders the histogram-derived delivery hour decision.
func (a *Adapter) hourTrace(hour int, window *HourRange) string {
	if window != nil {
		return fmt.Sprintf("delivery hour %d from timing histogram within window %s", hour, window)
	}
	return fmt.Sprintf("delivery hour %d from timing histogram", hour)
}

// deliveryHour picks the highest-weight histogram bucket inside the
// window, ties breaking toward the earliest hour. With no window the
// global argmax wins. A window no bucket falls into cannot happen since
// windows are validated and inclusive. The bool reports whether the
// upstream proposal was kept instead of the histogram.
func (a *Adapter) deliveryHour(c Candidate, s *prefstore.State, window *HourRange) (int, bool) {
	// Cold keys with an upstream proposal keep it when it fits the window.
	if a.cfg.PhaseFor(s.SampleCount) == adapt.PhaseCold && c.ProposedHour != nil {
		h := *c.ProposedHour
		if h >= 0 && h <= 23 && (window == nil || window.Contains(h)) {
			return h, true
		}
	}

	best := -1
	for h := 0; h < prefstore.HoursPerDay; h++ {
		if window != nil && !window.Contains(h) {
			continue
		}
		if best == -1 || s.TimingHistogram[h] > s.TimingHistogram[best] {
			best = h
		}
	}
	if best == -1 {
		// Unreachable with a validated window; fall back to global argmax.
		best = s.TimingHistogram.Argmax()
	}
	return best, false
}
