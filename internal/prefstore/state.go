package prefstore

import (
	"github.com/fyrsmithlabs/prefd/internal/feedback"
)

// HoursPerDay is the number of timing histogram buckets.
const HoursPerDay = 24

// Tone categories for the style tone distribution.
const (
	ToneFormal = "formal"
	ToneCasual = "casual"
	ToneUrgent = "urgent"
)

// Detail-level categories for the style detail distribution.
const (
	DetailBrief    = "brief"
	DetailModerate = "moderate"
	DetailDetailed = "detailed"
)

// ToneCategories lists the closed tone category set.
var ToneCategories = []string{ToneFormal, ToneCasual, ToneUrgent}

// DetailCategories lists the closed detail-level category set.
var DetailCategories = []string{DetailBrief, DetailModerate, DetailDetailed}

// TimingHistogram maps hour-of-day (0-23) to a smoothed delivery-preference
// weight. Weights are non-negative and sum to 1.
type TimingHistogram [HoursPerDay]float64

// NewUniformHistogram returns a histogram with equal weight in every bucket.
func NewUniformHistogram() TimingHistogram {
	var h TimingHistogram
	for i := range h {
		h[i] = 1.0 / HoursPerDay
	}
	return h
}

// Normalize rescales the histogram so its weights sum to 1. A degenerate
// all-zero histogram resets to uniform.
func (h *TimingHistogram) Normalize() {
	var sum float64
	for _, w := range h {
		sum += w
	}
	if sum <= 0 {
		*h = NewUniformHistogram()
		return
	}
	for i := range h {
		h[i] /= sum
	}
}

// Argmax returns the hour with the highest weight. Ties break toward the
// earliest hour.
func (h TimingHistogram) Argmax() int {
	best := 0
	for i := 1; i < HoursPerDay; i++ {
		if h[i] > h[best] {
			best = i
		}
	}
	return best
}

// StyleWeights captures the learned presentation style for a key.
type StyleWeights struct {
	// Tone is a categorical distribution over formal/casual/urgent.
	Tone map[string]float64 `json:"tone"`

	// DetailLevel is a categorical distribution over brief/moderate/detailed.
	DetailLevel map[string]float64 `json:"detail_level"`

	// Assertiveness is a scalar in [0,1].
	Assertiveness float64 `json:"assertiveness"`
}

// NewUniformStyleWeights returns style weights with uniform distributions
// and neutral assertiveness.
func NewUniformStyleWeights() StyleWeights {
	return StyleWeights{
		Tone:          uniformDist(ToneCategories),
		DetailLevel:   uniformDist(DetailCategories),
		Assertiveness: 0.5,
	}
}

// ConfidenceThresholds are the learned gates a recommendation's confidence
// is measured against. Invariant: Show <= Accept <= Prioritize, all in [0,1].
type ConfidenceThresholds struct {
	Show       float64 `json:"show"`
	Accept     float64 `json:"accept"`
	Prioritize float64 `json:"prioritize"`
}

// Clamp forces each threshold into [0,1] and re-establishes the ordering
// invariant by pushing Accept and Prioritize up to meet their floors.
func (t *ConfidenceThresholds) Clamp() {
	t.Show = clamp01(t.Show)
	t.Accept = clamp01(t.Accept)
	t.Prioritize = clamp01(t.Prioritize)
	if t.Accept < t.Show {
		t.Accept = t.Show
	}
	if t.Prioritize < t.Accept {
		t.Prioritize = t.Accept
	}
}

// State is the learned preference model for one (agent, user, task-type)
// key. It is owned by the Store; callers only ever see clones.
type State struct {
	TimingHistogram TimingHistogram      `json:"timing_histogram"`
	StyleWeights    StyleWeights         `json:"style_weights"`
	Thresholds      ConfidenceThresholds `json:"confidence_thresholds"`

	// CategoryWeights maps category name to a weight in [epsilon,1].
	// Weights need not sum to 1; NormalizedCategoryWeights rescales them
	// before use.
	CategoryWeights map[string]float64 `json:"category_weights"`

	// SampleCount is the number of events folded in. Monotonically
	// increasing; reset only by deleting the key.
	SampleCount int `json:"sample_count"`

	// LastFeedback is the most recently folded event's summary.
	LastFeedback *feedback.Summary `json:"last_feedback,omitempty"`

	// History is a fixed-capacity rolling window of folded events used for
	// trend computation.
	History History `json:"history"`
}

// NewState returns the default (cold) state: uniform distributions,
// the supplied conservative thresholds, and an empty history of the given
// capacity.
func NewState(thresholds ConfidenceThresholds, historyCapacity int) *State {
	return &State{
		TimingHistogram: NewUniformHistogram(),
		StyleWeights:    NewUniformStyleWeights(),
		Thresholds:      thresholds,
		CategoryWeights: make(map[string]float64),
		History:         NewHistory(historyCapacity),
	}
}

// Clone returns a deep copy. The store clones on every read and write so
// no caller ever aliases store-owned state.
func (s *State) Clone() *State {
	c := *s
	c.StyleWeights.Tone = cloneDist(s.StyleWeights.Tone)
	c.StyleWeights.DetailLevel = cloneDist(s.StyleWeights.DetailLevel)
	c.CategoryWeights = cloneDist(s.CategoryWeights)
	if s.LastFeedback != nil {
		lf := *s.LastFeedback
		c.LastFeedback = &lf
	}
	c.History = s.History.Clone()
	return &c
}

// NormalizedCategoryWeights returns the category weights rescaled to sum
// to 1. Categories absent from the map are treated as weight 1 by callers
// before normalization, so the result covers only observed categories.
func (s *State) NormalizedCategoryWeights() map[string]float64 {
	out := cloneDist(s.CategoryWeights)
	normalizeDist(out)
	return out
}

func uniformDist(categories []string) map[string]float64 {
	d := make(map[string]float64, len(categories))
	for _, c := range categories {
		d[c] = 1.0 / float64(len(categories))
	}
	return d
}

func cloneDist(d map[string]float64) map[string]float64 {
	if d == nil {
		return nil
	}
	out := make(map[string]float64, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// normalizeDist rescales a distribution in place so it sums to 1.
// Empty or all-zero distributions are left untouched.
func normalizeDist(d map[string]float64) {
	var sum float64
	for _, v := range d {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for k, v := range d {
		d[k] = v / sum
	}
}

// NormalizeDist is the exported form used by adaptation folds.
func NormalizeDist(d map[string]float64) {
	normalizeDist(d)
}

// DominantCategory returns the highest-weight key of a distribution.
// Ties break lexicographically so the result is deterministic.
func DominantCategory(d map[string]float64) string {
	best := ""
	var bestW float64
	for k, v := range d {
		if best == "" || v > bestW || (v == bestW && k < best) {
			best = k
			bestW = v
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	return clamp01(v)
}
