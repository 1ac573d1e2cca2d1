// Package report derives learning reports from preference state: a
// composite agent score, per-dimension breakdown, trend over the history
// window, and an advisory next-optimization target. Generation is a pure
// read, safe to call at arbitrary frequency.
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fyrsmithlabs/prefd/internal/adapt"
	"github.com/fyrsmithlabs/prefd/internal/feedback"
	"github.com/fyrsmithlabs/prefd/internal/prefstore"
)

// Trend labels the direction of recent performance change.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Dimension names used in breakdowns and optimization targets.
const (
	DimTiming     = "timing_fit"
	DimStyle      = "style_fit"
	DimConfidence = "confidence_calibration"
	DimPriority   = "priority_alignment"
)

// Breakdown scores each adaptation dimension in [0,1].
type Breakdown struct {
	TimingFit             float64 `json:"timing_fit"`
	StyleFit              float64 `json:"style_fit"`
	ConfidenceCalibration float64 `json:"confidence_calibration"`
	PriorityAlignment     float64 `json:"priority_alignment"`
}

// lowest returns the weakest dimension and its score.
func (b Breakdown) lowest() (string, float64) {
	dim, score := DimTiming, b.TimingFit
	if b.StyleFit < score {
		dim, score = DimStyle, b.StyleFit
	}
	if b.ConfidenceCalibration < score {
		dim, score = DimConfidence, b.ConfidenceCalibration
	}
	if b.PriorityAlignment < score {
		dim, score = DimPriority, b.PriorityAlignment
	}
	return dim, score
}

// Score is the composite agent score plus its per-dimension breakdown.
type Score struct {
	Overall   float64   `json:"overall"`
	Breakdown Breakdown `json:"breakdown"`
}

// PerformanceChange compares the recent half of the history window
// against the earlier half.
type PerformanceChange struct {
	Period      string  `json:"period"`
	Improvement float64 `json:"improvement"`
	Trend       Trend   `json:"trend"`
}

// NextOptimization is advisory text pointing at the weakest dimension.
type NextOptimization struct {
	Target string `json:"target"`

	// ExpectedImprovement is a heuristic percentage, not a guarantee.
	ExpectedImprovement float64 `json:"expected_improvement_pct"`

	Timeframe string `json:"timeframe"`
}

// LearningReport summarizes one key's preference state for dashboards.
type LearningReport struct {
	AgentID  string `json:"agent_id"`
	UserID   string `json:"user_id"`
	TaskType string `json:"task_type"`

	GeneratedAt time.Time `json:"generated_at"`
	SampleCount int       `json:"sample_count"`

	LastFeedback *feedback.Summary `json:"last_feedback,omitempty"`

	AgentScore        Score             `json:"agent_score"`
	PerformanceChange PerformanceChange `json:"performance_change"`

	// LearnedAdjustments are plain-text summaries of the four adaptation
	// dimensions. Structured text only; the engine never emits markup.
	LearnedAdjustments []string `json:"learned_adjustments"`

	NextOptimization NextOptimization `json:"next_optimization"`
}

// Generator derives learning reports.
type Generator struct {
	cfg adapt.Config
}

// NewGenerator creates a Generator sharing the engine's adaptation config.
func NewGenerator(cfg adapt.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Generate builds a report from the state's history window and current
// parameters. A key with no history produces a valid neutral report, not
// an error.
func (g *Generator) Generate(key feedback.Key, s *prefstore.State) *LearningReport {
	items := s.History.Items()

	breakdown := Breakdown{
		TimingFit:             g.timingFit(s, items),
		StyleFit:              g.styleFit(s),
		ConfidenceCalibration: g.confidenceCalibration(s, items),
		PriorityAlignment:     g.priorityAlignment(s, items),
	}

	r := &LearningReport{
		AgentID:      key.AgentID,
		UserID:       key.UserID,
		TaskType:     key.TaskType,
		GeneratedAt:  time.Now(),
		SampleCount:  s.SampleCount,
		LastFeedback: s.LastFeedback,
		AgentScore: Score{
			Overall:   g.overallScore(items),
			Breakdown: breakdown,
		},
		PerformanceChange:  g.performanceChange(items),
		LearnedAdjustments: g.learnedAdjustments(s),
		NextOptimization:   g.nextOptimization(breakdown),
	}
	return r
}

// overallScore is the recency-weighted average reward over the window,
// folded with the same exponential smoothing the timing fold uses. An
// empty window yields the neutral 0.5.
func (g *Generator) overallScore(items []feedback.Summary) float64 {
	score := 0.5
	a := g.cfg.LearningRate
	for _, it := range items {
		score = a*it.Kind.Reward() + (1-a)*score
	}
	return score
}

// timingFit measures how well event hours match the learned histogram:
// the mean bucket weight at event hours relative to the peak bucket. 1.0
// means every event landed on the preferred hour.
func (g *Generator) timingFit(s *prefstore.State, items []feedback.Summary) float64 {
	if len(items) == 0 {
		return 0.5
	}
	peak := s.TimingHistogram[s.TimingHistogram.Argmax()]
	if peak <= 0 {
		return 0.5
	}
	var sum float64
	for _, it := range items {
		sum += s.TimingHistogram[it.Timestamp.Hour()] / peak
	}
	return prefstore.Clamp01(sum / float64(len(items)))
}

// styleFit is the confidence of the learned style: the mean of the
// dominant tone and detail probabilities. Uniform distributions score
// 1/3, full convergence scores 1.
func (g *Generator) styleFit(s *prefstore.State) float64 {
	tone := s.StyleWeights.Tone[prefstore.DominantCategory(s.StyleWeights.Tone)]
	detail := s.StyleWeights.DetailLevel[prefstore.DominantCategory(s.StyleWeights.DetailLevel)]
	return prefstore.Clamp01((tone + detail) / 2)
}

// confidenceCalibration compares the observed accept rate against what
// the show threshold implies: a well-calibrated gate shows roughly what
// the user accepts.
func (g *Generator) confidenceCalibration(s *prefstore.State, items []feedback.Summary) float64 {
	if len(items) == 0 {
		return 0.5
	}
	var sum float64
	for _, it := range items {
		sum += it.Kind.Reward()
	}
	acceptRate := sum / float64(len(items))
	return prefstore.Clamp01(1 - math.Abs(acceptRate-(1-s.Thresholds.Show)))
}

// priorityAlignment measures whether accepted events land in categories
// the weights favor. Neutral 0.5 with no categorized accepted events.
func (g *Generator) priorityAlignment(s *prefstore.State, items []feedback.Summary) float64 {
	normalized := s.NormalizedCategoryWeights()
	if len(normalized) == 0 {
		return 0.5
	}

	var sum float64
	n := 0
	for _, it := range items {
		if it.Category == "" || it.Kind != feedback.KindAccepted {
			continue
		}
		w, ok := normalized[it.Category]
		if !ok {
			continue
		}
		// Factor 1.0 (uniform) maps to the neutral 0.5.
		sum += prefstore.Clamp01(w * float64(len(normalized)) / 2)
		n++
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

// performanceChange splits the window into halves and compares mean
// rewards, with a dead band around zero for "stable".
func (g *Generator) performanceChange(items []feedback.Summary) PerformanceChange {
	pc := PerformanceChange{
		Period: fmt.Sprintf("last %d events", len(items)),
		Trend:  TrendStable,
	}
	if len(items) < 2 {
		return pc
	}

	mid := len(items) / 2
	early := meanReward(items[:mid])
	recent := meanReward(items[mid:])
	pc.Improvement = recent - early

	switch {
	case pc.Improvement > g.cfg.TrendDeadBand:
		pc.Trend = TrendImproving
	case pc.Improvement < -g.cfg.TrendDeadBand:
		pc.Trend = TrendDeclining
	}
	return pc
}

func meanReward(items []feedback.Summary) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += it.Kind.Reward()
	}
	return sum / float64(len(items))
}

// learnedAdjustments renders the four dimensions as plain text.
func (g *Generator) learnedAdjustments(s *prefstore.State) []string {
	peak := s.TimingHistogram.Argmax()
	out := []string{
		fmt.Sprintf("preferred delivery hour %d (weight %.2f)", peak, s.TimingHistogram[peak]),
		fmt.Sprintf("style tone=%s detail=%s assertiveness=%.2f",
			prefstore.DominantCategory(s.StyleWeights.Tone),
			prefstore.DominantCategory(s.StyleWeights.DetailLevel),
			s.StyleWeights.Assertiveness),
		fmt.Sprintf("confidence gates show=%.2f accept=%.2f prioritize=%.2f",
			s.Thresholds.Show, s.Thresholds.Accept, s.Thresholds.Prioritize),
	}

	if len(s.CategoryWeights) == 0 {
		out = append(out, "no category priority signal yet")
		return out
	}

	type catWeight struct {
		name   string
		weight float64
	}
	cats := make([]catWeight, 0, len(s.CategoryWeights))
	for name, w := range s.NormalizedCategoryWeights() {
		cats = append(cats, catWeight{name, w})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].weight != cats[j].weight {
			return cats[i].weight > cats[j].weight
		}
		return cats[i].name < cats[j].name
	})
	if len(cats) > 3 {
		cats = cats[:3]
	}

	line := "top categories:"
	for _, c := range cats {
		line += fmt.Sprintf(" %s=%.2f", c.name, c.weight)
	}
	out = append(out, line)
	return out
}

// nextOptimization targets the weakest dimension. The expected
// improvement is a fixed fraction of the remaining headroom.
func (g *Generator) nextOptimization(b Breakdown) NextOptimization {
	dim, score := b.lowest()
	return NextOptimization{
		Target:              dim,
		ExpectedImprovement: math.Round((1-score)*25*10) / 10,
		Timeframe:           "1-2 weeks",
	}
}
