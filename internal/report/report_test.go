package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/prefd/internal/adapt"
	"github.com/fyrsmithlabs/prefd/internal/feedback"
	"github.com/fyrsmithlabs/prefd/internal/prefstore"
)

func testKey() feedback.Key {
	return feedback.Key{AgentID: "agent-1", UserID: "user-1", TaskType: "triage"}
}

func fixture() (*Generator, *adapt.Folder, *prefstore.State) {
	cfg := adapt.DefaultConfig()
	return NewGenerator(cfg), adapt.NewFolder(cfg, nil), cfg.NewState()
}

func fold(folder *adapt.Folder, s *prefstore.State, kind feedback.Kind, hour int, category string) *prefstore.State {
	return folder.Fold(s, &feedback.Event{
		ID:               "evt",
		AgentID:          "agent-1",
		UserID:           "user-1",
		TaskType:         "triage",
		RecommendationID: "rec",
		Kind:             kind,
		Category:         category,
		Timestamp:        time.Date(2026, 5, 1, hour, 0, 0, 0, time.UTC),
	})
}

func TestGenerate_EmptyStateIsNeutral(t *testing.T) {
	gen, _, state := fixture()

	r := gen.Generate(testKey(), state)

	assert.Equal(t, "agent-1", r.AgentID)
	assert.Equal(t, 0, r.SampleCount)
	assert.Nil(t, r.LastFeedback)
	assert.InDelta(t, 0.5, r.AgentScore.Overall, 1e-9)
	assert.Equal(t, TrendStable, r.PerformanceChange.Trend)
	assert.NotEmpty(t, r.LearnedAdjustments)
	assert.Equal(t, "1-2 weeks", r.NextOptimization.Timeframe)
}

func TestGenerate_TrendImprovingAfterTurnaround(t *testing.T) {
	gen, folder, state := fixture()

	for i := 0; i < 10; i++ {
		state = fold(folder, state, feedback.KindRejected, 10, "")
	}
	for i := 0; i < 10; i++ {
		state = fold(folder, state, feedback.KindAccepted, 10, "")
	}

	r := gen.Generate(testKey(), state)
	assert.Equal(t, TrendImproving, r.PerformanceChange.Trend)
	assert.Greater(t, r.PerformanceChange.Improvement, 0.0)
}

func TestGenerate_TrendDecliningAfterCollapse(t *testing.T) {
	gen, folder, state := fixture()

	for i := 0; i < 10; i++ {
		state = fold(folder, state, feedback.KindAccepted, 10, "")
	}
	for i := 0; i < 10; i++ {
		state = fold(folder, state, feedback.KindRejected, 10, "")
	}

	r := gen.Generate(testKey(), state)
	assert.Equal(t, TrendDeclining, r.PerformanceChange.Trend)
	assert.Less(t, r.PerformanceChange.Improvement, 0.0)
}

func TestGenerate_TrendStableWithinDeadBand(t *testing.T) {
	gen, folder, state := fixture()

	// Same mix in both halves.
	for i := 0; i < 20; i++ {
		state = fold(folder, state, feedback.KindAccepted, 10, "")
	}

	r := gen.Generate(testKey(), state)
	assert.Equal(t, TrendStable, r.PerformanceChange.Trend)
}

func TestGenerate_OverallScoreWeightsRecentEvents(t *testing.T) {
	gen, folder, stateA := fixture()

	for i := 0; i < 5; i++ {
		stateA = fold(folder, stateA, feedback.KindRejected, 10, "")
	}
	for i := 0; i < 5; i++ {
		stateA = fold(folder, stateA, feedback.KindAccepted, 10, "")
	}
	scoreRecentGood := gen.Generate(testKey(), stateA).AgentScore.Overall

	stateB := adapt.DefaultConfig().NewState()
	for i := 0; i < 5; i++ {
		stateB = fold(folder, stateB, feedback.KindAccepted, 10, "")
	}
	for i := 0; i < 5; i++ {
		stateB = fold(folder, stateB, feedback.KindRejected, 10, "")
	}
	scoreRecentBad := gen.Generate(testKey(), stateB).AgentScore.Overall

	assert.Greater(t, scoreRecentGood, scoreRecentBad,
		"same events, different order: recency weighting must favor the recent half")
}

func TestGenerate_BreakdownInRange(t *testing.T) {
	gen, folder, state := fixture()

	kinds := []feedback.Kind{feedback.KindAccepted, feedback.KindRejected, feedback.KindModified}
	for i := 0; i < 30; i++ {
		state = fold(folder, state, kinds[i%3], (i*5)%24, "financial")
	}

	b := gen.Generate(testKey(), state).AgentScore.Breakdown
	for name, v := range map[string]float64{
		DimTiming:     b.TimingFit,
		DimStyle:      b.StyleFit,
		DimConfidence: b.ConfidenceCalibration,
		DimPriority:   b.PriorityAlignment,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
}

func TestGenerate_TimingFitHighWhenConverged(t *testing.T) {
	gen, folder, state := fixture()

	for i := 0; i < 20; i++ {
		state = fold(folder, state, feedback.KindAccepted, 14, "")
	}

	b := gen.Generate(testKey(), state).AgentScore.Breakdown
	assert.Greater(t, b.TimingFit, 0.9, "all events on the peak hour")
}

func TestGenerate_NextOptimizationTargetsWeakestDimension(t *testing.T) {
	gen, folder, state := fixture()

	// Timing converges hard; style never learns (no modified events), so
	// style fit stays at its uniform 1/3 baseline.
	for i := 0; i < 25; i++ {
		state = fold(folder, state, feedback.KindAccepted, 14, "financial")
	}

	r := gen.Generate(testKey(), state)
	assert.Equal(t, DimStyle, r.NextOptimization.Target)
	assert.Greater(t, r.NextOptimization.ExpectedImprovement, 0.0)
}

func TestGenerate_LastFeedbackCarried(t *testing.T) {
	gen, folder, state := fixture()

	state = fold(folder, state, feedback.KindDelayed, 9, "ops")

	r := gen.Generate(testKey(), state)
	require.NotNil(t, r.LastFeedback)
	assert.Equal(t, feedback.KindDelayed, r.LastFeedback.Kind)
}

func TestGenerate_LearnedAdjustmentsArePlainText(t *testing.T) {
	gen, folder, state := fixture()

	state = fold(folder, state, feedback.KindAccepted, 14, "financial")

	for _, line := range gen.Generate(testKey(), state).LearnedAdjustments {
		assert.NotContains(t, line, "<")
		assert.NotContains(t, line, "**")
	}
}
