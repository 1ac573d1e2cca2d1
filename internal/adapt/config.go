package adapt

import (
	"errors"

	"github.com/fyrsmithlabs/prefd/internal/prefstore"
)

// Config validation errors.
var (
	ErrBadLearningRate = errors.New("learning rate must be in (0,1)")
	ErrBadThresholds   = errors.New("default thresholds must satisfy show <= accept <= prioritize in [0,1]")
	ErrBadSampleGates  = errors.New("min samples must be positive and at most stable samples")
)

// Config centralizes every adaptation tunable. The defaults are starting
// points, not load-bearing constants; deployments tune them via the
// daemon's configuration file.
type Config struct {
	// LearningRate is the exponential smoothing factor applied by the
	// timing and style folds. Recent behavior matters more than stale
	// history, but one event should not overwhelm an established pattern.
	LearningRate float64 `koanf:"learning_rate"`

	// AssertivenessDelta is the fixed step applied to style assertiveness
	// on Accepted/Rejected/Modified-toward-stronger events.
	AssertivenessDelta float64 `koanf:"assertiveness_delta"`

	// BaseThresholdDelta is the confidence-threshold step before sample
	// scaling. The effective step is BaseThresholdDelta * phase gain /
	// sqrt(sampleCount+1), so moves shrink as a key matures.
	BaseThresholdDelta float64 `koanf:"base_threshold_delta"`

	// ShowFloor is the lowest the show threshold can be driven by
	// Accepted events.
	ShowFloor float64 `koanf:"show_floor"`

	// ShowCeiling and AcceptCeiling cap how far Rejected/Ignored events
	// can raise the respective thresholds.
	ShowCeiling   float64 `koanf:"show_ceiling"`
	AcceptCeiling float64 `koanf:"accept_ceiling"`

	// DefaultShow/DefaultAccept/DefaultPrioritize are the conservative
	// thresholds a cold key starts from.
	DefaultShow       float64 `koanf:"default_show"`
	DefaultAccept     float64 `koanf:"default_accept"`
	DefaultPrioritize float64 `koanf:"default_prioritize"`

	// CategoryEpsilon is the floor for category priority weights. Weights
	// never reach zero so a category cannot be permanently starved.
	CategoryEpsilon float64 `koanf:"category_epsilon"`

	// MinSamples gates the Cold->Warming transition: below it the
	// recommendation adapter stays neutral.
	MinSamples int `koanf:"min_samples"`

	// StableSamples gates the Warming->Stable transition.
	StableSamples int `koanf:"stable_samples"`

	// HistoryCapacity is the rolling-window size used for trend
	// computation.
	HistoryCapacity int `koanf:"history_capacity"`

	// TrendDeadBand is the +/- band around zero inside which a
	// performance change counts as "stable".
	TrendDeadBand float64 `koanf:"trend_dead_band"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		LearningRate:       0.15,
		AssertivenessDelta: 0.05,
		BaseThresholdDelta: 0.08,
		ShowFloor:          0.05,
		ShowCeiling:        0.90,
		AcceptCeiling:      0.95,
		DefaultShow:        0.30,
		DefaultAccept:      0.55,
		DefaultPrioritize:  0.75,
		CategoryEpsilon:    0.01,
		MinSamples:         5,
		StableSamples:      20,
		HistoryCapacity:    prefstore.DefaultHistoryCapacity,
		TrendDeadBand:      0.05,
	}
}

// Validate checks the config for internal consistency.
func (c Config) Validate() error {
	if c.LearningRate <= 0 || c.LearningRate >= 1 {
		return ErrBadLearningRate
	}
	d := c.DefaultThresholds()
	if d.Show < 0 || d.Prioritize > 1 || d.Show > d.Accept || d.Accept > d.Prioritize {
		return ErrBadThresholds
	}
	if c.MinSamples <= 0 || c.MinSamples > c.StableSamples {
		return ErrBadSampleGates
	}
	return nil
}

// DefaultThresholds returns the cold-key starting thresholds.
func (c Config) DefaultThresholds() prefstore.ConfidenceThresholds {
	return prefstore.ConfidenceThresholds{
		Show:       c.DefaultShow,
		Accept:     c.DefaultAccept,
		Prioritize: c.DefaultPrioritize,
	}
}

// NewState is the default-state factory handed to the preference store.
func (c Config) NewState() *prefstore.State {
	return prefstore.NewState(c.DefaultThresholds(), c.HistoryCapacity)
}
