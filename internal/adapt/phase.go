package adapt

// Phase is a key's position in the Cold -> Warming -> Stable lifecycle.
// Transitions happen only as a side effect of folding events; there is no
// terminal phase. The phase drives both fold magnitude and the
// recommendation adapter's fallback behavior, so the sample gates live in
// exactly one place.
type Phase int

const (
	// PhaseCold means too few samples to trust learned parameters. The
	// adapter stays neutral and folds move at full speed.
	PhaseCold Phase = iota

	// PhaseWarming means learned parameters apply but are still settling.
	PhaseWarming

	// PhaseStable means the key has enough history that folds slow down
	// to protect the established pattern.
	PhaseStable
)

// String returns the phase name for traces and logs.
func (p Phase) String() string {
	switch p {
	case PhaseCold:
		return "cold"
	case PhaseWarming:
		return "warming"
	default:
		return "stable"
	}
}

// Gain returns the fold-magnitude multiplier for the phase. Stable keys
// move at half speed so a burst of atypical feedback cannot quickly
// unlearn an established pattern.
func (p Phase) Gain() float64 {
	if p == PhaseStable {
		return 0.5
	}
	return 1.0
}

// PhaseFor maps a sample count to its phase under this config.
func (c Config) PhaseFor(sampleCount int) Phase {
	switch {
	case sampleCount < c.MinSamples:
		return PhaseCold
	case sampleCount < c.StableSamples:
		return PhaseWarming
	default:
		return PhaseStable
	}
}
