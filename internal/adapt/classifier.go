package adapt

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/prefd/internal/prefstore"
)

// StyleSignal is what a classifier infers from a user's edited content.
// Empty Tone/Detail fields mean the classifier saw no signal for that
// dimension and the corresponding nudge is skipped.
type StyleSignal struct {
	// Tone is one of the prefstore tone categories, or empty.
	Tone string

	// Detail is one of the prefstore detail categories, or empty.
	Detail string

	// Stronger indicates the edit pushed toward a more assertive phrasing.
	Stronger bool
}

// StyleClassifier infers style signals from edited recommendation text.
// The engine treats the classifier as an opaque collaborator; deployments
// may inject an LLM-backed implementation.
type StyleClassifier interface {
	Classify(edited string) StyleSignal
}

// toneRule pairs a compiled regex with the tone it detects. Rules are
// evaluated in order; the first match wins.
type toneRule struct {
	regex *regexp.Regexp
	tone  string
}

// KeywordStyleClassifier is the built-in classifier: ordered regex rules
// for tone, word-count bands for detail level. Thread-safe; all patterns
// compile at construction.
type KeywordStyleClassifier struct {
	toneRules []toneRule
	stronger  *regexp.Regexp

	// briefMax and detailedMin are the word-count band edges.
	briefMax    int
	detailedMin int
}

// NewKeywordStyleClassifier creates a classifier with built-in rules.
func NewKeywordStyleClassifier() *KeywordStyleClassifier {
	return &KeywordStyleClassifier{
		toneRules: []toneRule{
			// Urgent first -- urgency markers overlap with casual phrasing.
			{
				regex: regexp.MustCompile(`(?i)\b(?:urgent|asap|immediately|right\s+away|now|critical|deadline)\b|!{2,}`),
				tone:  prefstore.ToneUrgent,
			},
			{
				regex: regexp.MustCompile(`(?i)\b(?:please|kindly|regards|sincerely|per\s+our|pursuant|hereby|accordingly)\b`),
				tone:  prefstore.ToneFormal,
			},
			{
				regex: regexp.MustCompile(`(?i)\b(?:hey|hi|thanks!|btw|fyi|gonna|wanna|cool|no\s+worries)\b`),
				tone:  prefstore.ToneCasual,
			},
		},
		stronger:    regexp.MustCompile(`(?i)\b(?:must|need\s+to|required|do\s+not|don't\s+wait|immediately|asap)\b|!`),
		briefMax:    30,
		detailedMin: 120,
	}
}

// Classify infers tone from the first matching rule and detail level from
// word count. Empty input yields an empty signal.
func (c *KeywordStyleClassifier) Classify(edited string) StyleSignal {
	trimmed := strings.TrimSpace(edited)
	if trimmed == "" {
		return StyleSignal{}
	}

	var sig StyleSignal
	for _, r := range c.toneRules {
		if r.regex.MatchString(trimmed) {
			sig.Tone = r.tone
			break
		}
	}

	words := len(strings.Fields(trimmed))
	switch {
	case words <= c.briefMax:
		sig.Detail = prefstore.DetailBrief
	case words >= c.detailedMin:
		sig.Detail = prefstore.DetailDetailed
	default:
		sig.Detail = prefstore.DetailModerate
	}

	sig.Stronger = c.stronger.MatchString(trimmed)
	return sig
}
