package triage

import (
	"fmt"
	"strings"

	"github.com/nightdesk/backend/internal/models"
)

// Classifier scores caller utterances against a Lexicon. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	lex Lexicon
	// explicit holds short-circuit phrases. They are scanned on their own so
	// that no other phrase, such as "not urgent", can claim their span.
	explicit []phraseMatcher
	matchers []phraseMatcher
	tone     *ToneDetector
}

func NewClassifier(lex Lexicon) (*Classifier, error) {
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{
		lex:      lex,
		explicit: buildMatchers(lex.Categories, func(c Category) bool { return c.ShortCircuit }),
		matchers: buildMatchers(lex.Categories, func(c Category) bool { return !c.ShortCircuit }),
		tone:     NewToneDetector(lex.Tone),
	}, nil
}

func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultLexicon())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Classifier) Lexicon() Lexicon {
	return c.lex
}

func (c *Classifier) Tone(utterance string) string {
	return c.tone.Tone(utterance)
}

func (c *Classifier) Classify(utterance string) models.UtteranceClassification {
	res := models.UtteranceClassification{
		Type:          models.TierNonEmergency,
		Reasons:       []string{},
		KeywordHits:   map[string][]string{},
		EmotionalTone: c.tone.Tone(utterance),
	}
	if strings.TrimSpace(utterance) == "" {
		return res
	}

	text := normalize(utterance)
	hits := append(scan(c.explicit, text), scan(c.matchers, text)...)
	perCategory := make([][]string, len(c.lex.Categories))
	for _, h := range hits {
		perCategory[h.category] = append(perCategory[h.category], h.phrase)
	}

	score := 0
	explicit := false
	for i, cat := range c.lex.Categories {
		phrases := perCategory[i]
		if len(phrases) == 0 {
			continue
		}
		delta := cat.Weight * len(phrases)
		score += delta
		if cat.ShortCircuit {
			explicit = true
		}
		res.KeywordHits[cat.Key] = phrases
		res.Reasons = append(res.Reasons, fmt.Sprintf("%s (%+d): %s", cat.Label, delta, strings.Join(phrases, ", ")))
	}

	switch {
	case explicit || score >= c.lex.EmergencyThreshold:
		res.Type = models.TierEmergency
	case score >= c.lex.UncertainThreshold || len(res.Reasons) == 0:
		// Nothing recognisable is treated as ambiguous rather than safe.
		res.Type = models.TierUncertain
	default:
		res.Type = models.TierNonEmergency
	}
	res.Confidence = clamp(score, 0, 100)
	return res
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
