package triage

import (
	"regexp"
	"strings"
)

const (
	ToneDistressed = "distressed and anxious"
	TonePain       = "in pain and uncomfortable"
	ToneConcerned  = "worried but composed"
	ToneCalm       = "calm and composed"
)

type ToneDetector struct {
	distress []*regexp.Regexp
	pain     []*regexp.Regexp
	concern  []*regexp.Regexp
}

func NewToneDetector(words ToneWords) *ToneDetector {
	return &ToneDetector{
		distress: compileAll(words.Distress),
		pain:     compileAll(words.Pain),
		concern:  compileAll(words.Concern),
	}
}

// Tone labels the caller's emotional state. Distress wins over pain, pain
// over concern.
func (d *ToneDetector) Tone(utterance string) string {
	text := normalize(utterance)
	switch {
	case strings.TrimSpace(text) == "":
		return ToneCalm
	case anyMatch(d.distress, text):
		return ToneDistressed
	case anyMatch(d.pain, text):
		return TonePain
	case anyMatch(d.concern, text):
		return ToneConcerned
	}
	return ToneCalm
}

func compileAll(phrases []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, phrasePattern(p))
	}
	return out
}

func anyMatch(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
