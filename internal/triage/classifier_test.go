package triage

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nightdesk/backend/internal/models"
)

func TestClassifyScenarios(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		name          string
		utterance     string
		wantType      models.UrgencyTier
		minConfidence int
		maxConfidence int
	}{
		{"severe pain and bleeding", "I have severe pain and bleeding, please help right now", models.TierEmergency, 80, 100},
		{"routine cleaning", "I'd like to schedule a routine cleaning", models.TierNonEmergency, 0, 0},
		{"no recognisable signal", "my tooth hurts a little", models.TierUncertain, 0, 0},
		{"trauma alone is borderline", "my tooth was knocked out", models.TierUncertain, 30, 30},
		{"score threshold without explicit words", "severe pain and swelling", models.TierEmergency, 55, 55},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.utterance)
			if got.Type != tt.wantType {
				t.Fatalf("expected %s, got %s (reasons %v)", tt.wantType, got.Type, got.Reasons)
			}
			if got.Confidence < tt.minConfidence || got.Confidence > tt.maxConfidence {
				t.Fatalf("confidence %d outside [%d,%d]", got.Confidence, tt.minConfidence, tt.maxConfidence)
			}
		})
	}
}

func TestClassifyReasonOrder(t *testing.T) {
	c := NewDefaultClassifier()
	got := c.Classify("I have severe pain and bleeding, please help right now")

	wantKeys := []string{CategoryExplicit, CategorySeverePain, CategoryBleeding, CategoryDistress}
	if len(got.Reasons) != len(wantKeys) {
		t.Fatalf("expected %d reasons, got %v", len(wantKeys), got.Reasons)
	}
	labels := map[string]string{}
	for _, cat := range DefaultLexicon().Categories {
		labels[cat.Key] = cat.Label
	}
	for i, key := range wantKeys {
		if !strings.HasPrefix(got.Reasons[i], labels[key]) {
			t.Fatalf("reason %d: expected %q first, got %q", i, labels[key], got.Reasons[i])
		}
	}
	if got.EmotionalTone != ToneDistressed {
		t.Fatalf("expected distressed tone, got %q", got.EmotionalTone)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	c := NewDefaultClassifier()
	for _, in := range []string{"", "   ", "\n\t"} {
		got := c.Classify(in)
		if got.Type != models.TierNonEmergency || got.Confidence != 0 {
			t.Fatalf("input %q: expected non_emergency/0, got %s/%d", in, got.Type, got.Confidence)
		}
		if len(got.Reasons) != 0 {
			t.Fatalf("input %q: expected no reasons, got %v", in, got.Reasons)
		}
		if got.EmotionalTone != ToneCalm {
			t.Fatalf("input %q: expected calm tone, got %q", in, got.EmotionalTone)
		}
	}
}

func TestClassifyExplicitShortCircuit(t *testing.T) {
	c := NewDefaultClassifier()
	got := c.Classify("This is an emergency, I need to reschedule my appointment and ask about billing and insurance")
	if got.Type != models.TierEmergency {
		t.Fatalf("explicit phrase must win, got %s (%v)", got.Type, got.Reasons)
	}
	if got.Confidence != 10 {
		t.Fatalf("expected confidence 10 (50 - 4*10), got %d", got.Confidence)
	}

	// Non-emergency phrases that contain an explicit word never hide it.
	for _, in := range []string{
		"it's not urgent but there is bleeding",
		"I have a non-emergency question but my face is swollen",
		"this is not an emergency, I think",
		"non emergency",
	} {
		got := c.Classify(in)
		if got.Type != models.TierEmergency {
			t.Errorf("Classify(%q) = %s (%v), want emergency", in, got.Type, got.Reasons)
		}
		if _, ok := got.KeywordHits[CategoryExplicit]; !ok {
			t.Errorf("Classify(%q): expected explicit hit, got %v", in, got.KeywordHits)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := NewDefaultClassifier()
	lower := c.Classify("severe pain and swelling")
	upper := c.Classify("SEVERE PAIN AND SWELLING")
	if !reflect.DeepEqual(lower, upper) {
		t.Fatalf("case changed result: %+v vs %+v", lower, upper)
	}
}

func TestClassifyPhraseOverlap(t *testing.T) {
	c := NewDefaultClassifier()

	got := c.Classify("severe pain")
	if len(got.KeywordHits) != 1 || !reflect.DeepEqual(got.KeywordHits[CategorySeverePain], []string{"severe pain"}) {
		t.Fatalf("expected only severe_pain hit, got %v", got.KeywordHits)
	}

	got = c.Classify("it's not an emergency, just a routine cleaning")
	if !reflect.DeepEqual(got.KeywordHits[CategoryNonEmergency], []string{"not an emergency", "routine", "cleaning"}) {
		t.Fatalf("unexpected non-emergency hits %v", got.KeywordHits)
	}
	if !reflect.DeepEqual(got.KeywordHits[CategoryExplicit], []string{"emergency"}) {
		t.Fatalf("expected explicit hit alongside the negation, got %v", got.KeywordHits)
	}
	if got.Type != models.TierEmergency || got.Confidence != 20 {
		t.Fatalf("expected emergency/20, got %s/%d", got.Type, got.Confidence)
	}

	got = c.Classify("please help")
	if !reflect.DeepEqual(got.KeywordHits[CategoryDistress], []string{"please help"}) {
		t.Fatalf("expected single distress hit, got %v", got.KeywordHits)
	}
}

func TestClassifyCountsDistinctPhrasesOnce(t *testing.T) {
	c := NewDefaultClassifier()
	got := c.Classify("bleeding, bleeding, still bleeding")
	if got.Confidence != 25 {
		t.Fatalf("expected 25, got %d", got.Confidence)
	}
}

func TestClassifySubstrings(t *testing.T) {
	c := NewDefaultClassifier()
	got := c.Classify("I want to reschedule")
	if phrases := got.KeywordHits[CategoryNonEmergency]; len(phrases) != 1 || phrases[0] != "reschedule" {
		t.Fatalf("schedule must not be counted again inside reschedule: %v", phrases)
	}

	got = c.Classify("the infections came back and it's abscessed")
	if !reflect.DeepEqual(got.KeywordHits[CategoryInfection], []string{"infection", "abscess"}) {
		t.Fatalf("expected infection hits inside longer words, got %v", got.KeywordHits)
	}

	got = c.Classify("severe\n  pain")
	if !reflect.DeepEqual(got.KeywordHits[CategorySeverePain], []string{"severe pain"}) {
		t.Fatalf("expected whitespace-tolerant match, got %v", got.KeywordHits)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewDefaultClassifier()
	in := "my face is swollen and there's pus, I'm scared"
	first := c.Classify(in)
	for i := 0; i < 20; i++ {
		if got := c.Classify(in); !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, got)
		}
	}
}

func TestToneOrder(t *testing.T) {
	d := NewToneDetector(DefaultLexicon().Tone)
	tests := map[string]string{
		"I'm crying, it hurts so much": ToneDistressed,
		"it hurts when I chew":         TonePain,
		"I'm a bit worried about it":   ToneConcerned,
		"I'd like a cleaning":          ToneCalm,
		"I can’t take it anymore":      ToneDistressed,
	}
	for in, want := range tests {
		if got := d.Tone(in); got != want {
			t.Errorf("Tone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `version: test-1
emergency_threshold: 30
uncertain_threshold: 10
categories:
  - key: explicit
    label: code words
    weight: 50
    short_circuit: true
    phrases: ["code red"]
  - key: pain
    label: pain
    weight: 15
    phrases: ["toothache"]
tone:
  pain: ["toothache"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("load lexicon: %v", err)
	}
	if lex.Version != "test-1" || len(lex.Categories) != 2 {
		t.Fatalf("unexpected lexicon %+v", lex)
	}
	c, err := NewClassifier(lex)
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	if got := c.Classify("Code Red!"); got.Type != models.TierEmergency {
		t.Fatalf("expected emergency, got %s", got.Type)
	}
	if got := c.Classify("toothache"); got.Type != models.TierUncertain || got.EmotionalTone != TonePain {
		t.Fatalf("expected uncertain with pain tone, got %s / %s", got.Type, got.EmotionalTone)
	}
}

func TestLexiconValidate(t *testing.T) {
	lex := DefaultLexicon()
	lex.EmergencyThreshold = 10
	if err := lex.Validate(); err == nil {
		t.Fatalf("expected threshold error")
	}
	if _, err := NewClassifier(Lexicon{EmergencyThreshold: 40, UncertainThreshold: 20}); err == nil {
		t.Fatalf("expected error for empty lexicon")
	}
}
