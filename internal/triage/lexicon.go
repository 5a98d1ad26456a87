package triage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	CategoryExplicit     = "explicit"
	CategorySeverePain   = "severe_pain"
	CategoryBleeding     = "bleeding"
	CategorySwelling     = "swelling"
	CategoryInfection    = "infection"
	CategoryTrauma       = "trauma"
	CategoryPostOp       = "post_op"
	CategoryDistress     = "distress"
	CategoryNonEmergency = "non_emergency"
)

// Category is one scored keyword group. Categories are evaluated, and their
// reasons reported, in the order they appear in Lexicon.Categories.
type Category struct {
	Key          string   `mapstructure:"key" json:"key"`
	Label        string   `mapstructure:"label" json:"label"`
	Weight       int      `mapstructure:"weight" json:"weight"`
	ShortCircuit bool     `mapstructure:"short_circuit" json:"short_circuit"`
	Phrases      []string `mapstructure:"phrases" json:"phrases"`
}

type ToneWords struct {
	Distress []string `mapstructure:"distress" json:"distress"`
	Pain     []string `mapstructure:"pain" json:"pain"`
	Concern  []string `mapstructure:"concern" json:"concern"`
}

type Lexicon struct {
	Version            string     `mapstructure:"version" json:"version"`
	EmergencyThreshold int        `mapstructure:"emergency_threshold" json:"emergency_threshold"`
	UncertainThreshold int        `mapstructure:"uncertain_threshold" json:"uncertain_threshold"`
	Categories         []Category `mapstructure:"categories" json:"categories"`
	Tone               ToneWords  `mapstructure:"tone" json:"tone"`
}

func DefaultLexicon() Lexicon {
	return Lexicon{
		Version:            "dental-2024.1",
		EmergencyThreshold: 40,
		UncertainThreshold: 20,
		Categories: []Category{
			{
				Key:          CategoryExplicit,
				Label:        "explicit emergency language",
				Weight:       50,
				ShortCircuit: true,
				Phrases: []string{
					"emergency", "urgent", "urgently", "right now", "immediately", "asap",
					"as soon as possible", "911", "can't wait",
				},
			},
			{
				Key:    CategorySeverePain,
				Label:  "severe pain",
				Weight: 30,
				Phrases: []string{
					"severe pain", "extreme pain", "unbearable pain", "unbearable", "excruciating",
					"worst pain", "intense pain", "terrible pain", "throbbing pain", "killing me",
				},
			},
			{
				Key:    CategoryBleeding,
				Label:  "bleeding",
				Weight: 25,
				Phrases: []string{
					"bleeding", "won't stop bleeding", "blood", "bloody", "hemorrhaging",
				},
			},
			{
				Key:    CategorySwelling,
				Label:  "swelling",
				Weight: 25,
				Phrases: []string{
					"swelling", "swollen", "face is swollen", "jaw is swollen", "puffy",
				},
			},
			{
				Key:    CategoryInfection,
				Label:  "possible infection",
				Weight: 25,
				Phrases: []string{
					"infection", "infected", "abscess", "pus", "fever", "foul taste",
				},
			},
			{
				Key:    CategoryTrauma,
				Label:  "dental trauma",
				Weight: 30,
				Phrases: []string{
					"knocked out", "knocked loose", "broken tooth", "broke my tooth", "cracked tooth",
					"chipped tooth", "accident", "injury", "injured", "hit in the mouth",
				},
			},
			{
				Key:    CategoryPostOp,
				Label:  "post-operative complication",
				Weight: 20,
				Phrases: []string{
					"after surgery", "after my surgery", "post-op", "post op", "dry socket",
					"stitches", "extraction site", "after my extraction", "after the extraction",
					"after the procedure",
				},
			},
			{
				Key:    CategoryDistress,
				Label:  "emotional distress",
				Weight: 15,
				Phrases: []string{
					"crying", "panic", "panicking", "can't take it", "can't take this", "scared",
					"terrified", "desperate", "please help", "help me", "help",
				},
			},
			{
				Key:    CategoryNonEmergency,
				Label:  "non-emergency indicators",
				Weight: -10,
				Phrases: []string{
					"appointment", "billing", "bill", "routine", "mild", "schedule", "reschedule",
					"cleaning", "checkup", "check-up", "insurance", "no rush", "not urgent",
					"not an emergency", "non-emergency", "non emergency",
				},
			},
		},
		Tone: ToneWords{
			Distress: []string{
				"crying", "panic", "panicking", "can't take it", "scared", "terrified",
				"desperate", "freaking out", "please help", "help me",
			},
			Pain: []string{
				"pain", "painful", "hurt", "hurts", "hurting", "ache", "aching", "sore",
				"throbbing", "excruciating",
			},
			Concern: []string{
				"worried", "concerned", "nervous", "afraid", "anxious", "not sure", "unsure",
			},
		},
	}
}

// LoadLexicon reads a lexicon override from a YAML or JSON file. The file
// type is taken from its extension.
func LoadLexicon(path string) (Lexicon, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	var lex Lexicon
	if err := v.Unmarshal(&lex); err != nil {
		return Lexicon{}, fmt.Errorf("decode lexicon %s: %w", path, err)
	}
	if err := lex.Validate(); err != nil {
		return Lexicon{}, err
	}
	return lex, nil
}

func (l Lexicon) Validate() error {
	if len(l.Categories) == 0 {
		return errors.New("lexicon has no categories")
	}
	if l.EmergencyThreshold <= l.UncertainThreshold {
		return fmt.Errorf("emergency threshold %d must exceed uncertain threshold %d", l.EmergencyThreshold, l.UncertainThreshold)
	}
	seen := map[string]bool{}
	for _, c := range l.Categories {
		if c.Key == "" {
			return errors.New("lexicon category without key")
		}
		if seen[c.Key] {
			return fmt.Errorf("duplicate lexicon category %q", c.Key)
		}
		seen[c.Key] = true
		for _, p := range c.Phrases {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("empty phrase in category %q", c.Key)
			}
		}
	}
	return nil
}
