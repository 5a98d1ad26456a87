package triage

import (
	"regexp"
	"sort"
	"strings"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

func normalize(s string) string {
	return apostrophes.Replace(strings.ToLower(s))
}

// phrasePattern matches a lexicon phrase anywhere in the text, tolerating any
// run of whitespace between its words.
func phrasePattern(phrase string) *regexp.Regexp {
	words := strings.Fields(normalize(phrase))
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(strings.Join(words, `\s+`))
}

type phraseMatcher struct {
	category int
	phrase   string
	re       *regexp.Regexp
}

type hit struct {
	category int
	phrase   string
	start    int
}

// buildMatchers orders phrases longest first so that a span claimed by a
// longer phrase is never counted again by a fragment of it. Only categories
// for which keep returns true are included.
func buildMatchers(categories []Category, keep func(Category) bool) []phraseMatcher {
	var out []phraseMatcher
	for ci, c := range categories {
		if !keep(c) {
			continue
		}
		for _, p := range c.Phrases {
			if strings.TrimSpace(p) == "" {
				continue
			}
			out = append(out, phraseMatcher{category: ci, phrase: normalize(strings.TrimSpace(p)), re: phrasePattern(p)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].phrase) != len(out[j].phrase) {
			return len(out[i].phrase) > len(out[j].phrase)
		}
		return out[i].category < out[j].category
	})
	return out
}

// scan returns one hit per distinct phrase, ordered by where the phrase first
// appears in text.
func scan(matchers []phraseMatcher, text string) []hit {
	claimed := make([]bool, len(text))
	seen := map[string]bool{}
	var hits []hit
	for _, m := range matchers {
		for _, loc := range m.re.FindAllStringIndex(text, -1) {
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				claimed[i] = true
			}
			key := m.phrase
			if seen[key] {
				continue
			}
			seen[key] = true
			hits = append(hits, hit{category: m.category, phrase: m.phrase, start: loc[0]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	return hits
}

func overlaps(claimed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}
