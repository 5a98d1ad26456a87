package extract

import (
	"regexp"
	"strings"

	"github.com/nightdesk/backend/internal/models"
	"github.com/nightdesk/backend/internal/utils"
)

// Patterns are tried in order and the first match wins. Only the first one
// accepts lowercase names; the others need a capitalised word so phrases like
// "this is an emergency" are not read as names.
var namePatterns = []struct {
	re        *regexp.Regexp
	titleCase bool
}{
	{regexp.MustCompile(`(?i)\bmy name is\s+([a-z][a-z'\-]*(?:\s+[a-z][a-z'\-]*){0,2})`), true},
	{regexp.MustCompile(`\b(?i:this is)\s+([A-Z][a-z'\-]+(?:\s+[A-Z][a-z'\-]+){0,2})`), false},
	{regexp.MustCompile(`\b(?i:i'm|i am|it's)\s+([A-Z][a-z'\-]+(?:\s+[A-Z][a-z'\-]+){0,2})`), false},
}

var bareName = regexp.MustCompile(`^[A-Z][a-z'\-]+(?:\s+[A-Z][a-z'\-]+){0,2}$`)

var phonePattern = regexp.MustCompile(`(?:^|[^\d])((?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4})(?:$|[^\d])`)

var callbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcall\s+(?:me\s+)?back\s+((?:at|around|after|before|by|on|tomorrow)\b[^.,;!?]*)`),
	regexp.MustCompile(`(?i)\b(morning|afternoon|evening|tonight)\b`),
}

// Words that end a name capture or rule out a bare-word name.
var stopWords = map[string]bool{
	"and": true, "but": true, "my": true, "calling": true, "here": true, "from": true,
	"i": true, "im": true, "i'm": true, "with": true, "about": true, "the": true, "a": true,
	"yes": true, "no": true, "yeah": true, "hello": true, "hi": true, "hey": true, "okay": true,
	"ok": true, "sure": true, "thanks": true, "thank": true, "please": true, "help": true,
	"emergency": true, "urgent": true, "sorry": true, "um": true, "uh": true, "well": true,
	"so": true, "having": true, "in": true, "at": true, "it": true, "is": true,
	"tooth": true, "pain": true, "good": true, "morning": true, "evening": true, "afternoon": true,
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

func Extract(utterance string) models.ExtractedInfo {
	return models.ExtractedInfo{
		Name:                  Name(utterance),
		Phone:                 Phone(utterance),
		Description:           utterance,
		PreferredCallbackTime: CallbackTime(utterance),
	}
}

func Name(utterance string) *string {
	text := apostrophes.Replace(utterance)
	for _, p := range namePatterns {
		m := p.re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		name := trimStopWords(m[1])
		if name == "" {
			continue
		}
		if p.titleCase {
			name = titleCase(name)
		}
		return &name
	}

	bare := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), ".,!?;:"))
	if bareName.MatchString(bare) {
		words := strings.Fields(bare)
		for _, w := range words {
			if stopWords[strings.ToLower(w)] {
				return nil
			}
		}
		name := strings.Join(words, " ")
		return &name
	}
	return nil
}

// Phone returns the first North American number found, as 10 digits.
func Phone(utterance string) *string {
	for _, m := range phonePattern.FindAllStringSubmatch(utterance, -1) {
		if d := utils.NormalizeUSPhone(m[1]); d != "" {
			return &d
		}
	}
	return nil
}

func CallbackTime(utterance string) *string {
	for _, re := range callbackPatterns {
		m := re.FindStringSubmatch(utterance)
		if len(m) < 2 {
			continue
		}
		v := strings.TrimSpace(m[1])
		if v == "" {
			continue
		}
		v = strings.ToLower(v)
		return &v
	}
	return nil
}

func trimStopWords(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 && stopWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
