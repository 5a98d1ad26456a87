package extract

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my name is john smith and I need help", "John Smith"},
		{"My name is Maria.", "Maria"},
		{"Hi, this is Sarah Connor calling about my tooth", "Sarah Connor"},
		{"I'm Mike", "Mike"},
		{"I’m Ana Lopez", "Ana Lopez"},
		{"John Smith", "John Smith"},
		{"John Smith.", "John Smith"},
	}
	for _, tt := range tests {
		got := Name(tt.in)
		if got == nil || *got != tt.want {
			t.Errorf("Name(%q) = %v, want %q", tt.in, deref(got), tt.want)
		}
	}
}

func TestNameAbsent(t *testing.T) {
	for _, in := range []string{
		"",
		"this is an emergency",
		"I'm having severe pain",
		"Yes",
		"Hello There",
		"my tooth is broken and it really hurts a lot",
	} {
		if got := Name(in); got != nil {
			t.Errorf("Name(%q) = %q, want nil", in, *got)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := map[string]string{
		"313-555-0199":                       "3135550199",
		"you can reach me at (313) 555-0199": "3135550199",
		"+1 313 555 0199 is my cell":         "3135550199",
		"my number is 313.555.0199, thanks":  "3135550199",
	}
	for in, want := range tests {
		got := Phone(in)
		if got == nil || *got != want {
			t.Errorf("Phone(%q) = %v, want %q", in, deref(got), want)
		}
	}
	for _, in := range []string{"", "extension 5550", "order 12345678901234"} {
		if got := Phone(in); got != nil {
			t.Errorf("Phone(%q) = %q, want nil", in, *got)
		}
	}
}

func TestCallbackTime(t *testing.T) {
	tests := map[string]string{
		"please call me back at 9 tomorrow. thanks": "at 9 tomorrow",
		"Call back after lunch":                     "after lunch",
		"anytime in the Morning works":              "morning",
		"tonight is fine":                           "tonight",
	}
	for in, want := range tests {
		got := CallbackTime(in)
		if got == nil || *got != want {
			t.Errorf("CallbackTime(%q) = %v, want %q", in, deref(got), want)
		}
	}
	if got := CallbackTime("whenever"); got != nil {
		t.Errorf("expected nil, got %q", *got)
	}
}

func TestExtractKeepsDescriptionRaw(t *testing.T) {
	in := "  my name is Ana, call me at 313-555-0199 this evening "
	info := Extract(in)
	if info.Description != in {
		t.Fatalf("description must be the raw utterance, got %q", info.Description)
	}
	if deref(info.Name) != "Ana" || deref(info.Phone) != "3135550199" || deref(info.PreferredCallbackTime) != "evening" {
		t.Fatalf("unexpected extraction %+v", info)
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
