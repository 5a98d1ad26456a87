package utils

import "testing"

func TestNormalizeUSPhone(t *testing.T) {
	cases := map[string]string{
		"313-555-0199":     "3135550199",
		"(313) 555.0199":   "3135550199",
		"+1 313 555 0199":  "3135550199",
		"13135550199":      "3135550199",
		"555-0199":         "",
		"":                 "",
		"+44 20 7946 0958": "",
	}
	for in, want := range cases {
		if got := NormalizeUSPhone(in); got != want {
			t.Errorf("NormalizeUSPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestE164(t *testing.T) {
	if got := E164("313-555-0199"); got != "+13135550199" {
		t.Fatalf("expected +13135550199, got %s", got)
	}
	if got := E164("+44 20 7946 0958"); got != "+442079460958" {
		t.Fatalf("expected international passthrough, got %s", got)
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("+13135550199"); got != "*******0199" {
		t.Fatalf("unexpected mask %s", got)
	}
}
