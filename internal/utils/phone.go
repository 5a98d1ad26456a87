package utils

import "strings"

func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeUSPhone reduces a North American number to its 10 digits.
// It returns "" when the input does not hold a 10 or 11 digit number.
func NormalizeUSPhone(s string) string {
	d := DigitsOnly(s)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return ""
	}
	return d
}

// E164 formats a phone for provider APIs. Numbers that already carry a
// country code other than +1 are passed through.
func E164(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "+") && !strings.HasPrefix(trimmed, "+1") {
		return "+" + DigitsOnly(trimmed)
	}
	if d := NormalizeUSPhone(trimmed); d != "" {
		return "+1" + d
	}
	return trimmed
}

// MaskPhone keeps the last four digits for logs.
func MaskPhone(s string) string {
	d := DigitsOnly(s)
	if len(d) <= 4 {
		return d
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}
