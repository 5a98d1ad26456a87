package telephony

import (
	"strings"
	"testing"
)

func render(t *testing.T, r Response) string {
	t.Helper()
	b, err := Render(r)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(b)
}

func TestAskCarriesStateToken(t *testing.T) {
	b := NewBuilder("https://desk.example.com/", false)
	out := render(t, b.Ask("Can you please tell me your name?", "abc-123"))

	if !strings.HasPrefix(out, "<?xml") {
		t.Fatalf("missing xml header: %s", out)
	}
	for _, want := range []string{
		`<Gather input="speech" action="https://desk.example.com/webhooks/twilio/gather?state=abc-123" method="POST"`,
		`<Say voice="Polly.Joanna" language="en-US">Can you please tell me your name?</Say>`,
		`<Redirect method="POST">https://desk.example.com/webhooks/twilio/gather?state=abc-123</Redirect>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}

func TestAskWithoutToken(t *testing.T) {
	b := NewBuilder("https://desk.example.com", false)
	out := render(t, b.Ask("Hello", ""))
	if !strings.Contains(out, `action="https://desk.example.com/webhooks/twilio/gather"`) {
		t.Fatalf("unexpected action: %s", out)
	}
}

func TestConnectDialsNumber(t *testing.T) {
	b := NewBuilder("https://desk.example.com", false)
	out := render(t, b.Connect("Please stay on the line.", "+13135550100", "CA1"))
	if !strings.Contains(out, "<Dial timeout=\"30\"><Number>+13135550100</Number></Dial>") {
		t.Fatalf("expected dial to number: %s", out)
	}
	if !strings.HasSuffix(out, "<Hangup></Hangup></Response>") {
		t.Fatalf("expected hangup last: %s", out)
	}
}

func TestConnectUsesConference(t *testing.T) {
	b := NewBuilder("https://desk.example.com", true)
	out := render(t, b.Connect("Please stay on the line.", "+13135550100", "CA1"))
	if !strings.Contains(out, `<Conference startConferenceOnEnter="true" endConferenceOnExit="true">emergency-CA1</Conference>`) {
		t.Fatalf("expected conference: %s", out)
	}
	if strings.Contains(out, "<Number>") {
		t.Fatalf("conference mode should not dial a number: %s", out)
	}
}

func TestConnectWithoutNumberHangsUp(t *testing.T) {
	b := NewBuilder("https://desk.example.com", false)
	out := render(t, b.Connect("Goodbye.", "", "CA1"))
	if strings.Contains(out, "<Dial") {
		t.Fatalf("unexpected dial: %s", out)
	}
}

func TestTextIsEscaped(t *testing.T) {
	out := render(t, Reply("Tom & Jerry <3"))
	if !strings.Contains(out, "<Message>Tom &amp; Jerry &lt;3</Message>") {
		t.Fatalf("expected escaped body: %s", out)
	}
}
