// Package telephony renders voice and messaging responses as TwiML.
package telephony

import (
	"encoding/xml"
	"net/url"
	"strings"
)

const (
	defaultVoice    = "Polly.Joanna"
	defaultLanguage = "en-US"
	gatherTimeout   = 5
	noInputMessage  = "I didn't hear anything."
)

type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Timeout       int      `xml:"timeout,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Language      string   `xml:"language,attr,omitempty"`
	Say           *Say
}

type Dial struct {
	XMLName    xml.Name    `xml:"Dial"`
	Timeout    int         `xml:"timeout,attr,omitempty"`
	Number     string      `xml:"Number,omitempty"`
	Conference *Conference `xml:"Conference,omitempty"`
}

type Conference struct {
	StartOnEnter bool   `xml:"startConferenceOnEnter,attr"`
	EndOnExit    bool   `xml:"endConferenceOnExit,attr"`
	Name         string `xml:",chardata"`
}

type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type Message struct {
	XMLName xml.Name `xml:"Message"`
	Body    string   `xml:",chardata"`
}

// Builder assembles TwiML documents for one deployment.
type Builder struct {
	// GatherURL is where Twilio posts speech results.
	GatherURL     string
	Voice         string
	UseConference bool
}

func NewBuilder(baseURL string, useConference bool) *Builder {
	return &Builder{
		GatherURL:     strings.TrimRight(baseURL, "/") + "/webhooks/twilio/gather",
		Voice:         defaultVoice,
		UseConference: useConference,
	}
}

func (b *Builder) say(text string) *Say {
	return &Say{Voice: b.Voice, Language: defaultLanguage, Text: text}
}

// Ask speaks the message inside a speech Gather that posts back with the
// state token. If the caller says nothing they hear a short notice and the
// call is redirected to the same action.
func (b *Builder) Ask(message, stateToken string) Response {
	action := b.actionURL(stateToken)
	return Response{Verbs: []any{
		Gather{
			Input:         "speech",
			Action:        action,
			Method:        "POST",
			Timeout:       gatherTimeout,
			SpeechTimeout: "auto",
			Language:      defaultLanguage,
			Say:           b.say(message),
		},
		*b.say(noInputMessage),
		Redirect{Method: "POST", URL: action},
	}}
}

// Connect speaks the message and bridges the caller to number. With
// conferencing on the caller joins a room named after the call instead.
func (b *Builder) Connect(message, number, callID string) Response {
	dial := Dial{Timeout: 30}
	if b.UseConference {
		dial.Conference = &Conference{StartOnEnter: true, EndOnExit: true, Name: "emergency-" + callID}
	} else {
		dial.Number = number
	}
	verbs := []any{*b.say(message)}
	if number == "" && !b.UseConference {
		return Response{Verbs: append(verbs, Hangup{})}
	}
	return Response{Verbs: append(verbs, dial, *b.say("We were unable to connect your call. Please call back or dial 9 1 1 if this is a medical emergency."), Hangup{})}
}

// Goodbye speaks the message and ends the call.
func (b *Builder) Goodbye(message string) Response {
	return Response{Verbs: []any{*b.say(message), Hangup{}}}
}

// Reply answers an inbound SMS.
func Reply(body string) Response {
	return Response{Verbs: []any{Message{Body: body}}}
}

func (b *Builder) actionURL(stateToken string) string {
	if stateToken == "" {
		return b.GatherURL
	}
	u, err := url.Parse(b.GatherURL)
	if err != nil {
		return b.GatherURL
	}
	q := u.Query()
	q.Set("state", stateToken)
	u.RawQuery = q.Encode()
	return u.String()
}

// Render serializes r with the XML declaration Twilio expects.
func Render(r Response) ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
