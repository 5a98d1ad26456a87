package notify

import (
	"bytes"
	"html/template"
	"time"

	"github.com/nightdesk/backend/internal/models"
)

var caseEmailTemplate = template.Must(template.New("case").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2 style="color: {{if .Emergency}}#b00020{{else}}#1a5fb4{{end}};">{{.Heading}}</h2>
  <p>{{.Practice}} received an after-hours call at {{.When}}.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Patient</strong></td><td>{{.Case.PatientName}}</td></tr>
    <tr><td><strong>Callback number</strong></td><td>{{.Case.CallerPhone}}</td></tr>
    <tr><td><strong>Classification</strong></td><td>{{.Case.Classification}} ({{.Case.Confidence}}% confidence)</td></tr>
    <tr><td><strong>Caller tone</strong></td><td>{{.Case.EmotionalTone}}</td></tr>
    <tr><td><strong>Action taken</strong></td><td>{{.Case.ActionTaken}}</td></tr>
    <tr><td><strong>Call ID</strong></td><td>{{.Case.CallID}}</td></tr>
  </table>
  <h3>What the caller said</h3>
  <blockquote style="border-left: 3px solid #ccc; padding-left: 10px;">{{.Case.Description}}</blockquote>
</body>
</html>
`))

type caseEmailData struct {
	Heading   string
	Practice  string
	When      string
	Emergency bool
	Case      models.CaseSummary
}

func renderCaseEmail(practice string, c models.CaseSummary, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	heading := "After-hours message"
	if c.Classification == models.TierEmergency {
		heading = "Emergency after-hours call"
	}
	var buf bytes.Buffer
	err := caseEmailTemplate.Execute(&buf, caseEmailData{
		Heading:   heading,
		Practice:  practice,
		When:      c.Timestamp.In(loc).Format("Mon Jan 2 3:04 PM MST"),
		Emergency: c.Classification == models.TierEmergency,
		Case:      c,
	})
	return buf.String(), err
}
