package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
)

// Lead fields reach these templates already HTML-escaped; text/template adds no escaping of its own.
var (
	ackTextTmpl   = mustParse("ack_text", ackText)
	ackHTMLTmpl   = mustParse("ack_html", ackHTML)
	alertTextTmpl = mustParse("alert_text", alertText)
	alertHTMLTmpl = mustParse("alert_html", alertHTML)
	alertSMSTmpl  = mustParse("alert_sms", alertSMS)
)

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=error").Parse(text))
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

type ackVariant struct {
	Subject  string
	Headline string
	Promise  string
}

var ackVariants = map[leads.Priority]ackVariant{
	leads.PriorityP1: {
		Subject:  "🚨 URGENT: Emergency Foreclosure Help - Response Within 1 Hour",
		Headline: "We received your emergency request",
		Promise:  "A foreclosure specialist will call you within 1 hour during business hours.",
	},
	leads.PriorityP2: {
		Subject:  "⚠️ Priority Foreclosure Help - Response Within 4 Hours",
		Headline: "Your request has been prioritized",
		Promise:  "A specialist will contact you within 4 hours.",
	},
}

var standardAck = ackVariant{
	Subject:  "Your California Foreclosure Resources are Ready 📋",
	Headline: "Thank you for reaching out",
	Promise:  "We will review your situation and contact you soon.",
}

// AckSubject returns the acknowledgement subject line for a tier.
func AckSubject(p leads.Priority) string {
	return variantFor(p).Subject
}

func variantFor(p leads.Priority) ackVariant {
	if v, ok := ackVariants[p]; ok {
		return v
	}
	return standardAck
}

type ackData struct {
	Greeting       string
	Headline       string
	Promise        string
	ResponseWindow string
	ContactPhone   string
	LeadID         string
}

type alertData struct {
	Lead           leads.Submission
	LeadID         string
	Score          int
	Priority       leads.Priority
	ResponseWindow string
	ReceivedAt     string
}

const ackText = `{{.Greeting}},

{{.Headline}}. {{.Promise}}

Expected response time: {{.ResponseWindow}}.
Need help right now? Call us at {{.ContactPhone}}.

Reference: {{.LeadID}}
`

const ackHTML = `<div style="font-family: sans-serif; max-width: 600px;">
<h2>{{.Headline}}</h2>
<p>{{.Greeting}},</p>
<p>{{.Promise}}</p>
<p><strong>Expected response time:</strong> {{.ResponseWindow}}</p>
<p style="background: #fef3c7; padding: 12px; border-radius: 8px;">Need help right now? Call <a href="tel:{{.ContactPhone}}">{{.ContactPhone}}</a></p>
<p style="color: #6b7280; font-size: 12px;">Reference: {{.LeadID}}</p>
</div>`

const alertText = `{{.Priority}} foreclosure lead (score {{.Score}}). Respond within {{.ResponseWindow}}.

Name: {{.Lead.Name}}
Email: {{.Lead.Email}}
Phone: {{.Lead.Phone}}
Property: {{.Lead.PropertyAddress}}
Urgency: {{.Lead.UrgencyLevel}}
Form: {{.Lead.FormType}}
Timeline: {{.Lead.Timeline}}
Foreclosure status: {{.Lead.ForeclosureStatus}}
Situation: {{.Lead.Situation}}
Received: {{.ReceivedAt}}
Lead ID: {{.LeadID}}
`

const alertHTML = `<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #dc2626;">🚨 {{.Priority}} lead, score {{.Score}}</h2>
<p>Respond within <strong>{{.ResponseWindow}}</strong>.</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td><strong>Name:</strong></td><td>{{.Lead.Name}}</td></tr>
  <tr><td><strong>Email:</strong></td><td>{{.Lead.Email}}</td></tr>
  <tr><td><strong>Phone:</strong></td><td><a href="tel:{{.Lead.Phone}}">{{.Lead.Phone}}</a></td></tr>
  <tr><td><strong>Property:</strong></td><td>{{.Lead.PropertyAddress}}</td></tr>
  <tr><td><strong>Urgency:</strong></td><td>{{.Lead.UrgencyLevel}}</td></tr>
  <tr><td><strong>Timeline:</strong></td><td>{{.Lead.Timeline}}</td></tr>
  <tr><td><strong>Situation:</strong></td><td>{{.Lead.Situation}}</td></tr>
</table>
<p style="color: #6b7280; font-size: 12px;">{{.LeadID}} received {{.ReceivedAt}}</p>
</div>`

const alertSMS = `🚨 {{.Priority}} lead (score {{.Score}}): {{if .Lead.Name}}{{.Lead.Name}}{{else}}{{.Lead.Email}}{{end}}{{if .Lead.Phone}} {{.Lead.Phone}}{{end}}. Call within {{.ResponseWindow}}.`
