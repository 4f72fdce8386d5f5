package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
)

// Bodies rendered for a day without events
const (
	NoEventsHTML = "<p>No qualifying events for tomorrow.</p>"
	NoEventsText = "No qualifying events for tomorrow."
)

// Heading and Footer frame the HTML digest.
const (
	Heading = "Tomorrow’s UNC perks"
	Footer  = "Sent by HeelLife Tracker."
)

const displayTimeLayout = "Mon Jan 2, 3:04 PM MST"

var htmlTemplate = template.Must(template.New("digest").Parse(`<div style="font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial,sans-serif;max-width:640px;margin:auto;padding:16px">
  <h2 style="margin:0 0 12px">{{.Heading}}</h2>
  <table width="100%" cellpadding="0" cellspacing="0">
{{- range .Rows}}
    <tr>
      <td style="padding:12px 0;border-bottom:1px solid #eee">
        <a href="{{.URL}}" style="font-size:16px;text-decoration:none;color:#0b72e7">{{.Title}}</a>
        <div style="font-size:13px;color:#444;margin-top:2px">{{.When}} — {{.Location}}</div>
        {{- if .Perks}}
        <div style="font-size:12px;opacity:.8">{{.Perks}}</div>
        {{- end}}
        {{- if .ImageURL}}
        <div><img src="{{.ImageURL}}" alt="" style="max-width:100%;border-radius:10px;margin-top:6px"/></div>
        {{- end}}
      </td>
    </tr>
{{- end}}
  </table>
  <p style="font-size:12px;color:#777;margin-top:16px">{{.Footer}}</p>
</div>
`))

type htmlRow struct {
	Title    string
	URL      string
	When     string
	Location string
	Perks    string
	ImageURL string
}

// HTML renders the digest as an email body.
func (d *Digest) HTML() (string, error) {
	return RenderHTML(d.Events, d.Location)
}

// Text renders the plain-text alternative.
func (d *Digest) Text() string {
	return RenderText(d.Events)
}

// RenderHTML renders events as an HTML digest with times shown in loc.
func RenderHTML(events []event.Event, loc *time.Location) (string, error) {
	if len(events) == 0 {
		return NoEventsHTML, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	rows := make([]htmlRow, len(events))
	for i, e := range events {
		url := event.StringValue(e.URL)
		if url == "" {
			url = "#"
		}
		rows[i] = htmlRow{
			Title:    e.Title,
			URL:      url,
			When:     e.DateTime.In(loc).Format(displayTimeLayout),
			Location: e.Location,
			Perks:    event.StringValue(e.Perks),
			ImageURL: event.StringValue(e.ImageURL),
		}
	}

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		Heading string
		Footer  string
		Rows    []htmlRow
	}{Heading, Footer, rows})
	if err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return buf.String(), nil
}

// RenderText renders one line per event:
// "- title | 2025-03-11T16:00:00Z | location | url".
func RenderText(events []event.Event) string {
	if len(events) == 0 {
		return NoEventsText
	}

	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = fmt.Sprintf("- %s | %s | %s | %s",
			e.Title,
			e.DateTime.UTC().Format(time.RFC3339),
			e.Location,
			event.StringValue(e.URL),
		)
	}
	return strings.Join(lines, "\n")
}
