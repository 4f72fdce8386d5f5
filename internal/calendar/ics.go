// Package calendar exports digest events as an iCalendar file.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/perk-events/internal/event"
)

// DefaultDuration is the length given to events, which carry only a start time.
const DefaultDuration = time.Hour

const uidDomain = "perk-events"

// GenerateICS generates an iCalendar (.ics) document holding every event.
// stamp is written as DTSTAMP.
func GenerateICS(events []event.Event, stamp time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//perk-events//perk-events//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	ics.WriteString("X-WR-CALNAME:UNC perk events\r\n")

	for _, evt := range events {
		writeEvent(&ics, evt, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeEvent(ics *strings.Builder, evt event.Event, stamp time.Time) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	// UID - stable across runs for the same identity triple
	ics.WriteString(fmt.Sprintf("UID:%s@%s\r\n", EventUID(evt), uidDomain))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(stamp)))

	ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(evt.DateTime)))
	ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(evt.DateTime.Add(DefaultDuration))))

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(evt.Title)))

	var description []string
	if perks := event.StringValue(evt.Perks); perks != "" {
		description = append(description, "Perks: "+perks)
	}
	if url := event.StringValue(evt.URL); url != "" {
		description = append(description, "Details: "+url)
	}
	if len(description) > 0 {
		ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(strings.Join(description, "\n"))))
	}

	ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(evt.Location)))

	if url := event.StringValue(evt.URL); url != "" {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", url))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")

	ics.WriteString("END:VEVENT\r\n")
}

// EventUID derives a name-based UUID from the event's identity triple.
func EventUID(evt event.Event) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(evt.Key().String())).String()
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
