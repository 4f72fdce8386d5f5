package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/perk-events/internal/digest"
	"github.com/pfrederiksen/perk-events/internal/event"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"text", FormatText, false},
		{" JSON ", FormatJSON, false},
		{"html", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := parseFormat(tt.input, FormatText, FormatJSON)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWriteScrapeSummary_Text(t *testing.T) {
	var buf bytes.Buffer
	err := WriteScrapeSummary(&buf, &ScrapeSummary{
		Cards:            12,
		LoadMoreClicks:   50,
		PaginationCapped: true,
		PerkFailures:     1,
		Normalize: &event.NormalizeReport{
			Input:      12,
			Output:     9,
			Duplicates: 1,
			Dropped:    map[string]int{"missing_location": 1, "unparseable_datetime": 1},
		},
		New:        4,
		Updated:    2,
		Upserted:   9,
		ExportPath: "/tmp/events_export.json",
	}, FormatText)
	if err != nil {
		t.Fatalf("WriteScrapeSummary() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Cards found: 12 (after 50 Load More clicks, click limit reached)",
		"Perk extraction failures: 1",
		"Normalized: 9 of 12 (1 duplicates merged)",
		"  dropped missing_location: 1\n  dropped unparseable_datetime: 1",
		"Since last export: 4 new, 2 updated",
		"Export: /tmp/events_export.json",
		"Upserted: 9",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteDigest(t *testing.T) {
	d := &digest.Digest{
		Start:  time.Date(2025, 10, 15, 4, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 10, 16, 4, 0, 0, 0, time.UTC),
		Events: []event.Event{},
	}

	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, digest.NoEventsText},
		{FormatHTML, digest.NoEventsHTML},
		{FormatJSON, `"events": []`},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := WriteDigest(&buf, d, tt.format); err != nil {
			t.Fatalf("WriteDigest(%s) error = %v", tt.format, err)
		}
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("WriteDigest(%s) = %q, want containing %q", tt.format, buf.String(), tt.want)
		}
	}

	if err := WriteDigest(&bytes.Buffer{}, d, "pdf"); err == nil {
		t.Error("WriteDigest() should reject unknown formats")
	}
}
