package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/perk-events/internal/digest"
	"github.com/pfrederiksen/perk-events/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatHTML OutputFormat = "html"
)

// parseFormat validates a --format value against the allowed formats.
func parseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	names := make([]string, len(allowed))
	for i, a := range allowed {
		if format == a {
			return format, nil
		}
		names[i] = "'" + string(a) + "'"
	}
	return "", fmt.Errorf("invalid format: %s (must be %s)", s, strings.Join(names, " or "))
}

// ScrapeSummary reports what one scrape run did
type ScrapeSummary struct {
	RunID            string                 `json:"run_id"`
	CheckedAt        time.Time              `json:"checked_at"`
	Cards            int                    `json:"cards"`
	LoadMoreClicks   int                    `json:"load_more_clicks"`
	PaginationCapped bool                   `json:"pagination_capped,omitempty"`
	NotTomorrow      int                    `json:"not_tomorrow"`
	PerkFailures     int                    `json:"perk_failures"`
	Normalize        *event.NormalizeReport `json:"normalize"`
	New              int                    `json:"new"`
	Updated          int                    `json:"updated"`
	Upserted         int                    `json:"upserted"`
	ExportPath       string                 `json:"export_path,omitempty"`
	DryRun           bool                   `json:"dry_run,omitempty"`
}

// WriteScrapeSummary writes the summary in the specified format
func WriteScrapeSummary(w io.Writer, s *ScrapeSummary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatText:
		return writeScrapeText(w, s)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeScrapeText(w io.Writer, s *ScrapeSummary) error {
	fmt.Fprintf(w, "Cards found: %d (after %d Load More clicks", s.Cards, s.LoadMoreClicks)
	if s.PaginationCapped {
		fmt.Fprint(w, ", click limit reached")
	}
	fmt.Fprintln(w, ")")
	if s.NotTomorrow > 0 {
		fmt.Fprintf(w, "Not tomorrow: %d\n", s.NotTomorrow)
	}
	if s.PerkFailures > 0 {
		fmt.Fprintf(w, "Perk extraction failures: %d\n", s.PerkFailures)
	}

	if r := s.Normalize; r != nil {
		fmt.Fprintf(w, "Normalized: %d of %d", r.Output, r.Input)
		if r.Duplicates > 0 {
			fmt.Fprintf(w, " (%d duplicates merged)", r.Duplicates)
		}
		fmt.Fprintln(w)

		reasons := make([]string, 0, len(r.Dropped))
		for reason := range r.Dropped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(w, "  dropped %s: %d\n", reason, r.Dropped[reason])
		}
	}

	fmt.Fprintf(w, "Since last export: %d new, %d updated\n", s.New, s.Updated)
	if s.ExportPath != "" {
		fmt.Fprintf(w, "Export: %s\n", s.ExportPath)
	}
	if s.DryRun {
		fmt.Fprintf(w, "Dry run: %d rows not written to the store\n", s.Upserted)
	} else {
		fmt.Fprintf(w, "Upserted: %d\n", s.Upserted)
	}
	return nil
}

// WriteDigest writes a digest preview in the specified format
func WriteDigest(w io.Writer, d *digest.Digest, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, d)
	case FormatHTML:
		html, err := d.HTML()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, html)
		return err
	case FormatText:
		_, err := fmt.Fprintln(w, d.Text())
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
