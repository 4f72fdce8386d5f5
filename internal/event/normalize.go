package event

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Drop reasons reported by Normalize
const (
	DropMissingTitle    = "missing_title"
	DropMissingLocation = "missing_location"
	DropMissingDateTime = "missing_datetime"
	DropUnparseableDate = "unparseable_datetime"
)

var validate = validator.New()

// requiredFields are the trimmed fields a raw record must carry to be stored.
type requiredFields struct {
	Title        string `validate:"required"`
	DateTimeText string `validate:"required"`
	Location     string `validate:"required"`
}

var dropReasonByField = map[string]string{
	"Title":        DropMissingTitle,
	"DateTimeText": DropMissingDateTime,
	"Location":     DropMissingLocation,
}

// NormalizeOptions controls how datetime text is interpreted.
type NormalizeOptions struct {
	Location *time.Location // campus zone for text without an offset
	Now      time.Time      // reference for year inference; zero means time.Now()
}

// NormalizeReport counts what Normalize did with its input.
type NormalizeReport struct {
	Input      int            `json:"input"`
	Output     int            `json:"output"`
	Duplicates int            `json:"duplicates"`
	Dropped    map[string]int `json:"dropped"`
}

// DroppedTotal sums the per-reason drop counts.
func (r *NormalizeReport) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Normalize validates raw records and turns them into storable rows.
// Records missing a title, location or datetime text are dropped, as are
// records whose datetime cannot be parsed. Rows sharing an identity triple
// collapse into one, later records overwriting earlier optional fields.
func Normalize(raws []RawEvent, opts NormalizeOptions) ([]Event, *NormalizeReport) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	report := &NormalizeReport{
		Input:   len(raws),
		Dropped: make(map[string]int),
	}

	rows := make([]Event, 0, len(raws))
	index := make(map[Key]int, len(raws))

	for _, raw := range raws {
		fields := requiredFields{
			Title:        strings.TrimSpace(raw.Title),
			DateTimeText: strings.TrimSpace(raw.DateTimeText),
			Location:     strings.TrimSpace(raw.LocationText),
		}
		if reason := missingField(fields); reason != "" {
			report.Dropped[reason]++
			continue
		}

		when, err := ParseDateTime(fields.DateTimeText, loc, now)
		if err != nil {
			report.Dropped[DropUnparseableDate]++
			continue
		}

		row := Event{
			Title:    fields.Title,
			DateTime: when.UTC(),
			Location: fields.Location,
			URL:      optional(raw.URL),
			ImageURL: optional(raw.ImageURL),
			Perks:    JoinPerks(raw.Perks),
		}

		key := row.Key()
		if i, ok := index[key]; ok {
			rows[i] = row
			report.Duplicates++
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
	}

	report.Output = len(rows)
	return rows, report
}

// missingField returns the drop reason for the first empty required field.
func missingField(fields requiredFields) string {
	err := validate.Struct(fields)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if reason, ok := dropReasonByField[verrs[0].Field()]; ok {
			return reason
		}
	}
	return DropMissingTitle
}
