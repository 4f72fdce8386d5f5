package scraper

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/perk-events/internal/event"
)

// Listing markup selectors
const (
	cardSelector        = "#event-discovery-list a[href^='/event/']"
	titleSelector       = "h3"
	infoRowSelector     = "div[style*='font-size: 0.938rem'] > div"
	imageSelector       = "[role='img']"
	liveRegionQuery     = "div[aria-live='polite']"
	loadMoreLabel       = "Load More"
	backgroundImageProp = "background-image"
)

var backgroundURLPattern = regexp.MustCompile(`url\(\s*["']?([^"')]+)["']?\s*\)`)

// CardSchema maps a card's info segments to named fields by position.
// It is the only place that knows the order the listing renders them in.
type CardSchema struct {
	WhenIndex  int
	WhereIndex int
}

// DefaultCardSchema matches the current listing: time first, place second.
var DefaultCardSchema = CardSchema{WhenIndex: 0, WhereIndex: 1}

// Map picks the when/where fields out of the raw segments. Missing positions
// yield empty strings.
func (s CardSchema) Map(segments []string) (when, where string) {
	if s.WhenIndex >= 0 && s.WhenIndex < len(segments) {
		when = segments[s.WhenIndex]
	}
	if s.WhereIndex >= 0 && s.WhereIndex < len(segments) {
		where = segments[s.WhereIndex]
	}
	return when, where
}

// parseListing extracts the shallow card fields from rendered listing HTML.
// Cards without an href are skipped, as are repeats of a card already seen.
func parseListing(r io.Reader, baseURL string, schema CardSchema) ([]event.RawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing listing HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	events := make([]event.RawEvent, 0)
	seen := make(map[string]bool)

	doc.Find(cardSelector).Each(func(i int, card *goquery.Selection) {
		href, ok := card.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		segments := make([]string, 0, 2)
		card.Find(infoRowSelector).Each(func(_ int, row *goquery.Selection) {
			segments = append(segments, strings.TrimSpace(row.Text()))
		})
		when, where := schema.Map(segments)

		raw := event.RawEvent{
			Title:        strings.TrimSpace(card.Find(titleSelector).First().Text()),
			DateTimeText: when,
			LocationText: where,
			URL:          resolveURL(base, href),
			ImageURL:     backgroundImageURL(card.Find(imageSelector).First().AttrOr("style", "")),
		}

		if seen[raw.CardKey()] {
			return
		}
		seen[raw.CardKey()] = true
		events = append(events, raw)
	})

	return events, nil
}

// backgroundImageURL pulls the url("...") out of an inline background-image style.
func backgroundImageURL(style string) string {
	if !strings.Contains(style, backgroundImageProp) {
		return ""
	}
	m := backgroundURLPattern.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
