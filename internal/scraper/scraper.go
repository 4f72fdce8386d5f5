package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
	"github.com/pfrederiksen/perk-events/internal/logger"
)

const (
	ListingURL = "https://heellife.unc.edu/events?perks=Credit&perks=FreeFood&perks=Merchandise&shortcutdate=tomorrow"
	BaseURL    = "https://heellife.unc.edu"
	UserAgent  = "perk-events/1.0 (github.com/pfrederiksen/perk-events)"

	DefaultMaxLoadMore       = 50
	DefaultLoadMoreDelay     = 900 * time.Millisecond
	DefaultPageSettleDelay   = 1500 * time.Millisecond
	DefaultDetailSettleDelay = 300 * time.Millisecond
)

// Extraction steps reported in ExtractionError
const (
	StepNavigate   = "navigate"
	StepCapture    = "capture"
	StepParsePerks = "parse_perks"
)

// ExtractionError reports a failed optional extraction step for one event.
type ExtractionError struct {
	Step string
	URL  string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Options configures an Extractor. Zero values fall back to the defaults above.
type Options struct {
	ListingURL        string
	BaseURL           string
	Schema            *CardSchema
	MaxLoadMore       int // <= 0 uses DefaultMaxLoadMore
	LoadMoreDelay     time.Duration
	PageSettleDelay   time.Duration
	DetailSettleDelay time.Duration
	StrictDate        bool // keep only cards dated tomorrow in Location
	Location          *time.Location
	Now               func() time.Time
}

// Result is the outcome of one extraction pass.
type Result struct {
	Events           []event.RawEvent
	Cards            int // unique cards on the listing
	LoadMoreClicks   int
	PaginationCapped bool
	NotTomorrow      int // cards dropped by the strict date filter
	PerkFailures     []*ExtractionError
}

// Extractor scrapes the listing and detail pages through a Page.
type Extractor struct {
	page Page
	opts Options
}

// New creates an Extractor that drives page.
func New(page Page, opts Options) *Extractor {
	if opts.ListingURL == "" {
		opts.ListingURL = ListingURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Schema == nil {
		schema := DefaultCardSchema
		opts.Schema = &schema
	}
	if opts.MaxLoadMore <= 0 {
		opts.MaxLoadMore = DefaultMaxLoadMore
	}
	if opts.LoadMoreDelay <= 0 {
		opts.LoadMoreDelay = DefaultLoadMoreDelay
	}
	if opts.PageSettleDelay < 0 {
		opts.PageSettleDelay = 0
	}
	if opts.DetailSettleDelay < 0 {
		opts.DetailSettleDelay = 0
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Extractor{page: page, opts: opts}
}

// Run loads the listing, paginates it, parses the cards and enriches each
// with its perks. Only listing-level failures are returned as errors.
func (x *Extractor) Run(ctx context.Context) (*Result, error) {
	if err := x.page.Navigate(ctx, x.opts.ListingURL); err != nil {
		return nil, fmt.Errorf("loading listing: %w", err)
	}
	if err := x.page.Wait(ctx, x.opts.PageSettleDelay); err != nil {
		return nil, err
	}

	result := &Result{}

	clicks, capped, err := paginate(ctx, x.page, x.opts.MaxLoadMore, x.opts.LoadMoreDelay)
	if err != nil {
		return nil, err
	}
	result.LoadMoreClicks = clicks
	result.PaginationCapped = capped
	if capped {
		logger.Warn("Pagination stopped at click limit", logger.Fields{
			"max_load_more": x.opts.MaxLoadMore,
		})
	}

	html, err := x.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing listing: %w", err)
	}

	cards, err := parseListing(strings.NewReader(html), x.opts.BaseURL, *x.opts.Schema)
	if err != nil {
		return nil, err
	}
	result.Cards = len(cards)

	if x.opts.StrictDate {
		cards, result.NotTomorrow = x.keepTomorrow(cards)
	}

	for i := range cards {
		if cards[i].URL == "" {
			continue
		}
		perks, err := x.extractPerks(ctx, cards[i].URL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var extErr *ExtractionError
			if errors.As(err, &extErr) {
				result.PerkFailures = append(result.PerkFailures, extErr)
			}
			logger.Warn("Perk extraction failed, continuing without perks", logger.Fields{
				"title": cards[i].Title,
				"url":   cards[i].URL,
			})
			cards[i].PerkError = err.Error()
			perks = nil
		}
		cards[i].Perks = perks
	}

	result.Events = cards
	return result, nil
}

// keepTomorrow drops cards whose datetime is not on tomorrow's local date.
func (x *Extractor) keepTomorrow(cards []event.RawEvent) ([]event.RawEvent, int) {
	now := x.opts.Now()
	kept := make([]event.RawEvent, 0, len(cards))
	dropped := 0
	for _, c := range cards {
		when, err := event.ParseDateTime(c.DateTimeText, x.opts.Location, now)
		if err != nil || !event.IsTomorrow(when, now, x.opts.Location) {
			dropped++
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

// extractPerks visits one detail page and reads its perks.
func (x *Extractor) extractPerks(ctx context.Context, url string) ([]event.Perk, error) {
	if err := x.page.Navigate(ctx, url); err != nil {
		return nil, &ExtractionError{Step: StepNavigate, URL: url, Err: err}
	}
	if err := x.page.Wait(ctx, x.opts.DetailSettleDelay); err != nil {
		return nil, &ExtractionError{Step: StepNavigate, URL: url, Err: err}
	}
	html, err := x.page.HTML(ctx)
	if err != nil {
		return nil, &ExtractionError{Step: StepCapture, URL: url, Err: err}
	}
	perks, err := parsePerks(strings.NewReader(html))
	if err != nil {
		return nil, &ExtractionError{Step: StepParsePerks, URL: url, Err: err}
	}
	return perks, nil
}

// paginate clicks Load More until the live region reads the same before and
// after a click, the button disappears, or maxClicks is reached. Browser
// errors end pagination; only context cancellation is returned.
func paginate(ctx context.Context, page Page, maxClicks int, delay time.Duration) (clicks int, capped bool, err error) {
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return clicks, false, ctxErr
		}
		if maxClicks > 0 && clicks >= maxClicks {
			return clicks, true, nil
		}

		visible, err := page.LoadMoreVisible(ctx)
		if err != nil || !visible {
			return clicks, false, ctx.Err()
		}

		before, err := page.LiveRegionText(ctx)
		if err != nil {
			return clicks, false, ctx.Err()
		}
		if err := page.ClickLoadMore(ctx); err != nil {
			return clicks, false, ctx.Err()
		}
		clicks++

		if err := page.Wait(ctx, delay); err != nil {
			return clicks, false, ctx.Err()
		}
		after, err := page.LiveRegionText(ctx)
		if err != nil || after == before {
			return clicks, false, ctx.Err()
		}

		logger.Debug("Loaded more events", logger.Fields{"clicks": clicks})
	}
}
