package scraper

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
)

// fakePage serves canned HTML per URL and simulates a Load More button whose
// live region advances through liveTexts, one entry per click.
type fakePage struct {
	pages       map[string]string
	navErrors   map[string]error
	liveTexts   []string
	buttonGone  int // button disappears after this many clicks; 0 never
	current     string
	clicks      int
	navigations []string
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.navigations = append(f.navigations, url)
	if err := f.navErrors[url]; err != nil {
		return err
	}
	f.current = url
	return nil
}

func (f *fakePage) LoadMoreVisible(context.Context) (bool, error) {
	if f.buttonGone > 0 && f.clicks >= f.buttonGone {
		return false, nil
	}
	return len(f.liveTexts) > 0, nil
}

func (f *fakePage) ClickLoadMore(context.Context) error {
	f.clicks++
	return nil
}

func (f *fakePage) LiveRegionText(context.Context) (string, error) {
	if len(f.liveTexts) == 0 {
		return "", nil
	}
	i := f.clicks
	if i >= len(f.liveTexts) {
		i = len(f.liveTexts) - 1
	}
	return f.liveTexts[i], nil
}

func (f *fakePage) HTML(context.Context) (string, error) {
	html, ok := f.pages[f.current]
	if !ok {
		return "", errors.New("no page")
	}
	return html, nil
}

func (f *fakePage) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		page       *fakePage
		max        int
		wantClicks int
		wantCapped bool
	}{
		{
			name:       "no button",
			page:       &fakePage{},
			max:        10,
			wantClicks: 0,
		},
		{
			name:       "stops when live region stops changing",
			page:       &fakePage{liveTexts: []string{"10 events", "20 events", "25 events"}},
			max:        10,
			wantClicks: 3, // the third click reads 25 again
		},
		{
			name:       "stops when button disappears",
			page:       &fakePage{liveTexts: []string{"a", "b", "c", "d", "e"}, buttonGone: 2},
			max:        10,
			wantClicks: 2,
		},
		{
			name:       "bounded by max clicks",
			page:       &fakePage{liveTexts: []string{"1", "2", "3", "4", "5", "6", "7"}},
			max:        3,
			wantClicks: 3,
			wantCapped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clicks, capped, err := paginate(context.Background(), tt.page, tt.max, 0)
			if err != nil {
				t.Fatalf("paginate() error = %v", err)
			}
			if clicks != tt.wantClicks {
				t.Errorf("clicks = %d, want %d", clicks, tt.wantClicks)
			}
			if capped != tt.wantCapped {
				t.Errorf("capped = %v, want %v", capped, tt.wantCapped)
			}
		})
	}
}

func TestPaginate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := paginate(ctx, &fakePage{liveTexts: []string{"a", "b"}}, 5, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("paginate() error = %v, want context.Canceled", err)
	}
}

const extractorListing = `<html><body><div id="event-discovery-list">
  <a href="/event/1"><h3>Tomorrow Lunch</h3>
    <div style="font-size: 0.938rem;"><div>Wednesday, October 15 at 12:00PM EDT</div><div>Union</div></div></a>
  <a href="/event/2"><h3>Broken Detail</h3>
    <div style="font-size: 0.938rem;"><div>Wednesday, October 15 at 3:00PM EDT</div><div>Library</div></div></a>
  <a href="/event/3"><h3>Next Week</h3>
    <div style="font-size: 0.938rem;"><div>Wednesday, October 22 at 3:00PM EDT</div><div>Gym</div></div></a>
</div></body></html>`

func newExtractorPage() *fakePage {
	return &fakePage{
		pages: map[string]string{
			"https://listing.test/events": extractorListing,
			"https://heellife.unc.edu/event/1": detailPage(
				`<img src="/img/credit.svg"><span>Credit</span><img src="/img/free_food.svg">`),
			"https://heellife.unc.edu/event/3": detailPage(`<img src="/img/merchandise.svg">`),
		},
		navErrors: map[string]error{
			"https://heellife.unc.edu/event/2": errors.New("net::ERR_TIMED_OUT"),
		},
	}
}

func TestExtractorRun(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, time.October, 14, 20, 0, 0, 0, ny)

	t.Run("keeps every card and degrades failed detail pages", func(t *testing.T) {
		page := newExtractorPage()
		x := New(page, Options{
			ListingURL: "https://listing.test/events",
			Location:   ny,
			Now:        func() time.Time { return now },
		})

		result, err := x.Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(result.Events) != 3 {
			t.Fatalf("got %d events, want 3", len(result.Events))
		}

		want := []event.Perk{event.PerkCredit, event.PerkFreeFood}
		if !reflect.DeepEqual(result.Events[0].Perks, want) {
			t.Errorf("perks = %v, want %v", result.Events[0].Perks, want)
		}

		broken := result.Events[1]
		if broken.Perks != nil {
			t.Errorf("failed detail page should yield no perks, got %v", broken.Perks)
		}
		if broken.PerkError == "" {
			t.Error("failed detail page should record PerkError")
		}
		if len(result.PerkFailures) != 1 || result.PerkFailures[0].Step != StepNavigate {
			t.Errorf("PerkFailures = %+v, want one navigate failure", result.PerkFailures)
		}
	})

	t.Run("strict date keeps only tomorrow", func(t *testing.T) {
		page := newExtractorPage()
		x := New(page, Options{
			ListingURL: "https://listing.test/events",
			StrictDate: true,
			Location:   ny,
			Now:        func() time.Time { return now },
		})

		result, err := x.Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Cards != 3 {
			t.Errorf("Cards = %d, want 3", result.Cards)
		}
		if result.NotTomorrow != 1 {
			t.Errorf("NotTomorrow = %d, want 1", result.NotTomorrow)
		}
		for _, e := range result.Events {
			if e.Title == "Next Week" {
				t.Error("card dated next week should have been filtered")
			}
		}
		for _, u := range page.navigations {
			if u == "https://heellife.unc.edu/event/3" {
				t.Error("filtered card detail page should not be visited")
			}
		}
	})

	t.Run("listing failure is fatal", func(t *testing.T) {
		page := newExtractorPage()
		page.navErrors["https://listing.test/events"] = errors.New("dns failure")
		x := New(page, Options{ListingURL: "https://listing.test/events"})

		if _, err := x.Run(context.Background()); err == nil {
			t.Error("Run() should fail when the listing cannot load")
		}
	})
}

func TestExtractionError(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&ExtractionError{Step: StepCapture, URL: "https://x/event/1", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("ExtractionError should unwrap to its cause")
	}
	var extErr *ExtractionError
	if !errors.As(err, &extErr) || extErr.Step != StepCapture {
		t.Errorf("errors.As failed: %v", err)
	}
	if got, want := err.Error(), "capture https://x/event/1: timeout"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
