package scraper

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/perk-events/internal/event"
)

const perksHeading = "Perks"

// IconPerks maps perk icon filenames on detail pages to perk tags.
// Both the current and the older icon names are listed.
var IconPerks = map[string]event.Perk{
	"credit.svg":      event.PerkCredit,
	"free_food.svg":   event.PerkFreeFood,
	"freefood.svg":    event.PerkFreeFood,
	"free_stuff.svg":  event.PerkMerchandise,
	"merchandise.svg": event.PerkMerchandise,
}

// parsePerks reads the perk tags from an event detail page: icons under the
// Perks heading are matched by filename, and their text labels by keyword so
// icons with an unknown filename still count. The result is sorted and unique.
func parsePerks(r io.Reader) ([]event.Perk, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing detail HTML: %w", err)
	}

	section := doc.Find("h2").FilterFunction(func(_ int, h *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(h.Text()), strings.ToLower(perksHeading))
	}).NextAllFiltered("div")

	var perks []event.Perk

	section.Find("img").Each(func(_ int, img *goquery.Selection) {
		if p, ok := IconPerks[iconFilename(img.AttrOr("src", ""))]; ok {
			perks = append(perks, p)
		}
	})

	section.Find("span").Each(func(_ int, span *goquery.Selection) {
		perks = append(perks, labelPerks(span.Text())...)
	})

	return event.SortPerks(perks), nil
}

// iconFilename returns the lower-cased last path segment of src, query stripped.
func iconFilename(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	if u, err := url.Parse(src); err == nil {
		src = u.Path
	} else if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return strings.ToLower(path.Base(src))
}

// labelPerks matches perk keywords in a text label.
func labelPerks(label string) []event.Perk {
	text := strings.ToLower(strings.TrimSpace(label))
	if text == "" {
		return nil
	}
	var perks []event.Perk
	if strings.Contains(text, "credit") {
		perks = append(perks, event.PerkCredit)
	}
	if strings.Contains(text, "free") && strings.Contains(text, "food") {
		perks = append(perks, event.PerkFreeFood)
	}
	if strings.Contains(text, "merch") {
		perks = append(perks, event.PerkMerchandise)
	}
	return perks
}
