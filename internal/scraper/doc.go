// Package scraper extracts perk events from the HeelLife events listing.
//
// The listing is rendered by a headless Chrome driven through chromedp. The extractor
// clicks "Load More" until the results live region stops changing, parses the event
// cards out of the rendered HTML with goquery, then visits each event's detail page to
// read its perk icons and labels. Failures on a detail page degrade that event's perks
// to empty rather than failing the run.
package scraper
