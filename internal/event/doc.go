// Package event provides the perk event model shared by the scrape and digest runs.
//
// A RawEvent is a listing card as extracted from the page. Normalize validates raw
// records, parses their free-text datetimes in the campus timezone, converts them to
// UTC and collapses duplicates into Event rows keyed by (title, date_time, location).
// Perks are drawn from a fixed vocabulary and stored as a comma-joined column.
package event
