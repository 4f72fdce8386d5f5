// Package digest builds the daily summary of tomorrow's perk events.
//
// A Builder asks the store for every event inside tomorrow's campus-local
// day, expressed as a half-open UTC window, and renders the result as an
// HTML email body and a plain-text alternative.
package digest
