// Package preferences manages digest subscribers and the perks each one wants.
//
// Subscribers are kept in a YAML file keyed by email address. A subscriber
// with no perks selected receives every event; otherwise the digest sent to
// them is filtered to events offering at least one of their perks.
package preferences
