package event

import (
	"strings"
	"time"
)

// Event is a normalized, persisted perk event.
// The triple (Title, DateTime, Location) identifies it.
type Event struct {
	Title    string    `json:"title" bson:"title" gorm:"primaryKey;column:title"`
	DateTime time.Time `json:"date_time" bson:"date_time" gorm:"primaryKey;column:date_time;type:timestamptz"`
	Location string    `json:"location" bson:"location" gorm:"primaryKey;column:location"`
	URL      *string   `json:"url" bson:"url" gorm:"column:url"`
	ImageURL *string   `json:"image_url" bson:"image_url" gorm:"column:image_url"`
	Perks    *string   `json:"perks" bson:"perks" gorm:"column:perks"`
}

// TableName maps Event to the shared events table.
func (Event) TableName() string {
	return "events"
}

// Key returns the identity triple of the event.
func (e Event) Key() Key {
	return Key{Title: e.Title, DateTime: e.DateTime.UTC(), Location: e.Location}
}

// PerkList splits the stored perks column back into tags.
func (e Event) PerkList() []Perk {
	if e.Perks == nil {
		return nil
	}
	return SplitPerks(*e.Perks)
}

// Key is the natural key of an event.
type Key struct {
	Title    string
	DateTime time.Time
	Location string
}

// String renders the key for logs and map lookups
func (k Key) String() string {
	return k.Title + "|" + k.DateTime.UTC().Format(time.RFC3339) + "|" + k.Location
}

// RawEvent is a listing card as extracted, before normalization.
type RawEvent struct {
	Title        string `json:"title"`
	DateTimeText string `json:"datetime"`
	LocationText string `json:"location"`
	URL          string `json:"url,omitempty"`
	ImageURL     string `json:"image,omitempty"`
	Perks        []Perk `json:"perks"`
	PerkError    string `json:"perk_error,omitempty"` // set when perk extraction degraded
}

// CardKey identifies a card within a single listing pass.
func (r RawEvent) CardKey() string {
	return r.Title + "\x00" + r.DateTimeText + "\x00" + r.LocationText
}

// optional trims s and returns nil when nothing is left.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences an optional column, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
