package preferences

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/perk-events/internal/event"
	"github.com/pfrederiksen/perk-events/internal/filter"
	"gopkg.in/yaml.v3"
)

// Subscriber is one digest recipient.
type Subscriber struct {
	Email  string       `json:"email" yaml:"email"`
	Perks  []event.Perk `json:"perks" yaml:"perks"`
	Active bool         `json:"active" yaml:"active"`
}

// Filter returns the digest filter for the subscriber's perks.
func (s *Subscriber) Filter() *filter.Filter {
	return filter.ForPerks(s.Perks)
}

// Subscribers maps normalized email addresses to subscribers
type Subscribers map[string]*Subscriber

// Storage defines the interface for subscriber storage
type Storage interface {
	Load() (Subscribers, error)
	Save(subs Subscribers) error
}

// NewSubscribers creates a new empty subscriber set
func NewSubscribers() Subscribers {
	return make(Subscribers)
}

// NormalizeEmail lower-cases and trims an address for use as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Get returns the subscriber for email, if present.
func (s Subscribers) Get(email string) (*Subscriber, bool) {
	sub, ok := s[NormalizeEmail(email)]
	return sub, ok
}

// GetOrCreate returns the subscriber for email, creating an active one with
// no perk restriction if they don't exist.
func (s Subscribers) GetOrCreate(email string) *Subscriber {
	key := NormalizeEmail(email)
	if sub, exists := s[key]; exists {
		return sub
	}
	s[key] = &Subscriber{
		Email:  key,
		Perks:  []event.Perk{},
		Active: true,
	}
	return s[key]
}

// SetPerks replaces a subscriber's perk selection.
func (s Subscribers) SetPerks(email string, perks []event.Perk) *Subscriber {
	sub := s.GetOrCreate(email)
	sub.Perks = event.SortPerks(perks)
	return sub
}

// SetActive pauses or resumes a subscriber. It returns false for unknown
// addresses.
func (s Subscribers) SetActive(email string, active bool) bool {
	sub, ok := s.Get(email)
	if !ok {
		return false
	}
	sub.Active = active
	return true
}

// Remove deletes a subscriber. It returns false for unknown addresses.
func (s Subscribers) Remove(email string) bool {
	key := NormalizeEmail(email)
	if _, ok := s[key]; !ok {
		return false
	}
	delete(s, key)
	return true
}

// ActiveSubscribers returns the active subscribers sorted by email.
func (s Subscribers) ActiveSubscribers() []*Subscriber {
	subs := make([]*Subscriber, 0, len(s))
	for _, sub := range s {
		if sub.Active {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Email < subs[j].Email })
	return subs
}

// file is the on-disk layout of a subscribers file.
type file struct {
	Subscribers []*Subscriber `yaml:"subscribers"`
}

// ToYAML marshals subscribers to YAML, sorted by email
func (s Subscribers) ToYAML() ([]byte, error) {
	f := file{Subscribers: make([]*Subscriber, 0, len(s))}
	for _, sub := range s {
		f.Subscribers = append(f.Subscribers, sub)
	}
	sort.Slice(f.Subscribers, func(i, j int) bool {
		return f.Subscribers[i].Email < f.Subscribers[j].Email
	})
	return yaml.Marshal(f)
}

// FromYAML unmarshals subscribers from YAML. Perk names may use the short
// aliases accepted by event.ParsePerk.
func FromYAML(data []byte) (Subscribers, error) {
	var raw struct {
		Subscribers []struct {
			Email  string   `yaml:"email"`
			Perks  []string `yaml:"perks"`
			Active *bool    `yaml:"active"`
		} `yaml:"subscribers"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling subscribers: %w", err)
	}

	subs := NewSubscribers()
	for i, r := range raw.Subscribers {
		key := NormalizeEmail(r.Email)
		if key == "" {
			return nil, fmt.Errorf("subscriber %d: missing email", i+1)
		}

		perks := make([]event.Perk, 0, len(r.Perks))
		for _, name := range r.Perks {
			p, ok := event.ParsePerk(name)
			if !ok {
				return nil, fmt.Errorf("subscriber %s: unknown perk %q", key, name)
			}
			perks = append(perks, p)
		}

		active := true
		if r.Active != nil {
			active = *r.Active
		}

		subs[key] = &Subscriber{
			Email:  key,
			Perks:  event.SortPerks(perks),
			Active: active,
		}
	}
	return subs, nil
}
