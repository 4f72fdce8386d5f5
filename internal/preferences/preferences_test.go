package preferences

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pfrederiksen/perk-events/internal/event"
)

func TestSubscribers(t *testing.T) {
	subs := NewSubscribers()

	// GetOrCreate creates an active subscriber with no perk restriction
	sub := subs.GetOrCreate("  Ram@UNC.edu ")
	if sub.Email != "ram@unc.edu" {
		t.Errorf("Email = %q, want normalized address", sub.Email)
	}
	if !sub.Active {
		t.Error("New subscriber should be active")
	}
	if len(sub.Perks) != 0 {
		t.Errorf("New subscriber should have no perks, got %v", sub.Perks)
	}

	// Lookup is case-insensitive
	if _, ok := subs.Get("RAM@unc.edu"); !ok {
		t.Error("Get should find the subscriber regardless of case")
	}

	// SetPerks sorts and deduplicates
	subs.SetPerks("ram@unc.edu", []event.Perk{event.PerkMerchandise, event.PerkCredit, event.PerkCredit})
	want := []event.Perk{event.PerkCredit, event.PerkMerchandise}
	if !reflect.DeepEqual(sub.Perks, want) {
		t.Errorf("Perks = %v, want %v", sub.Perks, want)
	}

	// SetActive
	if !subs.SetActive("ram@unc.edu", false) {
		t.Error("SetActive should succeed for a known subscriber")
	}
	if subs.SetActive("nobody@unc.edu", true) {
		t.Error("SetActive should fail for an unknown subscriber")
	}
	if len(subs.ActiveSubscribers()) != 0 {
		t.Error("paused subscriber should not be active")
	}

	// Remove
	if !subs.Remove("ram@unc.edu") {
		t.Error("Remove should succeed")
	}
	if subs.Remove("ram@unc.edu") {
		t.Error("Remove should fail the second time")
	}
}

func TestSubscriber_Filter(t *testing.T) {
	all := &Subscriber{Email: "a@unc.edu"}
	food := &Subscriber{Email: "b@unc.edu", Perks: []event.Perk{event.PerkFreeFood}}
	if food.Filter().IsEmpty() {
		t.Error("Filter() should restrict to the selected perks")
	}
	if !all.Filter().IsEmpty() {
		t.Error("Filter() without perks should match everything")
	}
}

func TestActiveSubscribers_Sorted(t *testing.T) {
	subs := NewSubscribers()
	subs.GetOrCreate("zed@unc.edu")
	subs.GetOrCreate("amy@unc.edu")
	subs.GetOrCreate("kim@unc.edu")
	subs.SetActive("kim@unc.edu", false)

	active := subs.ActiveSubscribers()
	if len(active) != 2 || active[0].Email != "amy@unc.edu" || active[1].Email != "zed@unc.edu" {
		t.Errorf("ActiveSubscribers() = %+v", active)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	input := `
subscribers:
  - email: Amy@UNC.edu
    perks: [food, Credit]
  - email: zed@unc.edu
    perks: []
    active: false
`
	subs, err := FromYAML([]byte(input))
	if err != nil {
		t.Fatalf("FromYAML() error = %v", err)
	}

	amy, ok := subs.Get("amy@unc.edu")
	if !ok {
		t.Fatal("amy missing")
	}
	if !amy.Active {
		t.Error("active should default to true")
	}
	if !reflect.DeepEqual(amy.Perks, []event.Perk{event.PerkCredit, event.PerkFreeFood}) {
		t.Errorf("Perks = %v", amy.Perks)
	}

	zed, _ := subs.Get("zed@unc.edu")
	if zed.Active {
		t.Error("zed should be inactive")
	}

	data, err := subs.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML() error = %v", err)
	}
	out := string(data)
	if strings.Index(out, "amy@unc.edu") > strings.Index(out, "zed@unc.edu") {
		t.Errorf("ToYAML() should sort by email:\n%s", out)
	}
	if !strings.Contains(out, "FreeFood") {
		t.Errorf("ToYAML() should write canonical perk names:\n%s", out)
	}
}

func TestFromYAML_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown perk":  "subscribers:\n  - email: a@unc.edu\n    perks: [parking]\n",
		"missing email": "subscribers:\n  - perks: [credit]\n",
		"bad yaml":      "subscribers: [",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := FromYAML([]byte(input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
