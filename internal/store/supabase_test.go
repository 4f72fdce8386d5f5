package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
)

type capturedRequest struct {
	method string
	path   string
	query  map[string][]string
	prefer string
	apiKey string
	body   []byte
}

func newSupabaseServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = r.URL.Query()
		captured.prefer = r.Header.Get("Prefer")
		captured.apiKey = r.Header.Get("apikey")
		captured.body = body

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestSupabase_UpsertEvents(t *testing.T) {
	server, req := newSupabaseServer(t, http.StatusCreated, "")

	s, err := NewSupabase(server.URL, "service-key")
	if err != nil {
		t.Fatalf("NewSupabase() error = %v", err)
	}

	rows := []event.Event{
		{
			Title:    "Pizza",
			DateTime: time.Date(2025, time.January, 5, 20, 0, 0, 0, time.UTC),
			Location: "Union",
			Perks:    strPtr("Credit, FreeFood"),
		},
	}

	n, err := s.UpsertEvents(context.Background(), rows)
	if err != nil {
		t.Fatalf("UpsertEvents() error = %v", err)
	}
	if n != 1 {
		t.Errorf("UpsertEvents() = %d, want 1", n)
	}

	if req.method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.method)
	}
	if req.path != "/rest/v1/events" {
		t.Errorf("path = %s, want /rest/v1/events", req.path)
	}
	if got := strings.Join(req.query["on_conflict"], ""); got != "title,date_time,location" {
		t.Errorf("on_conflict = %q", got)
	}
	if !strings.Contains(req.prefer, "resolution=merge-duplicates") {
		t.Errorf("Prefer = %q, want merge-duplicates", req.prefer)
	}
	if req.apiKey != "service-key" {
		t.Errorf("apikey header = %q", req.apiKey)
	}

	var sent []map[string]interface{}
	if err := json.Unmarshal(req.body, &sent); err != nil {
		t.Fatalf("body is not a JSON array: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("sent %d rows, want 1", len(sent))
	}
	if sent[0]["date_time"] != "2025-01-05T20:00:00Z" {
		t.Errorf("date_time = %v", sent[0]["date_time"])
	}
	if v, ok := sent[0]["url"]; !ok || v != nil {
		t.Errorf("url should be sent as null, got %v (present %v)", v, ok)
	}
}

func TestSupabase_UpsertEmptyBatchSkipsRequest(t *testing.T) {
	server, req := newSupabaseServer(t, http.StatusCreated, "")
	s, err := NewSupabase(server.URL, "key")
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.UpsertEvents(context.Background(), nil)
	if err != nil || n != 0 {
		t.Errorf("UpsertEvents(nil) = %d, %v", n, err)
	}
	if req.method != "" {
		t.Errorf("empty batch should not hit the server, got %s %s", req.method, req.path)
	}
}

func TestSupabase_UpsertError(t *testing.T) {
	server, _ := newSupabaseServer(t, http.StatusBadRequest,
		`{"code":"42P10","message":"there is no unique or exclusion constraint matching the ON CONFLICT specification"}`)
	s, err := NewSupabase(server.URL, "key")
	if err != nil {
		t.Fatal(err)
	}

	rows := []event.Event{{Title: "x", DateTime: time.Now().UTC(), Location: "y"}}
	if _, err := s.UpsertEvents(context.Background(), rows); err == nil {
		t.Error("expected an error from a 400 response")
	}
}

func TestSupabase_EventsBetween(t *testing.T) {
	response := `[
		{"title":"Late","date_time":"2025-03-11T22:00:00+00:00","location":"Gym","url":null,"image_url":null,"perks":"Merchandise"},
		{"title":"Lunch","date_time":"2025-03-11T16:00:00","location":"Union","url":"https://heellife.unc.edu/event/1","image_url":null,"perks":null}
	]`
	server, req := newSupabaseServer(t, http.StatusOK, response)
	s, err := NewSupabase(server.URL, "key")
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2025, time.March, 11, 4, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 12, 4, 0, 0, 0, time.UTC)

	rows, err := s.EventsBetween(context.Background(), start, end)
	if err != nil {
		t.Fatalf("EventsBetween() error = %v", err)
	}

	if req.method != http.MethodGet {
		t.Errorf("method = %s, want GET", req.method)
	}
	filter := strings.Join(req.query["or"], "")
	if !strings.Contains(filter, "date_time.gte.2025-03-11T04:00:00Z") || !strings.Contains(filter, "date_time.lt.2025-03-12T04:00:00Z") {
		t.Errorf("window filter = %q", filter)
	}
	if order := strings.Join(req.query["order"], ""); !strings.HasPrefix(order, "date_time.asc") {
		t.Errorf("order = %q", order)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Title != "Lunch" || rows[1].Title != "Late" {
		t.Errorf("rows not ordered by time: %q, %q", rows[0].Title, rows[1].Title)
	}
	if !rows[0].DateTime.Equal(time.Date(2025, time.March, 11, 16, 0, 0, 0, time.UTC)) {
		t.Errorf("naive timestamp should read as UTC, got %v", rows[0].DateTime)
	}
	if rows[0].Perks != nil {
		t.Errorf("null perks should stay nil")
	}
}
