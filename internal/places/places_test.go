package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSearch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/places:searchText" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "key" || r.Header.Get("X-Goog-FieldMask") == "" {
			t.Errorf("missing headers %v", r.Header)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["textQuery"] != "Empire State" || body["maxResultCount"] != float64(8) || body["languageCode"] != "en" {
			t.Errorf("unexpected body %v", body)
		}
		fmt.Fprint(w, `{"places":[{"id":"p1","displayName":{"text":"Empire State Building"},"formattedAddress":"20 W 34th St","location":{"latitude":40.7484,"longitude":-73.9857}}]}`)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "key"})
	got, err := c.Search(context.Background(), "  Empire State ")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Empire State Building" || got[0].Location.Lat != 40.7484 {
		t.Errorf("unexpected places %+v", got)
	}

	// served from cache, case-insensitively
	if _, err := c.Search(context.Background(), "empire state"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 upstream call, got %d", n)
	}

	// callers own their slice
	got[0].Name = "edited"
	again, err := c.Search(context.Background(), "Empire State")
	if err != nil {
		t.Fatal(err)
	}
	if again[0].Name != "Empire State Building" {
		t.Errorf("cached result was modified through a caller: %q", again[0].Name)
	}
}

func TestSearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()
	c := NewClient(Options{BaseURL: srv.URL})

	if _, err := c.Search(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := c.Search(context.Background(), "nowhere"); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/places/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Path != "/places/p1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"p1","displayName":{"text":"Cafe"},"nationalPhoneNumber":"(212) 555-0100","rating":4.5,"userRatingCount":120,"types":["cafe","food"],"location":{"latitude":1,"longitude":2}}`)
	}))
	defer srv.Close()
	c := NewClient(Options{BaseURL: srv.URL})

	p, err := c.Details(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Cafe" || p.Phone != "(212) 555-0100" || p.Rating != 4.5 || p.RatingCount != 120 || len(p.Types) != 2 {
		t.Errorf("unexpected place %+v", p)
	}
	if _, err := c.Details(context.Background(), "missing"); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}
