package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNominatimGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "10 Downing Street" {
			t.Errorf("q = %q", got)
		}
		if r.URL.Query().Get("limit") != "1" || r.URL.Query().Get("format") != "json" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if ua := r.Header.Get("User-Agent"); ua != "shareplate_backend/1.0" {
			t.Errorf("user agent = %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"51.5034","lon":"-0.1276","display_name":"10 Downing Street"}]`))
	}))
	defer srv.Close()

	g := NewNominatim(Config{BaseURL: srv.URL})
	c, err := g.Geocode(context.Background(), "10 Downing Street")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if c == nil || c.Latitude != 51.5034 || c.Longitude != -0.1276 {
		t.Errorf("coords = %+v", c)
	}
}

func TestNominatimNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := NewNominatim(Config{BaseURL: srv.URL}).Geocode(context.Background(), "nowhere")
	if err != nil || c != nil {
		t.Errorf("got %+v, %v; want nil, nil", c, err)
	}
}

func TestNominatimErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewNominatim(Config{BaseURL: srv.URL}).Geocode(context.Background(), "x"); err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestNominatimTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g := NewNominatim(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := g.Geocode(context.Background(), "slow")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = NewNominatim(Config{BaseURL: srv.URL}).Geocode(ctx, "slow")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("context deadline: err = %v, want ErrTimeout", err)
	}
}

func TestNoop(t *testing.T) {
	c, err := Noop{}.Geocode(context.Background(), "anything")
	if c != nil || err != nil {
		t.Errorf("noop returned %+v, %v", c, err)
	}
}
