package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vetlink/backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client, err := NewClient(config.GeocoderConfig{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		srv.Close()
		t.Fatalf("new client: %v", err)
	}
	return client, srv.Close
}

func TestResolveReturnsCoordinates(t *testing.T) {
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "12 Admiralty Way, Lekki, Lagos" {
			t.Fatalf("unexpected address %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"geometry": map[string]any{"location": map[string]any{"lat": 6.4478, "lng": 3.4723}}},
			},
		})
	})
	defer cleanup()

	point, err := client.Resolve(context.Background(), "12 Admiralty Way, Lekki, Lagos")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if point == nil {
		t.Fatalf("expected coordinates")
	}
	if point.Latitude != 6.4478 || point.Longitude != 3.4723 {
		t.Fatalf("unexpected point %+v", point)
	}
}

func TestResolveZeroResultsIsNotAnError(t *testing.T) {
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS", "results": []any{}})
	})
	defer cleanup()

	point, err := client.Resolve(context.Background(), "nowhere at all")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if point != nil {
		t.Fatalf("expected nil point for zero results")
	}
}

func TestResolveUpstreamFailureIsNotAnError(t *testing.T) {
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer cleanup()

	point, err := client.Resolve(context.Background(), "12 Admiralty Way")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if point != nil {
		t.Fatalf("expected nil point on upstream failure")
	}
}

func TestResolveEmptyAddress(t *testing.T) {
	client, err := NewClient(config.GeocoderConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	point, err := client.Resolve(context.Background(), "   ")
	if err != nil || point != nil {
		t.Fatalf("expected nil, nil for empty address, got %v %v", point, err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(config.GeocoderConfig{}); err == nil {
		t.Fatalf("expected missing api key to fail")
	}
}
