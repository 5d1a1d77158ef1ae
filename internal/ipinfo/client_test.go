package ipinfo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLookup_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/json/8.8.8.8" {
			t.Fatalf("path = %s, want /json/8.8.8.8", r.URL.Path)
		}

		resp := Info{
			Status:  "success",
			Country: "United States",
			Region:  "California",
			City:    "Mountain View",
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := client.Lookup(ctx, "8.8.8.8")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if res.Region != "California" || res.Country != "United States" {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestLookup_Fail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Info{Status: "fail"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := client.Lookup(ctx, "10.0.0.1"); err == nil {
		t.Fatalf("expected error for failed lookup")
	}
}

func TestLookup_NotConfigured(t *testing.T) {
	client := NewClient("")

	if _, err := client.Lookup(context.Background(), "8.8.8.8"); err == nil {
		t.Fatalf("expected error for unconfigured client")
	}
}
