package poolfeed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lryanle/bingobongo/pkg/poolfeed"
)

func TestHTTPClient_FetchPool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pools/weekly.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"name":"weekly","items":["a","b","c"]}`))
		case "/pools/broken.json":
			w.Write([]byte(`not json`))
		case "/pools/teapot.json":
			w.WriteHeader(http.StatusTeapot)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := poolfeed.NewHTTPClient(server.URL)
	ctx := context.Background()

	items, err := client.FetchPool(ctx, "weekly")
	if err != nil {
		t.Fatalf("FetchPool failed: %v", err)
	}
	if len(items) != 3 || items[0] != "a" {
		t.Errorf("items = %v", items)
	}

	if _, err := client.FetchPool(ctx, "missing"); err == nil {
		t.Error("missing pool fetched")
	}
	if _, err := client.FetchPool(ctx, "broken"); err == nil {
		t.Error("invalid JSON accepted")
	}
	if _, err := client.FetchPool(ctx, "teapot"); err == nil {
		t.Error("non-200 status accepted")
	}
}

func TestHTTPClient_EscapesPoolName(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Write([]byte(`{"name":"x","items":[]}`))
	}))
	defer server.Close()

	client := poolfeed.NewHTTPClient(server.URL)
	if _, err := client.FetchPool(context.Background(), "has space"); err != nil {
		t.Fatalf("FetchPool failed: %v", err)
	}
	if requested != "/pools/has%20space.json" && requested != "/pools/has space.json" {
		t.Errorf("requested path %q", requested)
	}
}

func TestMockClient(t *testing.T) {
	mock := poolfeed.NewMockClient()

	items, err := mock.FetchPool(context.Background(), "default")
	if err != nil {
		t.Fatalf("FetchPool failed: %v", err)
	}
	if len(items) != 25 {
		t.Errorf("default pool has %d items", len(items))
	}

	if _, err := mock.FetchPool(context.Background(), "nope"); err == nil {
		t.Error("unknown pool fetched")
	}
}
