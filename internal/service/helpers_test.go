package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/governa/governa/internal/ai"
	"github.com/governa/governa/internal/storage/sqlite"
	"github.com/governa/governa/internal/viewcache"
)

// testZone matches the production default: GMT-5, no DST.
var testZone = time.FixedZone("GMT-5", -5*3600)

// fakeGenerator returns a canned response or error and records invocations.
type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

// newTestEnv builds a temp-file store, a view cache and a test server with
// every service registered against the given generator.
func newTestEnv(t *testing.T, gen ai.Generator) (*httptest.Server, *sqlite.SQLiteStore) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "governa-service-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	cache := viewcache.New(time.Minute)
	mux := http.NewServeMux()
	NewCRMService(store, cache).Register(mux)
	NewAgendaService(store, gen, cache, testZone).Register(mux)
	NewDeskService(store, gen, cache, testZone).Register(mux)
	NewAnalyticsService().Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})
	return server, store
}

// postForm submits a form and decodes the JSON response body into out.
func postForm(t *testing.T, serverURL, path string, form url.Values, out any) int {
	t.Helper()

	resp, err := http.PostForm(serverURL+path, form)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("POST %s: failed to decode response: %v", path, err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode
}

// getJSON fetches a path and decodes the JSON response body into out.
func getJSON(t *testing.T, serverURL, path string, out any) int {
	t.Helper()

	resp, err := http.Get(serverURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("GET %s: failed to decode response: %v", path, err)
	}
	return resp.StatusCode
}
