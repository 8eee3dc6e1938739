package service

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/governa/governa/internal/auth"
	"github.com/governa/governa/internal/middleware"
	"github.com/governa/governa/internal/storage/sqlite"
)

// newAuthEnv builds a gated server so login, cookie handling and session
// introspection are exercised the way production wires them.
func newAuthEnv(t *testing.T) *httptest.Server {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "governa-auth-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	sessions := auth.NewSessionManager("test-secret-key", false)
	authenticator := auth.NewPasswordAuthenticator(store)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	mux := http.NewServeMux()
	NewAuthService(store, authenticator, sessions, logger).Register(mux)

	server := httptest.NewServer(middleware.Gate(sessions)(mux))
	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})
	return server
}

func TestSeedLoginAndIntrospect(t *testing.T) {
	server := newAuthEnv(t)

	// Seed is public so a fresh deployment can bootstrap itself.
	var result actionResult
	status := postForm(t, server.URL, "/api/admin/seed", nil, &result)
	if status != http.StatusOK || !result.Success {
		t.Fatalf("seed failed: status=%d result=%+v", status, result)
	}

	// Without a session the introspection endpoint is gated.
	resp, err := http.Get(server.URL + "/api/auth/me")
	if err != nil {
		t.Fatalf("GET /api/auth/me failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous /api/auth/me status = %d, want 401", resp.StatusCode)
	}

	// Log in with the seeded defaults; the response must carry the cookie.
	loginResp, err := http.PostForm(server.URL+"/api/auth/login", url.Values{
		"email":    {"admin@governa.com"},
		"password": {"admin123"},
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", loginResp.StatusCode)
	}

	var cookie *http.Cookie
	for _, c := range loginResp.Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("login response set no session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	// The cookie unlocks the gate and identifies the seeded admin.
	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/auth/me", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	req.AddCookie(cookie)
	meResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/auth/me failed: %v", err)
	}
	defer meResp.Body.Close()
	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated /api/auth/me status = %d", meResp.StatusCode)
	}

	var me auth.SessionUser
	decodeBody(t, meResp, &me)
	if me.Email != "admin@governa.com" {
		t.Errorf("email = %q", me.Email)
	}
	if me.Role != "ADMIN" {
		t.Errorf("role = %q, want ADMIN", me.Role)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	server := newAuthEnv(t)

	var result actionResult
	postForm(t, server.URL, "/api/admin/seed", nil, &result)

	tests := []url.Values{
		{"email": {"admin@governa.com"}, "password": {"wrong"}},
		{"email": {"nobody@governa.com"}, "password": {"admin123"}},
		{"email": {"admin@governa.com"}},
	}
	for _, form := range tests {
		resp, err := http.PostForm(server.URL+"/api/auth/login", form)
		if err != nil {
			t.Fatalf("login request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			t.Errorf("form %v accepted", form)
		}
		if len(resp.Cookies()) > 0 {
			t.Errorf("form %v: cookie set on rejected login", form)
		}
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	server := newAuthEnv(t)

	resp, err := http.PostForm(server.URL+"/api/auth/logout", nil)
	if err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	resp.Body.Close()

	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("logout set no cookie")
	}
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Errorf("logout cookie not expired: value=%q maxAge=%d", cleared.Value, cleared.MaxAge)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	server := newAuthEnv(t)

	var result actionResult
	for i := 0; i < 2; i++ {
		if status := postForm(t, server.URL, "/api/admin/seed", nil, &result); status != http.StatusOK {
			t.Fatalf("seed run %d failed: %d", i+1, status)
		}
	}

	// The account still works after re-seeding.
	resp, err := http.PostForm(server.URL+"/api/auth/login", url.Values{
		"email":    {"admin@governa.com"},
		"password": {"admin123"},
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login after double seed: status = %d", resp.StatusCode)
	}
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
