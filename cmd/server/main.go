package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/governa/governa/internal/ai"
	"github.com/governa/governa/internal/auth"
	"github.com/governa/governa/internal/middleware"
	"github.com/governa/governa/internal/service"
	"github.com/governa/governa/internal/storage/sqlite"
	"github.com/governa/governa/internal/viewcache"
	"github.com/governa/governa/pkg/logging"
)

const (
	defaultPort = 8080

	// viewTTL bounds staleness of cached page data between invalidations.
	viewTTL = time.Minute
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// fixedOffset builds the wall-clock zone meeting times are composed in.
// Defaults to GMT-5 (Colombia), which has no DST, so a fixed offset is exact.
func fixedOffset() *time.Location {
	hours, err := strconv.Atoi(getEnv("GOVERNA_UTC_OFFSET", "-5"))
	if err != nil {
		slog.Warn("Invalid GOVERNA_UTC_OFFSET, using -5", "value", os.Getenv("GOVERNA_UTC_OFFSET"))
		hours = -5
	}
	return time.FixedZone(fmt.Sprintf("GMT%+d", hours), hours*3600)
}

// generator builds the Gemini client, or a disabled stand-in when no API key
// is configured so every AI surface degrades with a uniform message.
func generator(ctx context.Context) ai.Generator {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		slog.Warn("GEMINI_API_KEY is not defined; AI features disabled")
		return ai.Disabled{}
	}
	gen, err := ai.NewGemini(ctx, apiKey, getEnv("GEMINI_MODEL", ai.DefaultModel))
	if err != nil {
		slog.Error("Failed to create Gemini client; AI features disabled", "error", err)
		return ai.Disabled{}
	}
	return gen
}

func main() {
	logging.Setup()
	logger := slog.Default()

	dbPath := getEnv("DB_PATH", "./data/governa.db")
	staticPath := getEnv("STATIC_PATH", "./static")
	secret := getEnv("JWT_SECRET_KEY", "super-secret-key-change-this")
	production := getEnv("ENV", "development") == "production"

	// Initialize SQLite storage
	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	loc := fixedOffset()
	cache := viewcache.New(viewTTL)
	gen := generator(context.Background())
	sessions := auth.NewSessionManager(secret, production)
	authenticator := auth.NewPasswordAuthenticator(store)

	mux := http.NewServeMux()

	service.NewAuthService(store, authenticator, sessions, logger).Register(mux)
	service.NewCRMService(store, cache).Register(mux)
	service.NewAgendaService(store, gen, cache, loc).Register(mux)
	service.NewDeskService(store, gen, cache, loc).Register(mux)
	service.NewAnalyticsService().Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Serve the frontend bundle
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		slog.Error("Failed to resolve static path", "error", err)
		os.Exit(1)
	}
	slog.Info("Serving static files", "path", staticDir)

	// Handle all non-API routes with static file server
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))

		// For SPA-like behavior, serve index.html for unknown paths
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})

	// Gate first so every route behind it sees the session; logging outermost.
	handler := middleware.Logging(
		middleware.Metrics(
			middleware.CORS(
				middleware.Gate(sessions)(mux),
			),
		),
	)

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	port, err := strconv.Atoi(getEnv("PORT", strconv.Itoa(defaultPort)))
	if err != nil {
		port = defaultPort
	}
	addr := fmt.Sprintf(":%d", port)
	slog.Info("Governa server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
