package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bahjat/content-insight/backend/internal/model"
	"github.com/Bahjat/content-insight/backend/internal/platform/cache"
	"github.com/Bahjat/content-insight/backend/internal/platform/config"
)

func testConfig() config.Config {
	return config.Config{
		Port:                 "0",
		LinkCheckEnabled:     false,
		LinkCheckConcurrency: 2,
		BatchConcurrency:     2,
		BatchItemTimeout:     5 * time.Second,
		MaxBatchSize:         5,
		TitleMinLength:       30,
		TitleMaxLength:       60,
		DescriptionMinLength: 50,
		DescriptionMaxLength: 160,
		MinWordCount:         300,
		ScoreGreenMin:        80,
		ScoreYellowMin:       50,
	}
}

func newTestHandler(t *testing.T, cfg config.Config, settings config.Settings) http.Handler {
	t.Helper()
	h, err := newHandler(cfg, settings, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newHandler failed: %v", err)
	}
	return h
}

func TestNewHandler_AnalyzeHTML(t *testing.T) {
	h := newTestHandler(t, testConfig(), config.DefaultSettings())

	body := `{"id":"post-1","title":"Hi","html":"<h1>Welcome</h1><p>Body text.</p>"}`
	req := httptest.NewRequest(http.MethodPost, "/analyze/html", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID response header")
	}

	var result model.PageAnalysis
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.ID != "post-1" || len(result.Checks) == 0 || result.Score >= 100 {
		t.Errorf("result = %+v", result)
	}
}

func TestNewHandler_SettingsDisableChecks(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Checks["title_length"] = true
	settings.Checks["open_graph"] = false
	h := newTestHandler(t, testConfig(), settings)

	body := `{"title":"A title that is comfortably within range","html":"<p>x</p>"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze/html", strings.NewReader(body)))

	var result model.PageAnalysis
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Checks) != 1 || result.Checks[0].ID != "title_length" || result.Score != 100 {
		t.Errorf("result = %+v", result)
	}
}

func TestNewHandler_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerSecond = 0.001
	cfg.RateLimitBurst = 1
	h := newTestHandler(t, cfg, config.DefaultSettings())

	codes := make([]int, 2)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestNewCacheBackend(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig()
	if b := newCacheBackend(t.Context(), cfg, log); b != nil {
		t.Errorf("zero TTL backend = %T, want nil", b)
	}

	cfg.CacheTTL = time.Minute
	cfg.CacheMaxEntries = 10
	b := newCacheBackend(t.Context(), cfg, log)
	if _, ok := b.(*cache.MemoryCache); !ok {
		t.Fatalf("backend = %T, want *cache.MemoryCache", b)
	}
	_ = b.Close()

	cfg.RedisURL = "not a redis url"
	b = newCacheBackend(t.Context(), cfg, log)
	if _, ok := b.(*cache.MemoryCache); !ok {
		t.Errorf("backend with bad REDIS_URL = %T, want memory fallback", b)
	}
	_ = b.Close()
}
