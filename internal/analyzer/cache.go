package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Bahjat/content-insight/backend/internal/model"
	"github.com/Bahjat/content-insight/backend/internal/platform/cache"
)

// CachingProvider serves repeated URL analyses from a cache backend.
// Ad-hoc HTML analyses are never cached. Cache failures are logged and
// otherwise ignored.
type CachingProvider struct {
	next    PageInsightProvider
	backend cache.Backend
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCachingProvider wraps next. Results are kept for ttl.
func NewCachingProvider(next PageInsightProvider, backend cache.Backend, ttl time.Duration, logger *slog.Logger) *CachingProvider {
	return &CachingProvider{next: next, backend: backend, ttl: ttl, logger: logger}
}

func (c *CachingProvider) Analyze(ctx context.Context, targetURL string) (*model.PageAnalysis, error) {
	key := analysisCacheKey(targetURL)

	data, found, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("analysis cache read failed", "url", targetURL, "error", err)
	}
	if found {
		var cached model.PageAnalysis
		if err := json.Unmarshal(data, &cached); err == nil {
			c.logger.Debug("analysis cache hit", "url", targetURL)
			return &cached, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "url", targetURL, "error", err)
	}

	result, err := c.next.Analyze(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(result); err != nil {
		c.logger.Warn("analysis cache encode failed", "url", targetURL, "error", err)
	} else if err := c.backend.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.Warn("analysis cache write failed", "url", targetURL, "error", err)
	}
	return result, nil
}

func (c *CachingProvider) AnalyzeHTML(ctx context.Context, in model.HTMLInput) (*model.PageAnalysis, error) {
	return c.next.AnalyzeHTML(ctx, in)
}

func analysisCacheKey(targetURL string) string {
	sum := sha256.Sum256([]byte(targetURL))
	return "analysis:" + hex.EncodeToString(sum[:])
}
