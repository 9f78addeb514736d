package sentiment

import (
	"context"
	"strings"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/cache"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// CachedAnalyzer wraps an Analyzer with the sentiment TTL sub-cache. The
// cache is consulted before any network call; streaming requests replay a
// cached report as a single chunk.
type CachedAnalyzer struct {
	inner Analyzer
	store cache.Store
	ttl   time.Duration
}

// NewCachedAnalyzer wraps inner with a TTL cache
func NewCachedAnalyzer(inner Analyzer, store cache.Store, ttl time.Duration) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, store: store, ttl: ttl}
}

func sentimentKey(symbol string) string {
	return "sentiment:" + strings.ToUpper(symbol)
}

func (c *CachedAnalyzer) lookup(ctx context.Context, symbol string) (models.SentimentReport, bool) {
	var cached models.SentimentReport
	found, err := c.store.Get(ctx, sentimentKey(symbol), &cached)
	if err != nil {
		logger.Warn("sentiment cache read failed",
			logger.String("symbol", symbol),
			logger.ErrorField(err),
		)
		return models.SentimentReport{}, false
	}
	if found {
		logger.CacheHitsTotal.WithLabelValues("sentiment", "hit").Inc()
		return cached, true
	}
	logger.CacheHitsTotal.WithLabelValues("sentiment", "miss").Inc()
	return models.SentimentReport{}, false
}

func (c *CachedAnalyzer) save(ctx context.Context, symbol string, report models.SentimentReport) {
	if err := c.store.Set(ctx, sentimentKey(symbol), report, c.ttl); err != nil {
		logger.Warn("sentiment cache write failed",
			logger.String("symbol", symbol),
			logger.ErrorField(err),
		)
	}
}

// Analyze returns the cached report when fresh, otherwise delegates and
// caches the result
func (c *CachedAnalyzer) Analyze(ctx context.Context, symbol string, news models.NewsBundle) (models.SentimentReport, error) {
	if report, found := c.lookup(ctx, symbol); found {
		return report, nil
	}

	report, err := c.inner.Analyze(ctx, symbol, news)
	if err != nil {
		return report, err
	}
	c.save(ctx, symbol, report)
	return report, nil
}

// AnalyzeStream replays a cached report as one chunk, otherwise streams from
// the inner analyzer and caches the terminal report
func (c *CachedAnalyzer) AnalyzeStream(ctx context.Context, symbol string, news models.NewsBundle, onChunk func(string)) (models.SentimentReport, error) {
	if report, found := c.lookup(ctx, symbol); found {
		if onChunk != nil && report.Summary != "" {
			onChunk(report.Summary)
		}
		return report, nil
	}

	report, err := c.inner.AnalyzeStream(ctx, symbol, news, onChunk)
	if err != nil {
		return report, err
	}
	c.save(ctx, symbol, report)
	return report, nil
}
