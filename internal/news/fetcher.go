// Package news fetches and classifies recent news for a symbol.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/cache"
	"github.com/mohamedkhairy/stock-pulse/internal/config"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

const maxDescriptionLen = 150

// polygonResponse is the shape of the Polygon ticker news endpoint
type polygonResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Results []struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ArticleURL   string `json:"article_url"`
		PublishedUTC string `json:"published_utc"`
		Publisher    struct {
			Name string `json:"name"`
		} `json:"publisher"`
	} `json:"results"`
}

// Fetcher retrieves recent news for a symbol and classifies it into top and
// regular items. Results are cached in the news sub-cache and the cache is
// consulted before any network fetch.
type Fetcher struct {
	apiKey   string
	baseURL  string
	lookback time.Duration
	limit    int
	client   *http.Client
	store    cache.Store
	ttl      time.Duration
	now      func() time.Time
}

// NewFetcher creates a news fetcher with the given TTL sub-cache
func NewFetcher(cfg config.NewsConfig, store cache.Store, ttl time.Duration) *Fetcher {
	return &Fetcher{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		lookback: cfg.Lookback,
		limit:    cfg.Limit,
		client:   &http.Client{Timeout: cfg.Timeout},
		store:    store,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the classified news bundle for symbol, from cache when fresh
func (f *Fetcher) Get(ctx context.Context, symbol string) (models.NewsBundle, error) {
	symbol = strings.ToUpper(symbol)
	key := "news:" + symbol

	var cached models.NewsBundle
	found, err := f.store.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("news cache read failed",
			logger.String("symbol", symbol),
			logger.ErrorField(err),
		)
	}
	if found {
		logger.CacheHitsTotal.WithLabelValues("news", "hit").Inc()
		return cached, nil
	}
	logger.CacheHitsTotal.WithLabelValues("news", "miss").Inc()

	bundle, err := f.fetch(ctx, symbol)
	if err != nil {
		return models.NewsBundle{Top: []models.NewsArticle{}, Regular: []models.NewsArticle{}}, err
	}

	if err := f.store.Set(ctx, key, bundle, f.ttl); err != nil {
		logger.Warn("news cache write failed",
			logger.String("symbol", symbol),
			logger.ErrorField(err),
		)
	}
	return bundle, nil
}

func (f *Fetcher) fetch(ctx context.Context, symbol string) (models.NewsBundle, error) {
	empty := models.NewsBundle{Top: []models.NewsArticle{}, Regular: []models.NewsArticle{}}

	if f.apiKey == "" {
		logger.Debug("news API key not configured",
			logger.String("symbol", symbol),
		)
		return empty, nil
	}

	since := f.now().Add(-f.lookback).Format("2006-01-02")
	query := url.Values{}
	query.Set("ticker", symbol)
	query.Set("published_utc.gte", since)
	query.Set("limit", strconv.Itoa(f.limit))
	query.Set("order", "desc")
	query.Set("apiKey", f.apiKey)

	endpoint := f.baseURL + "/v2/reference/news?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return empty, models.NewProviderError("news.request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return empty, models.NewProviderError("news.fetch", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusForbidden:
		return empty, models.NewProviderError("news.fetch", fmt.Errorf("invalid or missing API key"))
	case http.StatusTooManyRequests:
		return empty, models.NewProviderError("news.fetch", fmt.Errorf("rate limit exceeded"))
	default:
		return empty, models.NewProviderError("news.fetch", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var decoded polygonResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return empty, models.NewParseError("news.decode", err)
	}
	if decoded.Status == "ERROR" {
		return empty, models.NewProviderError("news.fetch", fmt.Errorf("%s", decoded.Error))
	}

	articles := make([]models.NewsArticle, 0, len(decoded.Results))
	for _, item := range decoded.Results {
		description := item.Description
		if len(description) > maxDescriptionLen {
			description = description[:maxDescriptionLen]
		}
		source := item.Publisher.Name
		if source == "" {
			source = "Unknown"
		}
		articles = append(articles, models.NewsArticle{
			Title:       item.Title,
			Description: description,
			URL:         item.ArticleURL,
			PublishedAt: item.PublishedUTC,
			Source:      source,
		})
	}

	bundle := Classify(articles)
	logger.Debug("fetched news",
		logger.String("symbol", symbol),
		logger.Int("top", len(bundle.Top)),
		logger.Int("regular", len(bundle.Regular)),
	)
	return bundle, nil
}
