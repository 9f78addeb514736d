// Package api exposes the REST surface: quote snapshots, symbol search and
// operational endpoints.
package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/stock-pulse/internal/cache"
	"github.com/mohamedkhairy/stock-pulse/internal/data"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/internal/quote"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// assetListTTL bounds how long the symbol universe is reused for search
const assetListTTL = time.Hour

// BackgroundFetcher schedules a non-blocking snapshot build for a symbol
type BackgroundFetcher interface {
	FetchAsync(symbol string)
}

// QuoteHandler handles quote and search endpoints
type QuoteHandler struct {
	snapshots  *cache.SnapshotCache
	supervisor BackgroundFetcher
	provider   data.Provider

	mu           sync.Mutex
	assets       []models.Asset
	assetsLoaded time.Time
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(snapshots *cache.SnapshotCache, supervisor BackgroundFetcher, provider data.Provider) *QuoteHandler {
	return &QuoteHandler{
		snapshots:  snapshots,
		supervisor: supervisor,
		provider:   provider,
	}
}

// GetQuote handles GET /api/v1/quotes/{symbol}.
//
// A cached snapshot is returned as-is. A cache miss schedules a background
// build and answers immediately with a loading placeholder; the placeholder
// is never stored, so the next request either hits the finished snapshot or
// gets a fresh placeholder.
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
	if symbol == "" {
		respondWithError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	if snap, ok := h.snapshots.Get(symbol); ok {
		logger.CacheHitsTotal.WithLabelValues("snapshot", "hit").Inc()
		respondWithJSON(w, http.StatusOK, snap)
		return
	}

	logger.CacheHitsTotal.WithLabelValues("snapshot", "miss").Inc()
	h.supervisor.FetchAsync(symbol)
	respondWithJSON(w, http.StatusOK, cache.Placeholder(symbol))
}

// SearchSymbols handles GET /api/v1/search/{query}
func (h *QuoteHandler) SearchSymbols(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(mux.Vars(r)["query"])
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Query is required")
		return
	}

	assets, err := h.assetList(r)
	if err != nil {
		logger.Warn("asset list fetch failed",
			logger.ErrorField(err),
		)
		respondWithError(w, http.StatusServiceUnavailable, "Symbol search unavailable")
		return
	}

	results := quote.SearchAssets(assets, query)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// assetList returns the cached symbol universe, refreshing it when stale
func (h *QuoteHandler) assetList(r *http.Request) ([]models.Asset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.assets != nil && time.Since(h.assetsLoaded) < assetListTTL {
		return h.assets, nil
	}

	assets, err := h.provider.ListAssets(r.Context())
	if err != nil {
		// Serve the stale list rather than failing the search
		if h.assets != nil {
			return h.assets, nil
		}
		return nil, err
	}

	h.assets = assets
	h.assetsLoaded = time.Now()
	return assets, nil
}

// HotSymbols handles GET /api/v1/symbols: the refresh hot set plus whatever
// else has been cached on demand
func (h *QuoteHandler) HotSymbols(w http.ResponseWriter, r *http.Request) {
	symbols := h.snapshots.Symbols()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}
