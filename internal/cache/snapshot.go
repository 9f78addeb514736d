package cache

import (
	"strings"
	"sync"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

// SnapshotCache maps uppercased symbols to their last successfully computed
// snapshot.
//
// Entries are created on first successful fetch and overwritten in place by
// whole-value replacement on every subsequent refresh. There is no eviction
// and no freshness check on read: the contract is "last successfully computed
// value, however old". Concurrent compute cycles for one symbol are allowed
// and the last writer wins.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]*models.Snapshot
}

// NewSnapshotCache creates an empty snapshot cache
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[string]*models.Snapshot),
	}
}

// Get returns the cached snapshot for symbol, if any. Reads never block on
// fetches.
func (c *SnapshotCache) Get(symbol string) (*models.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.entries[strings.ToUpper(symbol)]
	return snap, ok
}

// Put stores snap under its uppercased symbol, fully replacing any previous
// entry
func (c *SnapshotCache) Put(snap *models.Snapshot) {
	key := strings.ToUpper(snap.Symbol)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = snap
}

// Len returns the number of cached symbols
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Symbols returns the cached symbol keys
func (c *SnapshotCache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	symbols := make([]string, 0, len(c.entries))
	for symbol := range c.entries {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// Placeholder synthesizes the loading snapshot returned while a symbol's
// first fetch-and-compute cycle runs in the background. All numeric fields
// are zero and the loading flag is set. Placeholders are never stored.
func Placeholder(symbol string) *models.Snapshot {
	symbol = strings.ToUpper(symbol)
	return &models.Snapshot{
		Symbol:      symbol,
		CompanyName: symbol + " Inc.",
		Exchange:    "Loading...",
		Sector:      "...",
		Industry:    "...",
		EMAs:        map[string]float64{},
		Crossovers:  []models.CrossoverEvent{},
		TopNews:     []models.NewsArticle{},
		News:        []models.NewsArticle{},
		Loading:     true,
	}
}
