package data

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

// MockProvider is a scripted in-memory provider used by tests and the "mock"
// provider mode. All responses are set up front; unset lookups return empty
// results, not errors, matching the provider contract for "no data".
type MockProvider struct {
	mu     sync.RWMutex
	bars   map[string]map[models.Timeframe][]models.Bar
	trades map[string]*models.Trade
	quotes map[string]*models.Quote
	assets map[string]*models.Asset
	errs   map[string]error

	barCalls int
}

// NewMockProvider creates an empty mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		bars:   make(map[string]map[models.Timeframe][]models.Bar),
		trades: make(map[string]*models.Trade),
		quotes: make(map[string]*models.Quote),
		assets: make(map[string]*models.Asset),
		errs:   make(map[string]error),
	}
}

// Name returns the provider type
func (m *MockProvider) Name() string {
	return "mock"
}

// SetBars scripts the bars returned for a symbol and timeframe
func (m *MockProvider) SetBars(symbol string, timeframe models.Timeframe, bars []models.Bar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	symbol = strings.ToUpper(symbol)
	if m.bars[symbol] == nil {
		m.bars[symbol] = make(map[models.Timeframe][]models.Bar)
	}
	m.bars[symbol][timeframe] = bars
}

// SetTrade scripts the latest trade for a symbol
func (m *MockProvider) SetTrade(symbol string, trade *models.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[strings.ToUpper(symbol)] = trade
}

// SetQuote scripts the latest quote for a symbol
func (m *MockProvider) SetQuote(symbol string, quote *models.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[strings.ToUpper(symbol)] = quote
}

// SetAsset scripts the asset details for a symbol
func (m *MockProvider) SetAsset(asset *models.Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[strings.ToUpper(asset.Symbol)] = asset
}

// FailWith makes every call for symbol return err
func (m *MockProvider) FailWith(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[strings.ToUpper(symbol)] = err
}

// BarCalls returns the number of GetBars invocations
func (m *MockProvider) BarCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.barCalls
}

// GetBars returns scripted bars filtered to [start, end]
func (m *MockProvider) GetBars(_ context.Context, symbol string, timeframe models.Timeframe, start, end time.Time) ([]models.Bar, error) {
	m.mu.Lock()
	m.barCalls++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	symbol = strings.ToUpper(symbol)
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}

	all := m.bars[symbol][timeframe]
	bars := make([]models.Bar, 0, len(all))
	for _, bar := range all {
		if bar.Timestamp.Before(start) || bar.Timestamp.After(end) {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// GetLatestTrade returns the scripted trade for a symbol
func (m *MockProvider) GetLatestTrade(_ context.Context, symbol string) (*models.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbol = strings.ToUpper(symbol)
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	if trade := m.trades[symbol]; trade != nil {
		return trade, nil
	}
	return &models.Trade{}, nil
}

// GetLatestQuote returns the scripted quote for a symbol
func (m *MockProvider) GetLatestQuote(_ context.Context, symbol string) (*models.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbol = strings.ToUpper(symbol)
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	if quote := m.quotes[symbol]; quote != nil {
		return quote, nil
	}
	return &models.Quote{}, nil
}

// GetAsset returns the scripted asset for a symbol
func (m *MockProvider) GetAsset(_ context.Context, symbol string) (*models.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbol = strings.ToUpper(symbol)
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	if asset := m.assets[symbol]; asset != nil {
		return asset, nil
	}
	return &models.Asset{Symbol: symbol}, nil
}

// ListAssets returns all scripted assets
func (m *MockProvider) ListAssets(_ context.Context) ([]models.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assets := make([]models.Asset, 0, len(m.assets))
	for _, asset := range m.assets {
		assets = append(assets, *asset)
	}
	return assets, nil
}
