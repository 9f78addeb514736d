package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/config"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

var (
	// ErrInvalidSymbol is returned when an invalid symbol is provided
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrUnknownTimeframe is returned for a timeframe the provider does not support
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

// Provider defines the interface for market data providers.
//
// GetBars must return an empty slice for "no data"; errors are reserved for
// transport and auth failures. Returned bars are ordered by strictly
// increasing timestamp.
type Provider interface {
	// GetBars returns OHLCV bars for a symbol over a timeframe and date range
	GetBars(ctx context.Context, symbol string, timeframe models.Timeframe, start, end time.Time) ([]models.Bar, error)

	// GetLatestTrade returns the most recent trade for a symbol
	GetLatestTrade(ctx context.Context, symbol string) (*models.Trade, error)

	// GetLatestQuote returns the most recent bid/ask for a symbol
	GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetAsset returns instrument details for a symbol
	GetAsset(ctx context.Context, symbol string) (*models.Asset, error)

	// ListAssets returns all active equity assets, for search
	ListAssets(ctx context.Context) ([]models.Asset, error)

	// Name returns the provider type (e.g., "alpaca", "mock")
	Name() string
}

// NewProvider creates a provider from configuration
func NewProvider(cfg config.MarketDataConfig) (Provider, error) {
	switch cfg.Provider {
	case "alpaca":
		return NewAlpacaProvider(cfg), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Provider)
	}
}
