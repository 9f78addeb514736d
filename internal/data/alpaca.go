package data

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/mohamedkhairy/stock-pulse/internal/config"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

// AlpacaProvider serves bars, trades and quotes from the Alpaca data API and
// asset details from the broker API
type AlpacaProvider struct {
	data   *marketdata.Client
	broker *alpaca.Client
	feed   marketdata.Feed
}

// NewAlpacaProvider creates an Alpaca-backed provider
func NewAlpacaProvider(cfg config.MarketDataConfig) *AlpacaProvider {
	return &AlpacaProvider{
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			BaseURL:   cfg.DataURL,
		}),
		broker: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			BaseURL:   cfg.BrokerURL,
		}),
		feed: marketdata.Feed(cfg.Feed),
	}
}

// Name returns the provider type
func (p *AlpacaProvider) Name() string {
	return "alpaca"
}

func alpacaTimeframe(timeframe models.Timeframe) (marketdata.TimeFrame, error) {
	switch timeframe {
	case models.TimeframeMinute:
		return marketdata.OneMin, nil
	case models.TimeframeHour:
		return marketdata.OneHour, nil
	case models.TimeframeDay:
		return marketdata.OneDay, nil
	default:
		return marketdata.TimeFrame{}, ErrUnknownTimeframe
	}
}

// GetBars returns OHLCV bars for a symbol over a timeframe and date range
func (p *AlpacaProvider) GetBars(_ context.Context, symbol string, timeframe models.Timeframe, start, end time.Time) ([]models.Bar, error) {
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	tf, err := alpacaTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	raw, err := p.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     start,
		End:       end,
		Feed:      p.feed,
	})
	if err != nil {
		return nil, models.NewProviderError("alpaca.bars", err)
	}

	bars := make([]models.Bar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    int64(b.Volume),
		})
	}
	return bars, nil
}

// GetLatestTrade returns the most recent trade for a symbol
func (p *AlpacaProvider) GetLatestTrade(_ context.Context, symbol string) (*models.Trade, error) {
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	trade, err := p.data.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{Feed: p.feed})
	if err != nil {
		return nil, models.NewProviderError("alpaca.latest_trade", err)
	}
	return &models.Trade{
		Price:     trade.Price,
		Timestamp: trade.Timestamp,
	}, nil
}

// GetLatestQuote returns the most recent bid/ask for a symbol
func (p *AlpacaProvider) GetLatestQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	quote, err := p.data.GetLatestQuote(symbol, marketdata.GetLatestQuoteRequest{Feed: p.feed})
	if err != nil {
		return nil, models.NewProviderError("alpaca.latest_quote", err)
	}
	return &models.Quote{
		BidPrice:  quote.BidPrice,
		AskPrice:  quote.AskPrice,
		BidSize:   int64(quote.BidSize),
		AskSize:   int64(quote.AskSize),
		Timestamp: quote.Timestamp,
	}, nil
}

// GetAsset returns instrument details for a symbol
func (p *AlpacaProvider) GetAsset(_ context.Context, symbol string) (*models.Asset, error) {
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	asset, err := p.broker.GetAsset(symbol)
	if err != nil {
		return nil, models.NewProviderError("alpaca.asset", err)
	}
	return &models.Asset{
		Symbol:   asset.Symbol,
		Name:     asset.Name,
		Exchange: asset.Exchange,
		Class:    string(asset.Class),
	}, nil
}

// ListAssets returns all active US equity assets
func (p *AlpacaProvider) ListAssets(_ context.Context) ([]models.Asset, error) {
	status := "active"
	assets, err := p.broker.GetAssets(alpaca.GetAssetsRequest{
		Status:     status,
		AssetClass: "us_equity",
	})
	if err != nil {
		return nil, models.NewProviderError("alpaca.assets", err)
	}

	result := make([]models.Asset, 0, len(assets))
	for _, a := range assets {
		result = append(result, models.Asset{
			Symbol:   a.Symbol,
			Name:     a.Name,
			Exchange: a.Exchange,
			Class:    string(a.Class),
		})
	}
	return result, nil
}
