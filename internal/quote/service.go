// Package quote assembles per-symbol snapshots from market data, indicators,
// premarket analysis, news and sentiment.
package quote

import (
	"context"
	"strings"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/cache"
	"github.com/mohamedkhairy/stock-pulse/internal/data"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/internal/premarket"
	"github.com/mohamedkhairy/stock-pulse/internal/sentiment"
	"github.com/mohamedkhairy/stock-pulse/pkg/indicator"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// marketLocation anchors day boundaries to the exchange timezone
var marketLocation = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("tzdata missing America/New_York: " + err.Error())
	}
	return loc
}()

// NewsSource returns the news bundle for a symbol
type NewsSource interface {
	Get(ctx context.Context, symbol string) (models.NewsBundle, error)
}

// Service builds complete snapshots for symbols. Every sub-computation
// degrades independently: a failed news fetch or missing history never
// aborts the snapshot, only the core price fetch is load-bearing.
type Service struct {
	provider  data.Provider
	emas      *indicator.Engine
	premarket *premarket.Extractor
	news      NewsSource
	sentiment sentiment.Analyzer
	cache     *cache.SnapshotCache
	now       func() time.Time
}

// NewService creates a snapshot service
func NewService(provider data.Provider, news NewsSource, analyzer sentiment.Analyzer, snapshots *cache.SnapshotCache) *Service {
	return &Service{
		provider:  provider,
		emas:      indicator.NewEngine(provider),
		premarket: premarket.NewExtractor(provider),
		news:      news,
		sentiment: analyzer,
		cache:     snapshots,
		now:       time.Now,
	}
}

// Cache returns the snapshot cache the service publishes into
func (s *Service) Cache() *cache.SnapshotCache {
	return s.cache
}

// FetchAndCompute builds a fresh snapshot for symbol and atomically replaces
// the cached one. The returned snapshot is complete for all sub-computations
// that succeeded; failed ones leave their fields at the degraded values. An
// error is returned only when no current price could be obtained.
func (s *Service) FetchAndCompute(ctx context.Context, symbol string) (*models.Snapshot, error) {
	symbol = strings.ToUpper(symbol)
	started := time.Now()

	snap, err := s.build(ctx, symbol)
	if err != nil {
		logger.RefreshCyclesTotal.WithLabelValues(symbol, "error").Inc()
		logger.Warn("snapshot build failed",
			logger.String("symbol", symbol),
			logger.ErrorField(err),
		)
		return nil, err
	}

	s.cache.Put(snap)
	logger.RefreshCyclesTotal.WithLabelValues(symbol, "success").Inc()
	logger.FetchDuration.WithLabelValues("snapshot").Observe(time.Since(started).Seconds())
	return snap, nil
}

func (s *Service) build(ctx context.Context, symbol string) (*models.Snapshot, error) {
	snap := &models.Snapshot{
		Symbol:     symbol,
		EMAs:       map[string]float64{},
		Crossovers: []models.CrossoverEvent{},
		TopNews:    []models.NewsArticle{},
		News:       []models.NewsArticle{},
	}

	s.applyAsset(ctx, snap)

	price, err := s.applyPricing(ctx, snap)
	if err != nil {
		return nil, err
	}

	s.applyDayRange(ctx, snap, price)
	s.applyYearRange(ctx, snap, price)

	snap.EMAs = s.emas.Compute(ctx, symbol)
	s.applyPremarket(ctx, snap)
	s.applyNews(ctx, snap)

	snap.Timestamp = s.now().UTC().Format(time.RFC3339)
	return snap, nil
}

// applyAsset fills company details, degrading to the bare symbol when the
// provider has no asset record
func (s *Service) applyAsset(ctx context.Context, snap *models.Snapshot) {
	asset, err := s.provider.GetAsset(ctx, snap.Symbol)
	if err != nil || asset == nil {
		if err != nil {
			logger.Debug("asset lookup failed",
				logger.String("symbol", snap.Symbol),
				logger.ErrorField(err),
			)
		}
		snap.CompanyName = snap.Symbol
		return
	}

	snap.CompanyName = asset.Name
	if snap.CompanyName == "" {
		snap.CompanyName = snap.Symbol
	}
	snap.Exchange = asset.Exchange
	snap.LogoURL = LogoURL(asset.Name)
}

// applyPricing fetches the latest trade and quote. The trade price is the
// one field a snapshot cannot exist without.
func (s *Service) applyPricing(ctx context.Context, snap *models.Snapshot) (float64, error) {
	trade, err := s.provider.GetLatestTrade(ctx, snap.Symbol)
	if err != nil {
		return 0, err
	}
	if trade == nil || trade.Price <= 0 {
		return 0, models.ErrNoPrice
	}
	snap.Price = indicator.Round2(trade.Price)

	quote, err := s.provider.GetLatestQuote(ctx, snap.Symbol)
	if err != nil {
		logger.Debug("quote lookup failed",
			logger.String("symbol", snap.Symbol),
			logger.ErrorField(err),
		)
		return trade.Price, nil
	}
	if quote != nil {
		snap.Bid = indicator.Round2(quote.BidPrice)
		snap.Ask = indicator.Round2(quote.AskPrice)
		snap.BidSize = quote.BidSize
		snap.AskSize = quote.AskSize
	}
	return trade.Price, nil
}

// applyDayRange derives today's high/low from the day's minute bars, falling
// back to the current price when none exist
func (s *Service) applyDayRange(ctx context.Context, snap *models.Snapshot, price float64) {
	now := s.now().In(marketLocation)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, marketLocation)

	bars, err := s.provider.GetBars(ctx, snap.Symbol, models.TimeframeMinute, dayStart, dayStart.Add(24*time.Hour))
	if err != nil || len(bars) == 0 {
		if err != nil {
			logger.Debug("day range fetch failed",
				logger.String("symbol", snap.Symbol),
				logger.ErrorField(err),
			)
		}
		snap.DayHigh = indicator.Round2(price)
		snap.DayLow = indicator.Round2(price)
		return
	}

	high, low := bars[0].High, bars[0].Low
	for _, bar := range bars[1:] {
		if bar.High > high {
			high = bar.High
		}
		if bar.Low < low {
			low = bar.Low
		}
	}
	snap.DayHigh = indicator.Round2(high)
	snap.DayLow = indicator.Round2(low)
}

// applyYearRange derives the 52-week high/low from daily bars, falling back
// to the current price when no history exists
func (s *Service) applyYearRange(ctx context.Context, snap *models.Snapshot, price float64) {
	end := s.now()
	start := end.AddDate(0, 0, -365)

	bars, err := s.provider.GetBars(ctx, snap.Symbol, models.TimeframeDay, start, end)
	if err != nil || len(bars) == 0 {
		if err != nil {
			logger.Debug("52-week range fetch failed",
				logger.String("symbol", snap.Symbol),
				logger.ErrorField(err),
			)
		}
		snap.Week52High = indicator.Round2(price)
		snap.Week52Low = indicator.Round2(price)
		return
	}

	high, low := bars[0].High, bars[0].Low
	for _, bar := range bars[1:] {
		if bar.High > high {
			high = bar.High
		}
		if bar.Low < low {
			low = bar.Low
		}
	}
	snap.Week52High = indicator.Round2(high)
	snap.Week52Low = indicator.Round2(low)
}

// applyPremarket fills premarket levels and runs crossover detection against
// the already-computed EMAs
func (s *Service) applyPremarket(ctx context.Context, snap *models.Snapshot) {
	window, err := s.premarket.Window(ctx, snap.Symbol)
	if err != nil {
		logger.Debug("premarket window fetch failed",
			logger.String("symbol", snap.Symbol),
			logger.ErrorField(err),
		)
		return
	}

	levels, err := s.premarket.Levels(ctx, snap.Symbol)
	if err != nil {
		logger.Debug("premarket levels fetch failed",
			logger.String("symbol", snap.Symbol),
			logger.ErrorField(err),
		)
	} else {
		snap.PremarketLevels = levels
	}

	snap.Crossovers = premarket.DetectCrossovers(snap.Symbol, window, snap.EMAs)
}

// applyNews fetches news and, only when articles exist, the sentiment report
func (s *Service) applyNews(ctx context.Context, snap *models.Snapshot) {
	bundle, err := s.news.Get(ctx, snap.Symbol)
	if err != nil {
		logger.Debug("news fetch failed",
			logger.String("symbol", snap.Symbol),
			logger.ErrorField(err),
		)
		return
	}
	snap.TopNews = bundle.Top
	snap.News = bundle.Regular
	if snap.TopNews == nil {
		snap.TopNews = []models.NewsArticle{}
	}
	if snap.News == nil {
		snap.News = []models.NewsArticle{}
	}

	if bundle.Empty() || s.sentiment == nil {
		return
	}
	report, err := s.sentiment.Analyze(ctx, snap.Symbol, bundle)
	if err != nil {
		logger.Debug("sentiment analysis failed",
			logger.String("symbol", snap.Symbol),
			logger.ErrorField(err),
		)
		return
	}
	snap.Sentiment = &report
}
