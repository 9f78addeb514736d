package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/stock-pulse/internal/cache"
	"github.com/mohamedkhairy/stock-pulse/internal/data"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

type stubNews struct {
	bundle models.NewsBundle
	err    error
	calls  int
}

func (s *stubNews) Get(ctx context.Context, symbol string) (models.NewsBundle, error) {
	s.calls++
	return s.bundle, s.err
}

type stubAnalyzer struct {
	report models.SentimentReport
	calls  int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, symbol string, news models.NewsBundle) (models.SentimentReport, error) {
	s.calls++
	return s.report, nil
}

func (s *stubAnalyzer) AnalyzeStream(ctx context.Context, symbol string, news models.NewsBundle, onChunk func(string)) (models.SentimentReport, error) {
	s.calls++
	return s.report, nil
}

// dailyBars generates count daily bars ending two days ago, flat at price
func dailyBars(symbol string, count int, price float64) []models.Bar {
	bars := make([]models.Bar, 0, count)
	start := time.Now().AddDate(0, 0, -(count + 2))
	for i := 0; i < count; i++ {
		ts := start.AddDate(0, 0, i)
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: ts,
			Open:      price,
			High:      price + 2,
			Low:       price - 2,
			Close:     price,
			Volume:    1000,
		})
	}
	return bars
}

// premarketMinuteBars generates today's minute bars between 04:00 and 09:29
// exchange time
func premarketMinuteBars(symbol string, count int, price float64) []models.Bar {
	loc, _ := time.LoadLocation("America/New_York")
	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 4, 0, 0, 0, loc)
	bars := make([]models.Bar, 0, count)
	for i := 0; i < count; i++ {
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    500,
		})
	}
	return bars
}

func newTestService(provider *data.MockProvider, news NewsSource, analyzer *stubAnalyzer) *Service {
	if news == nil {
		news = &stubNews{}
	}
	svc := NewService(provider, news, analyzer, cache.NewSnapshotCache())
	svc.now = func() time.Time { return time.Now() }
	return svc
}

func TestFetchAndComputeBuildsSnapshot(t *testing.T) {
	provider := data.NewMockProvider()
	provider.SetAsset(&models.Asset{Symbol: "TSLA", Name: "Tesla Inc", Exchange: "NASDAQ"})
	provider.SetTrade("TSLA", &models.Trade{Price: 250.456, Timestamp: time.Now()})
	provider.SetQuote("TSLA", &models.Quote{BidPrice: 250.40, AskPrice: 250.50, BidSize: 3, AskSize: 7})
	provider.SetBars("TSLA", models.TimeframeDay, dailyBars("TSLA", 60, 200))
	provider.SetBars("TSLA", models.TimeframeMinute, premarketMinuteBars("TSLA", 30, 248))

	svc := newTestService(provider, nil, nil)
	snap, err := svc.FetchAndCompute(context.Background(), "tsla")
	require.NoError(t, err)

	assert.Equal(t, "TSLA", snap.Symbol)
	assert.Equal(t, "Tesla Inc", snap.CompanyName)
	assert.Equal(t, "NASDAQ", snap.Exchange)
	assert.Equal(t, "https://logo.clearbit.com/tesla.com", snap.LogoURL)
	assert.Equal(t, 250.46, snap.Price)
	assert.Equal(t, 250.40, snap.Bid)
	assert.Equal(t, 250.50, snap.Ask)
	assert.Equal(t, int64(3), snap.BidSize)
	assert.Equal(t, int64(7), snap.AskSize)

	// Today's minute bars drive the day range
	assert.Equal(t, 249.0, snap.DayHigh)
	assert.Equal(t, 247.0, snap.DayLow)

	// Daily bars drive the 52-week range
	assert.Equal(t, 202.0, snap.Week52High)
	assert.Equal(t, 198.0, snap.Week52Low)

	// Flat daily history converges the daily EMAs onto the price
	assert.Equal(t, 200.0, snap.EMAs["daily_ema_20"])
	assert.Equal(t, 200.0, snap.EMAs["daily_ema_50"])
	assert.NotContains(t, snap.EMAs, "1h_ema_34")

	require.NotNil(t, snap.PremarketLevels)
	assert.Equal(t, 249.0, snap.PremarketLevels.High)
	assert.Equal(t, 247.0, snap.PremarketLevels.Low)
	assert.False(t, snap.PremarketLevels.Proxy)

	assert.NotNil(t, snap.Crossovers)
	assert.False(t, snap.Loading)
	assert.NotEmpty(t, snap.Timestamp)

	cached, ok := svc.Cache().Get("TSLA")
	require.True(t, ok)
	assert.Equal(t, snap, cached)
}

func TestFetchAndComputeIsIdempotent(t *testing.T) {
	provider := data.NewMockProvider()
	provider.SetTrade("AAPL", &models.Trade{Price: 180, Timestamp: time.Now()})
	provider.SetBars("AAPL", models.TimeframeDay, dailyBars("AAPL", 60, 175))

	svc := newTestService(provider, nil, nil)
	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	first, err := svc.FetchAndCompute(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := svc.FetchAndCompute(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFetchAndComputeFailsWithoutPrice(t *testing.T) {
	provider := data.NewMockProvider()
	provider.FailWith("GME", errors.New("connection refused"))

	svc := newTestService(provider, nil, nil)
	_, err := svc.FetchAndCompute(context.Background(), "GME")
	require.Error(t, err)

	_, ok := svc.Cache().Get("GME")
	assert.False(t, ok, "failed build must not publish a snapshot")
}

func TestFetchAndComputeRangeFallbacks(t *testing.T) {
	provider := data.NewMockProvider()
	provider.SetTrade("NEWCO", &models.Trade{Price: 12.345, Timestamp: time.Now()})

	svc := newTestService(provider, nil, nil)
	snap, err := svc.FetchAndCompute(context.Background(), "NEWCO")
	require.NoError(t, err)

	// With no bars at all every range collapses to the current price
	assert.Equal(t, 12.35, snap.Price)
	assert.Equal(t, 12.35, snap.DayHigh)
	assert.Equal(t, 12.35, snap.DayLow)
	assert.Equal(t, 12.35, snap.Week52High)
	assert.Equal(t, 12.35, snap.Week52Low)
	assert.Empty(t, snap.EMAs)
	assert.Nil(t, snap.PremarketLevels)
	assert.Equal(t, "NEWCO", snap.CompanyName)
}

func TestFetchAndComputeDegradesOnNewsFailure(t *testing.T) {
	provider := data.NewMockProvider()
	provider.SetTrade("TSLA", &models.Trade{Price: 250, Timestamp: time.Now()})

	news := &stubNews{err: errors.New("news API down")}
	analyzer := &stubAnalyzer{}
	svc := newTestService(provider, news, analyzer)

	snap, err := svc.FetchAndCompute(context.Background(), "TSLA")
	require.NoError(t, err)

	assert.Empty(t, snap.TopNews)
	assert.Empty(t, snap.News)
	assert.Nil(t, snap.Sentiment)
	assert.Equal(t, 0, analyzer.calls, "sentiment must not run without news")
}

func TestSentimentRunsOnlyWithNews(t *testing.T) {
	provider := data.NewMockProvider()
	provider.SetTrade("TSLA", &models.Trade{Price: 250, Timestamp: time.Now()})

	news := &stubNews{bundle: models.NewsBundle{
		Top:     []models.NewsArticle{{Title: "Upgrade"}},
		Regular: []models.NewsArticle{{Title: "Factory news"}},
	}}
	analyzer := &stubAnalyzer{report: models.SentimentReport{Sentiment: "bullish", Confidence: "high"}}
	svc := newTestService(provider, news, analyzer)

	snap, err := svc.FetchAndCompute(context.Background(), "TSLA")
	require.NoError(t, err)

	assert.Equal(t, 1, analyzer.calls)
	require.NotNil(t, snap.Sentiment)
	assert.Equal(t, "bullish", snap.Sentiment.Sentiment)
	assert.Len(t, snap.TopNews, 1)
	assert.Len(t, snap.News, 1)
}

func TestFetchAndComputeReplacesWholeSnapshot(t *testing.T) {
	provider := data.NewMockProvider()
	provider.SetTrade("TSLA", &models.Trade{Price: 250, Timestamp: time.Now()})
	provider.SetBars("TSLA", models.TimeframeDay, dailyBars("TSLA", 60, 200))

	svc := newTestService(provider, nil, nil)
	first, err := svc.FetchAndCompute(context.Background(), "TSLA")
	require.NoError(t, err)
	require.Contains(t, first.EMAs, "daily_ema_20")

	// History disappears: the next snapshot must not retain stale EMAs
	provider.SetBars("TSLA", models.TimeframeDay, nil)
	second, err := svc.FetchAndCompute(context.Background(), "TSLA")
	require.NoError(t, err)

	cached, ok := svc.Cache().Get("TSLA")
	require.True(t, ok)
	assert.Equal(t, second, cached)
	assert.NotContains(t, cached.EMAs, "daily_ema_20")
}
