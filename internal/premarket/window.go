// Package premarket isolates the premarket sub-window of a trading day and
// detects EMA crossovers inside it.
package premarket

import (
	"context"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/indicator"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// The premarket window runs 04:00-09:29 exchange-local, inclusive on both
// ends. Regular trading hours run 09:30-16:00.
const (
	windowStartMinute  = 4 * 60
	windowEndMinute    = 9*60 + 29
	regularStartMinute = 9*60 + 30
	regularEndMinute   = 16 * 60

	// proxyBarCount is how many regular-hours minute bars substitute for
	// the premarket window when no extended-hours data exists
	proxyBarCount = 30
)

// marketLocation is the exchange time zone used for windowing
var marketLocation = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// Summary holds the open/high/low/close statistics of the premarket window.
// A zero BarCount means the window is empty: callers must treat that as
// "not available", never as zero prices.
type Summary struct {
	Open     float64
	High     float64
	Low      float64
	Close    float64
	BarCount int
}

// Empty reports whether no bars fell inside the window
func (s Summary) Empty() bool {
	return s.BarCount == 0
}

// BarSource supplies a day's minute bars
type BarSource interface {
	GetBars(ctx context.Context, symbol string, timeframe models.Timeframe, start, end time.Time) ([]models.Bar, error)
}

// Extractor fetches a day's minute bars and derives premarket statistics
type Extractor struct {
	bars BarSource
	now  func() time.Time
}

// NewExtractor creates a premarket extractor backed by the given bar source
func NewExtractor(bars BarSource) *Extractor {
	return &Extractor{bars: bars, now: time.Now}
}

func minuteOfDay(ts time.Time) int {
	local := ts.In(marketLocation)
	return local.Hour()*60 + local.Minute()
}

// summarize folds bars into a Summary
func summarize(bars []models.Bar) Summary {
	var s Summary
	for _, bar := range bars {
		if s.BarCount == 0 {
			s.Open = bar.Open
			s.High = bar.High
			s.Low = bar.Low
		} else {
			if bar.High > s.High {
				s.High = bar.High
			}
			if bar.Low < s.Low {
				s.Low = bar.Low
			}
		}
		s.Close = bar.Close
		s.BarCount++
	}
	return s
}

// FilterWindow returns the bars whose exchange-local time falls inside the
// premarket window
func FilterWindow(bars []models.Bar) []models.Bar {
	filtered := make([]models.Bar, 0, len(bars))
	for _, bar := range bars {
		m := minuteOfDay(bar.Timestamp)
		if m >= windowStartMinute && m <= windowEndMinute {
			filtered = append(filtered, bar)
		}
	}
	return filtered
}

// Summarize reduces a day's minute bars to the premarket window statistics
func Summarize(bars []models.Bar) Summary {
	return summarize(FilterWindow(bars))
}

// dayBars fetches the current trading day's minute bars
func (x *Extractor) dayBars(ctx context.Context, symbol string) ([]models.Bar, error) {
	now := x.now().In(marketLocation)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, marketLocation)
	return x.bars.GetBars(ctx, symbol, models.TimeframeMinute, dayStart, dayStart.Add(24*time.Hour))
}

// Window returns the premarket window summary for the current trading day.
// The summary is empty when the provider has no extended-hours bars.
func (x *Extractor) Window(ctx context.Context, symbol string) (Summary, error) {
	bars, err := x.dayBars(ctx, symbol)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(bars), nil
}

// Levels returns the premarket high/low for the current trading day, rounded
// to 2 decimal places. When no extended-hours bars exist the first 30 minutes
// of regular trading substitute as a documented proxy, flagged on the result
// and logged so the substitution is never silent. Returns nil when neither
// window has bars.
func (x *Extractor) Levels(ctx context.Context, symbol string) (*models.PremarketLevels, error) {
	bars, err := x.dayBars(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		logger.Debug("no minute bars for today",
			logger.String("symbol", symbol),
		)
		return nil, nil
	}

	window := Summarize(bars)
	if !window.Empty() {
		return &models.PremarketLevels{
			High: indicator.Round2(window.High),
			Low:  indicator.Round2(window.Low),
		}, nil
	}

	// No extended-hours data: substitute the first 30 minutes of regular
	// trading, visibly flagged as a proxy
	regular := make([]models.Bar, 0, proxyBarCount)
	for _, bar := range bars {
		m := minuteOfDay(bar.Timestamp)
		if m >= regularStartMinute && m <= regularEndMinute {
			regular = append(regular, bar)
			if len(regular) == proxyBarCount {
				break
			}
		}
	}
	if len(regular) == 0 {
		return nil, nil
	}

	proxy := summarize(regular)
	logger.Info("premarket levels substituted from early regular hours",
		logger.String("symbol", symbol),
		logger.Int("bars", proxy.BarCount),
	)
	return &models.PremarketLevels{
		High:  indicator.Round2(proxy.High),
		Low:   indicator.Round2(proxy.Low),
		Proxy: true,
	}, nil
}
