package indicator

import (
	"context"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// BarSource supplies historical bars for the engine. "No data" is an empty
// slice, not an error.
type BarSource interface {
	GetBars(ctx context.Context, symbol string, timeframe models.Timeframe, start, end time.Time) ([]models.Bar, error)
}

const (
	// MinTimeframeBars is the minimum bar count (after resampling) a
	// timeframe needs before any of its EMAs are emitted
	MinTimeframeBars = 50
	// MinRawMinuteBars is the minimum raw 1-minute bar count required
	// before resampling into 10-minute bars
	MinRawMinuteBars = 500

	dailyLookback  = 365 * 24 * time.Hour
	hourlyLookback = 60 * 24 * time.Hour
	minuteLookback = 14 * 24 * time.Hour
)

// Engine computes exponential moving averages over daily, hourly and
// resampled 10-minute bar series for a symbol.
//
// Each timeframe is fetched and computed independently; a failure in one is
// logged and leaves its keys absent without affecting the others. A timeframe
// with insufficient history contributes nothing at all — absent keys, never
// zeroes.
type Engine struct {
	bars BarSource
	now  func() time.Time
}

// NewEngine creates an EMA engine backed by the given bar source
func NewEngine(bars BarSource) *Engine {
	return &Engine{bars: bars, now: time.Now}
}

// Compute returns the merged EMA mapping for symbol. Keys follow the
// {timeframe}_ema_{period} naming convention and values are rounded to
// 2 decimal places. Partial results are expected and acceptable.
func (e *Engine) Compute(ctx context.Context, symbol string) map[string]float64 {
	emas := make(map[string]float64)

	for _, tf := range []struct {
		name    string
		compute func(context.Context, string) (map[string]float64, error)
	}{
		{"daily", e.computeDaily},
		{"hourly", e.computeHourly},
		{"10min", e.computeTenMinute},
	} {
		values, err := tf.compute(ctx, symbol)
		if err != nil {
			logger.Warn("EMA timeframe failed",
				logger.String("symbol", symbol),
				logger.String("timeframe", tf.name),
				logger.ErrorField(err),
			)
			continue
		}
		for k, v := range values {
			emas[k] = v
		}
	}

	if len(emas) == 0 {
		logger.Debug("no EMAs available",
			logger.String("symbol", symbol),
		)
	}

	return emas
}

// computeDaily calculates the 20 and 50 period daily EMAs over a one year
// lookback ending yesterday
func (e *Engine) computeDaily(ctx context.Context, symbol string) (map[string]float64, error) {
	end := e.now().Add(-24 * time.Hour)
	start := end.Add(-dailyLookback)

	bars, err := e.bars.GetBars(ctx, symbol, models.TimeframeDay, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) < MinTimeframeBars {
		logger.Debug("not enough daily bars",
			logger.String("symbol", symbol),
			logger.Int("bars", len(bars)),
		)
		return nil, nil
	}

	emas := make(map[string]float64, 2)
	if v, ok := LastEMA(bars, 20); ok {
		emas["daily_ema_20"] = Round2(v)
	}
	if v, ok := LastEMA(bars, 50); ok {
		emas["daily_ema_50"] = Round2(v)
	}
	return emas, nil
}

// computeHourly calculates the 34 and 50 period hourly EMAs over a 60 day
// lookback ending yesterday
func (e *Engine) computeHourly(ctx context.Context, symbol string) (map[string]float64, error) {
	end := e.now().Add(-24 * time.Hour)
	start := end.Add(-hourlyLookback)

	bars, err := e.bars.GetBars(ctx, symbol, models.TimeframeHour, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) < MinTimeframeBars {
		logger.Debug("not enough hourly bars",
			logger.String("symbol", symbol),
			logger.Int("bars", len(bars)),
		)
		return nil, nil
	}

	emas := make(map[string]float64, 2)
	if v, ok := LastEMA(bars, 34); ok {
		emas["1h_ema_34"] = Round2(v)
	}
	if v, ok := LastEMA(bars, 50); ok {
		emas["1h_ema_50"] = Round2(v)
	}
	return emas, nil
}

// computeTenMinute calculates the 9, 34 and 50 period EMAs over minute bars
// resampled into 10-minute buckets, with a 14 day lookback ending yesterday
func (e *Engine) computeTenMinute(ctx context.Context, symbol string) (map[string]float64, error) {
	end := e.now().Add(-24 * time.Hour)
	start := end.Add(-minuteLookback)

	minuteBars, err := e.bars.GetBars(ctx, symbol, models.TimeframeMinute, start, end)
	if err != nil {
		return nil, err
	}
	if len(minuteBars) < MinRawMinuteBars {
		logger.Debug("not enough minute bars",
			logger.String("symbol", symbol),
			logger.Int("bars", len(minuteBars)),
		)
		return nil, nil
	}

	bars := ResampleTenMinute(minuteBars)
	if len(bars) < MinTimeframeBars {
		logger.Debug("not enough 10-minute bars after resample",
			logger.String("symbol", symbol),
			logger.Int("bars", len(bars)),
		)
		return nil, nil
	}

	emas := make(map[string]float64, 3)
	if v, ok := LastEMA(bars, 9); ok {
		emas["10m_ema_9"] = Round2(v)
	}
	if v, ok := LastEMA(bars, 34); ok {
		emas["10m_ema_34"] = Round2(v)
	}
	if v, ok := LastEMA(bars, 50); ok {
		emas["10m_ema_50"] = Round2(v)
	}
	return emas, nil
}
