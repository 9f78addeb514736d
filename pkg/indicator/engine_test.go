package indicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

// scriptedBarSource returns canned bars per timeframe
type scriptedBarSource struct {
	bars map[models.Timeframe][]models.Bar
	errs map[models.Timeframe]error
}

func (s *scriptedBarSource) GetBars(_ context.Context, _ string, timeframe models.Timeframe, _, _ time.Time) ([]models.Bar, error) {
	if err := s.errs[timeframe]; err != nil {
		return nil, err
	}
	return s.bars[timeframe], nil
}

func seriesBars(n int, start time.Time, step time.Duration, firstClose float64) []models.Bar {
	bars := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		close := firstClose + float64(i)*0.25
		bars = append(bars, models.Bar{
			Symbol:    "AAPL",
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      close,
			High:      close + 0.5,
			Low:       close - 0.5,
			Close:     close,
			Volume:    1000,
		})
	}
	return bars
}

func newTestEngine(src BarSource) *Engine {
	engine := NewEngine(src)
	engine.now = func() time.Time {
		return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	}
	return engine
}

func TestEngine_AllTimeframes(t *testing.T) {
	start := time.Date(2025, 5, 1, 4, 0, 0, 0, time.UTC)
	src := &scriptedBarSource{
		bars: map[models.Timeframe][]models.Bar{
			models.TimeframeDay:    seriesBars(60, start, 24*time.Hour, 100),
			models.TimeframeHour:   seriesBars(80, start, time.Hour, 100),
			models.TimeframeMinute: seriesBars(600, start, time.Minute, 100),
		},
	}

	emas := newTestEngine(src).Compute(context.Background(), "AAPL")

	wantKeys := []string{
		"daily_ema_20", "daily_ema_50",
		"1h_ema_34", "1h_ema_50",
		"10m_ema_9", "10m_ema_34", "10m_ema_50",
	}
	if len(emas) != len(wantKeys) {
		t.Fatalf("Expected %d keys, got %d: %v", len(wantKeys), len(emas), emas)
	}
	for _, key := range wantKeys {
		if _, ok := emas[key]; !ok {
			t.Errorf("Missing key %s", key)
		}
	}

	// Values must match the recursion, rounded to 2 decimals
	want, _ := LastEMA(src.bars[models.TimeframeDay], 20)
	if emas["daily_ema_20"] != Round2(want) {
		t.Errorf("daily_ema_20 = %f, want %f", emas["daily_ema_20"], Round2(want))
	}
}

func TestEngine_InsufficientHistoryOmitsKeys(t *testing.T) {
	start := time.Date(2025, 5, 1, 4, 0, 0, 0, time.UTC)
	src := &scriptedBarSource{
		bars: map[models.Timeframe][]models.Bar{
			// 49 bars: below the minimum, keys must be absent
			models.TimeframeDay: seriesBars(MinTimeframeBars-1, start, 24*time.Hour, 100),
		},
	}

	emas := newTestEngine(src).Compute(context.Background(), "AAPL")
	if len(emas) != 0 {
		t.Errorf("Expected no keys, got %v", emas)
	}
}

func TestEngine_RawMinuteThreshold(t *testing.T) {
	start := time.Date(2025, 5, 1, 4, 0, 0, 0, time.UTC)
	// 499 raw minute bars resample to ~50 buckets, but the raw
	// threshold must gate first
	src := &scriptedBarSource{
		bars: map[models.Timeframe][]models.Bar{
			models.TimeframeMinute: seriesBars(MinRawMinuteBars-1, start, time.Minute, 100),
		},
	}

	emas := newTestEngine(src).Compute(context.Background(), "AAPL")
	for key := range emas {
		t.Errorf("Unexpected key %s", key)
	}
}

func TestEngine_TimeframeFailureIsolated(t *testing.T) {
	start := time.Date(2025, 5, 1, 4, 0, 0, 0, time.UTC)
	src := &scriptedBarSource{
		bars: map[models.Timeframe][]models.Bar{
			models.TimeframeDay: seriesBars(60, start, 24*time.Hour, 100),
		},
		errs: map[models.Timeframe]error{
			models.TimeframeHour:   errors.New("rate limited"),
			models.TimeframeMinute: errors.New("rate limited"),
		},
	}

	emas := newTestEngine(src).Compute(context.Background(), "AAPL")

	if _, ok := emas["daily_ema_20"]; !ok {
		t.Error("daily_ema_20 should survive other timeframe failures")
	}
	if _, ok := emas["1h_ema_34"]; ok {
		t.Error("1h_ema_34 should be absent when the hourly fetch fails")
	}
	if len(emas) != 2 {
		t.Errorf("Expected 2 keys, got %v", emas)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	start := time.Date(2025, 5, 1, 4, 0, 0, 0, time.UTC)
	src := &scriptedBarSource{
		bars: map[models.Timeframe][]models.Bar{
			models.TimeframeDay:  seriesBars(60, start, 24*time.Hour, 100),
			models.TimeframeHour: seriesBars(80, start, time.Hour, 100),
		},
	}
	engine := newTestEngine(src)

	first := engine.Compute(context.Background(), "AAPL")
	second := engine.Compute(context.Background(), "AAPL")

	if len(first) != len(second) {
		t.Fatalf("Key count changed between runs: %d vs %d", len(first), len(second))
	}
	for k, v := range first {
		if second[k] != v {
			t.Errorf("Key %s changed: %f vs %f", k, v, second[k])
		}
	}
}
