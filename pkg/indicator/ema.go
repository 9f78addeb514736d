package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

// EMA calculates the Exponential Moving Average
// EMA = (Price - Previous EMA) * Multiplier + Previous EMA
// Multiplier = 2 / (Period + 1)
//
// The first price seeds the series directly (no SMA warm-up), matching the
// recursive definition with adjust=false semantics.
type EMA struct {
	period     int
	name       string
	multiplier float64
	value      float64
	ready      bool
	processed  int
}

// NewEMA creates a new EMA calculator with the specified period
func NewEMA(period int) (*EMA, error) {
	if period < 1 {
		return nil, fmt.Errorf("EMA period must be at least 1, got %d", period)
	}

	multiplier := 2.0 / float64(period+1)

	return &EMA{
		period:     period,
		name:       fmt.Sprintf("ema_%d", period),
		multiplier: multiplier,
		value:      0,
		ready:      false,
		processed:  0,
	}, nil
}

// Name returns the indicator name
func (e *EMA) Name() string {
	return e.name
}

// Period returns the configured period
func (e *EMA) Period() int {
	return e.period
}

// Update processes a new close price and updates the EMA calculation
func (e *EMA) Update(price float64) float64 {
	// For the first observation, EMA = price
	if !e.ready {
		e.value = price
		e.ready = true
		e.processed++
		return e.value
	}

	// EMA calculation: (Price - Previous EMA) * Multiplier + Previous EMA
	e.value = (price-e.value)*e.multiplier + e.value
	e.processed++

	// Handle NaN/Inf
	if math.IsNaN(e.value) || math.IsInf(e.value, 0) {
		e.value = price // Fallback to current price
	}

	return e.value
}

// Value returns the current EMA value
func (e *EMA) Value() (float64, error) {
	if !e.ready {
		return 0, fmt.Errorf("EMA not ready: need at least 1 observation")
	}
	return e.value, nil
}

// Reset clears the EMA state
func (e *EMA) Reset() {
	e.value = 0
	e.ready = false
	e.processed = 0
}

// IsReady returns true if the EMA has enough data
func (e *EMA) IsReady() bool {
	return e.ready
}

// BarsProcessed returns the number of observations processed
func (e *EMA) BarsProcessed() int {
	return e.processed
}

// LastEMA runs the EMA recursion over the close prices of bars and returns
// the final value. It returns false when bars is empty.
func LastEMA(bars []models.Bar, period int) (float64, bool) {
	if len(bars) == 0 {
		return 0, false
	}
	ema, err := NewEMA(period)
	if err != nil {
		return 0, false
	}
	for _, bar := range bars {
		ema.Update(bar.Close)
	}
	value, err := ema.Value()
	if err != nil {
		return 0, false
	}
	return value, true
}
