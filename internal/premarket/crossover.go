package premarket

import (
	"fmt"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// emaChecks lists the EMA keys eligible for crossover detection, in emission
// order. The shorter 10-minute EMAs are intentionally excluded.
var emaChecks = []struct {
	Key   string
	Label string
}{
	{"daily_ema_20", "Daily 20 EMA"},
	{"daily_ema_50", "Daily 50 EMA"},
	{"1h_ema_34", "1hr 34 EMA"},
	{"1h_ema_50", "1hr 50 EMA"},
}

// DetectCrossovers flags EMA levels the premarket window traded through.
//
// A cross_above needs open < ema, close > ema and the window range to contain
// the EMA; cross_below is the mirror. The range check is authoritative: an
// open/close straddle whose [low, high] range never touched the EMA emits
// nothing, and open == ema fires neither branch. A panic during detection
// aborts only this symbol's list — whatever was accumulated so far is
// returned.
func DetectCrossovers(symbol string, window Summary, emas map[string]float64) (events []models.CrossoverEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("crossover detection panicked",
				logger.String("symbol", symbol),
				logger.Any("panic", r),
			)
		}
	}()

	events = []models.CrossoverEvent{}
	if window.Empty() {
		return events
	}

	for _, check := range emaChecks {
		ema, ok := emas[check.Key]
		if !ok {
			continue
		}

		touched := window.Low <= ema && ema <= window.High

		switch {
		case window.Open < ema && window.Close > ema:
			if !touched {
				logger.Debug("straddle without touch skipped",
					logger.String("symbol", symbol),
					logger.String("ema", check.Key),
					logger.Float64("value", ema),
				)
				continue
			}
			events = append(events, models.CrossoverEvent{
				Type:      "cross_above",
				EMA:       check.Label,
				EMAValue:  ema,
				Direction: models.DirectionUp,
				Message:   fmt.Sprintf("Crossed ABOVE %s ($%.2f) in premarket", check.Label, ema),
			})

		case window.Open > ema && window.Close < ema:
			if !touched {
				logger.Debug("straddle without touch skipped",
					logger.String("symbol", symbol),
					logger.String("ema", check.Key),
					logger.Float64("value", ema),
				)
				continue
			}
			events = append(events, models.CrossoverEvent{
				Type:      "cross_below",
				EMA:       check.Label,
				EMAValue:  ema,
				Direction: models.DirectionDown,
				Message:   fmt.Sprintf("Crossed BELOW %s ($%.2f) in premarket", check.Label, ema),
			})
		}
	}

	return events
}
