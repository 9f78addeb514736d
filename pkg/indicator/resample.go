package indicator

import (
	"time"

	"github.com/mohamedkhairy/stock-pulse/internal/models"
)

// TenMinute is the bucket width used when resampling minute bars
const TenMinute = 10 * time.Minute

// ResampleTenMinute aggregates 1-minute bars into 10-minute bars.
// Buckets are aligned to the wall clock (xx:00, xx:10, ...); within a bucket
// open takes the first bar, high the max, low the min, close the last bar and
// volume the sum. Buckets that received no bars are dropped, so gaps in the
// input leave gaps in the output rather than zero-filled bars.
//
// The input must be ordered by strictly increasing timestamp.
func ResampleTenMinute(bars []models.Bar) []models.Bar {
	if len(bars) == 0 {
		return nil
	}

	resampled := make([]models.Bar, 0, len(bars)/10+1)
	var current models.Bar
	var bucket time.Time
	open := false

	for _, bar := range bars {
		start := bar.Timestamp.Truncate(TenMinute)
		if !open || !start.Equal(bucket) {
			if open {
				resampled = append(resampled, current)
			}
			bucket = start
			current = models.Bar{
				Symbol:    bar.Symbol,
				Timestamp: start,
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				Volume:    bar.Volume,
			}
			open = true
			continue
		}

		if bar.High > current.High {
			current.High = bar.High
		}
		if bar.Low < current.Low {
			current.Low = bar.Low
		}
		current.Close = bar.Close
		current.Volume += bar.Volume
	}

	if open {
		resampled = append(resampled, current)
	}

	return resampled
}
