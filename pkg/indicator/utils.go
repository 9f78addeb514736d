package indicator

import "math"

// Round2 rounds v to 2 decimal places. All range, level and EMA values are
// rounded this way before they are cached or served.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
