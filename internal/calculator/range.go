package calculator

import (
	"errors"
	"math"

	"TokenChart/internal/model"
)

// CloseRange scans the plotted close values and returns the high and low.
// Intrabucket highs and lows are ignored; the headline range follows the line series.
func CloseRange(series []model.Bucket) (high, low float64, err error) {
	if len(series) == 0 {
		return 0, 0, errors.New("no buckets provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range series {
		if b.Close > high {
			high = b.Close
		}
		if b.Close < low {
			low = b.Close
		}
	}
	return high, low, nil
}

// ChangePercent returns the relative move from first to last in percent.
// Returns 0 when first is not positive.
func ChangePercent(first, last float64) float64 {
	if first <= 0 {
		return 0
	}
	pct := (last - first) / first * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return pct
}
