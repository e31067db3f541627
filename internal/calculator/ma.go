package calculator

import (
	"errors"

	"TokenChart/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// AverageClose returns the arithmetic mean of every bucket close.
func AverageClose(series []model.Bucket) (float64, error) {
	return CalculateSMA(extractCloses(series), len(series))
}

func extractCloses(series []model.Bucket) []float64 {
	closes := make([]float64, len(series))
	for i, b := range series {
		closes[i] = b.Close
	}
	return closes
}
