package calculator

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"TokenChart/internal/model"
)

// BaseCurrency is the quote currency of every chart.
const BaseCurrency = "usd"

// NormalizeCurrency lowercases a currency code and defaults blanks to usd.
func NormalizeCurrency(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "" {
		return BaseCurrency
	}
	return c
}

// ConvertToUSD converts amount of currency into USD.
// usd passes through unchanged; a currency missing from rates is worth 0.
func ConvertToUSD(amount decimal.Decimal, currency string, rates model.RateMap) decimal.Decimal {
	c := NormalizeCurrency(currency)
	if c == BaseCurrency {
		return amount
	}
	rate, ok := rates[c]
	if !ok || rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return decimal.Zero
	}
	return amount.Mul(decimal.NewFromFloat(rate))
}

// NewPricePoint derives the USD price of a trade. ok is false when the trade
// carries no price information (non-positive token amount or USD volume).
// Amounts stay decimal through the division; only the result is a float.
func NewPricePoint(t model.Trade, rates model.RateMap) (model.PricePoint, bool) {
	if !t.TokenAmount.IsPositive() {
		return model.PricePoint{}, false
	}
	volume := ConvertToUSD(t.CurrencyAmount, t.Currency, rates)
	if !volume.IsPositive() {
		return model.PricePoint{}, false
	}
	price := volume.Div(t.TokenAmount).InexactFloat64()
	volumeUSD := volume.InexactFloat64()
	if !(price > 0) || math.IsInf(price, 0) || math.IsInf(volumeUSD, 0) {
		return model.PricePoint{}, false
	}
	return model.PricePoint{
		Price:     price,
		VolumeUSD: volumeUSD,
		Currency:  NormalizeCurrency(t.Currency),
		Timestamp: t.Timestamp,
	}, true
}
