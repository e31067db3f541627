package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one executed swap against a tracked asset, as returned by the CMS.
type Trade struct {
	TokenAmount    decimal.Decimal
	CurrencyAmount decimal.Decimal
	Currency       string // lowercased, "usd" when absent
	Timestamp      time.Time
}

// PricePoint is a single trade's USD-per-token price and USD volume.
type PricePoint struct {
	Price     float64
	VolumeUSD float64
	Currency  string
	Timestamp time.Time
}

// RateMap maps lowercased currency codes to their USD rate.
type RateMap map[string]float64
