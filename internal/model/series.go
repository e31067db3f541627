package model

import "time"

// Bucket is one time-aligned OHLCV window of the chart.
type Bucket struct {
	Start      time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64 // plotted value
	Volume     float64
	TradeCount int
}

// Summary holds the headline statistics shown above the chart.
type Summary struct {
	TotalVolume        float64
	TotalTrades        int
	LastPrice          float64
	FirstPrice         float64
	PriceChange        float64
	PriceChangePercent float64
	High               float64
	Low                float64
	AvgPrice           float64
	IsLastKnown        bool
}
