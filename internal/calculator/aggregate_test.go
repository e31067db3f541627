package calculator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenChart/internal/model"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestBucketWidth(t *testing.T) {
	want := map[model.Window]time.Duration{
		model.Window1H:  time.Minute,
		model.Window4H:  5 * time.Minute,
		model.Window24H: 15 * time.Minute,
		model.Window7D:  time.Hour,
		model.Window30D: 4 * time.Hour,
		model.Window90D: 12 * time.Hour,
		model.Window1Y:  24 * time.Hour,
		model.WindowAll: 24 * time.Hour,
	}
	for w, d := range want {
		assert.Equal(t, d, BucketWidth(w), "window %s", w)
	}
}

func TestFloorTime(t *testing.T) {
	ts := time.Date(2024, 6, 1, 11, 37, 42, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 1, 11, 30, 0, 0, time.UTC), FloorTime(ts, 15*time.Minute))
	assert.Equal(t, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), FloorTime(ts, 4*time.Hour))
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), FloorTime(ts, 24*time.Hour))
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, model.Window24H, nil, now))
}

func TestAggregate_SingleTrade(t *testing.T) {
	ts := now.Add(-10*time.Minute + 17*time.Second)
	series := Aggregate([]model.Trade{
		{TokenAmount: dec(10), CurrencyAmount: dec(100), Currency: "usd", Timestamp: ts},
	}, model.Window1H, model.RateMap{}, now)

	require.Len(t, series, 1)
	b := series[0]
	assert.Equal(t, FloorTime(ts, time.Minute), b.Start)
	assert.Equal(t, 10.0, b.Open)
	assert.Equal(t, 10.0, b.Close)
	assert.Equal(t, 10.0, b.High)
	assert.Equal(t, 10.0, b.Low)
	assert.Equal(t, 100.0, b.Volume)
	assert.Equal(t, 1, b.TradeCount)

	s := Summarize(series, nil)
	assert.Equal(t, 10.0, s.LastPrice)
	assert.Equal(t, 10.0, s.FirstPrice)
	assert.Zero(t, s.PriceChange)
	assert.Zero(t, s.PriceChangePercent)
}

func TestAggregate_SameBucketOrdering(t *testing.T) {
	start := FloorTime(now.Add(-2*time.Hour), 15*time.Minute)
	// appended out of order on purpose
	trades := []model.Trade{
		{TokenAmount: dec(1), CurrencyAmount: dec(1.5), Currency: "usd", Timestamp: start.Add(5 * time.Minute)},
		{TokenAmount: dec(1), CurrencyAmount: dec(1.0), Currency: "usd", Timestamp: start},
	}
	series := Aggregate(trades, model.Window24H, nil, now)

	require.Len(t, series, 1)
	b := series[0]
	assert.Equal(t, 1.0, b.Open)
	assert.Equal(t, 1.5, b.Close)
	assert.Equal(t, 1.5, b.High)
	assert.Equal(t, 1.0, b.Low)
	assert.InDelta(t, 2.5, b.Volume, 1e-12)
	assert.Equal(t, 2, b.TradeCount)
}

func TestAggregate_UnresolvedCurrencyStillCounted(t *testing.T) {
	start := FloorTime(now.Add(-time.Hour), 15*time.Minute)
	trades := []model.Trade{
		{TokenAmount: dec(2), CurrencyAmount: dec(4), Currency: "usd", Timestamp: start.Add(time.Minute)},
		{TokenAmount: dec(1), CurrencyAmount: dec(9), Currency: "eur", Timestamp: start.Add(2 * time.Minute)},
	}
	series := Aggregate(trades, model.Window24H, model.RateMap{}, now)

	require.Len(t, series, 1)
	assert.Equal(t, 2, series[0].TradeCount)
	assert.Equal(t, 2.0, series[0].Close)
	assert.Equal(t, 4.0, series[0].Volume)
}

func TestAggregate_DropsBucketsWithoutPrice(t *testing.T) {
	trades := []model.Trade{
		{TokenAmount: dec(1), CurrencyAmount: dec(9), Currency: "eur", Timestamp: now.Add(-3 * time.Hour)},
		{TokenAmount: dec(1), CurrencyAmount: dec(2), Currency: "usd", Timestamp: now.Add(-time.Hour)},
	}
	series := Aggregate(trades, model.Window24H, nil, now)
	require.Len(t, series, 1)
	assert.Equal(t, 2.0, series[0].Close)
}

func TestAggregate_AppliesCutoff(t *testing.T) {
	trades := []model.Trade{
		{TokenAmount: dec(1), CurrencyAmount: dec(5), Currency: "usd", Timestamp: now.Add(-2 * time.Hour)},
		{TokenAmount: dec(1), CurrencyAmount: dec(3), Currency: "usd", Timestamp: now.Add(-30 * time.Minute)},
	}
	series := Aggregate(trades, model.Window1H, nil, now)
	require.Len(t, series, 1)
	assert.Equal(t, 3.0, series[0].Close)

	all := Aggregate(trades, model.WindowAll, nil, now)
	assert.Len(t, all, 1, "both trades fall on the same day")
	assert.Equal(t, 2, all[0].TradeCount)
}

func TestAggregate_SeriesSortedByStart(t *testing.T) {
	trades := []model.Trade{
		{TokenAmount: dec(1), CurrencyAmount: dec(3), Currency: "usd", Timestamp: now.Add(-10 * time.Minute)},
		{TokenAmount: dec(1), CurrencyAmount: dec(1), Currency: "usd", Timestamp: now.Add(-50 * time.Minute)},
		{TokenAmount: dec(1), CurrencyAmount: dec(2), Currency: "usd", Timestamp: now.Add(-30 * time.Minute)},
	}
	series := Aggregate(trades, model.Window1H, nil, now)
	require.Len(t, series, 3)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i-1].Start.Before(series[i].Start))
	}
	assert.Equal(t, []float64{1, 2, 3}, []float64{series[0].Close, series[1].Close, series[2].Close})
}

func randomTrades(r *rand.Rand, n int) []model.Trade {
	amounts := []float64{0, -3, 0.5, 1, 42}
	currencies := []string{"usd", "sol", "eur", ""}
	trades := make([]model.Trade, n)
	for i := range trades {
		trades[i] = model.Trade{
			TokenAmount:    dec(amounts[r.Intn(len(amounts))]),
			CurrencyAmount: dec(r.Float64() * 10),
			Currency:       currencies[r.Intn(len(currencies))],
			Timestamp:      now.Add(-time.Duration(r.Int63n(int64(7 * 24 * time.Hour)))),
		}
	}
	return trades
}

func TestAggregate_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	rates := model.RateMap{"sol": 150}

	for _, w := range model.Windows {
		trades := randomTrades(r, 500)
		series := Aggregate(trades, w, rates, now)
		again := Aggregate(trades, w, rates, now)
		assert.Equal(t, series, again, "window %s not deterministic", w)
		assert.Equal(t, Summarize(series, nil), Summarize(again, nil))

		width := BucketWidth(w)
		valid := 0
		cutoff, bounded := w.Cutoff(now)
		for _, tr := range trades {
			if bounded && tr.Timestamp.Before(cutoff) {
				continue
			}
			if _, ok := NewPricePoint(tr, rates); !ok {
				continue
			}
			valid++
			found := 0
			for _, b := range series {
				if !tr.Timestamp.Before(b.Start) && tr.Timestamp.Before(b.Start.Add(width)) {
					found++
				}
			}
			assert.Equal(t, 1, found, "trade at %s", tr.Timestamp)
		}

		counted := 0
		for _, b := range series {
			for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			}
			assert.LessOrEqual(t, b.Low, b.High)
			counted += b.TradeCount
		}
		assert.GreaterOrEqual(t, counted, valid)
	}
}
