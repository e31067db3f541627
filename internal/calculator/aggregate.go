package calculator

import (
	"sort"
	"time"

	"TokenChart/internal/model"
)

// bucketWidths maps each window to its chart resolution.
var bucketWidths = map[model.Window]time.Duration{
	model.Window1H:  time.Minute,
	model.Window4H:  5 * time.Minute,
	model.Window24H: 15 * time.Minute,
	model.Window7D:  time.Hour,
	model.Window30D: 4 * time.Hour,
	model.Window90D: 12 * time.Hour,
	model.Window1Y:  24 * time.Hour,
	model.WindowAll: 24 * time.Hour,
}

// BucketWidth returns the bucket resolution used for window w.
// Unknown windows fall back to one day.
func BucketWidth(w model.Window) time.Duration {
	if d, ok := bucketWidths[w]; ok {
		return d
	}
	return 24 * time.Hour
}

// FloorTime aligns t down to a multiple of width since the Unix epoch.
func FloorTime(t time.Time, width time.Duration) time.Time {
	ms := t.UnixMilli()
	step := width.Milliseconds()
	if step <= 0 {
		return time.UnixMilli(ms).UTC()
	}
	start := ms / step * step
	if start > ms {
		start -= step
	}
	return time.UnixMilli(start).UTC()
}

type bucketAcc struct {
	points []model.PricePoint
	trades int
}

// Aggregate buckets trades into the chart series for window w.
// Trades older than the window cutoff (relative to now) are discarded.
// Trades without a valid price point count towards TradeCount only, and
// buckets without any valid point are dropped.
func Aggregate(trades []model.Trade, w model.Window, rates model.RateMap, now time.Time) []model.Bucket {
	if len(trades) == 0 {
		return nil
	}
	cutoff, bounded := w.Cutoff(now)
	width := BucketWidth(w)

	accs := make(map[int64]*bucketAcc)
	for _, t := range trades {
		if bounded && t.Timestamp.Before(cutoff) {
			continue
		}
		key := FloorTime(t.Timestamp, width).UnixMilli()
		acc, ok := accs[key]
		if !ok {
			acc = &bucketAcc{}
			accs[key] = acc
		}
		acc.trades++
		if p, ok := NewPricePoint(t, rates); ok {
			acc.points = append(acc.points, p)
		}
	}

	series := make([]model.Bucket, 0, len(accs))
	for key, acc := range accs {
		if len(acc.points) == 0 {
			continue
		}
		series = append(series, buildBucket(time.UnixMilli(key).UTC(), acc))
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Start.Before(series[j].Start) })
	return series
}

func buildBucket(start time.Time, acc *bucketAcc) model.Bucket {
	// Paginated input is not guaranteed chronological.
	sort.SliceStable(acc.points, func(i, j int) bool {
		return acc.points[i].Timestamp.Before(acc.points[j].Timestamp)
	})
	first := acc.points[0]
	b := model.Bucket{
		Start:      start,
		Open:       first.Price,
		High:       first.Price,
		Low:        first.Price,
		Close:      acc.points[len(acc.points)-1].Price,
		TradeCount: acc.trades,
	}
	for _, p := range acc.points {
		if p.Price > b.High {
			b.High = p.Price
		}
		if p.Price < b.Low {
			b.Low = p.Price
		}
		b.Volume += p.VolumeUSD
	}
	return b
}
