// Package chart sequences fetching, aggregation and summary for one asset and window.
package chart

import (
	"context"
	"time"

	"go.uber.org/zap"

	"TokenChart/internal/calculator"
	"TokenChart/internal/collector"
	"TokenChart/internal/metrics"
	"TokenChart/internal/model"
)

// State is the terminal outcome of a chart load.
type State string

const (
	StateSeries    State = "series"
	StateLastKnown State = "last_known"
	StateNoData    State = "no_data"
	StateError     State = "error"
)

// Result is everything the presentation layer needs to render one chart.
type Result struct {
	Asset     string
	Window    model.Window
	State     State
	Series    []model.Bucket
	Summary   model.Summary
	LastKnown *model.PricePoint
	Err       error
	LoadedAt  time.Time
}

// Loader is the part of collector.Collector the service depends on.
type Loader interface {
	FetchTrades(ctx context.Context, asset string, w model.Window) (*collector.TradeSet, error)
	FetchLastKnownPrice(ctx context.Context, asset string) (*model.PricePoint, error)
}

// Service runs the chart pipeline. It keeps no state between calls.
type Service struct {
	loader Loader
	now    func() time.Time
	logger *zap.Logger
}

func NewService(loader Loader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{loader: loader, now: time.Now, logger: logger}
}

// Load fetches and aggregates the chart of asset over window w.
// Fetch failures produce StateError with an empty series, never partial data.
func (s *Service) Load(ctx context.Context, asset string, w model.Window) *Result {
	start := s.now()
	res := &Result{Asset: asset, Window: w, LoadedAt: start}
	defer func() {
		metrics.ObserveRefresh(w.String(), string(res.State), time.Since(start))
		if res.State == StateSeries || res.State == StateLastKnown {
			metrics.SetLastPrice(asset, w.String(), res.Summary.LastPrice)
		}
	}()

	set, err := s.loader.FetchTrades(ctx, asset, w)
	if err != nil {
		s.logger.Error("fetch trades failed", zap.String("asset", asset), zap.String("window", w.String()), zap.Error(err))
		res.State = StateError
		res.Err = err
		return res
	}

	res.Series = calculator.Aggregate(set.Trades, w, set.Rates, start)
	if len(res.Series) > 0 {
		res.State = StateSeries
		res.Summary = calculator.Summarize(res.Series, nil)
		return res
	}

	last, err := s.loader.FetchLastKnownPrice(ctx, asset)
	if err != nil {
		s.logger.Error("fetch last known price failed", zap.String("asset", asset), zap.Error(err))
		res.State = StateError
		res.Err = err
		return res
	}
	res.LastKnown = last
	res.Summary = calculator.Summarize(nil, last)
	if last != nil {
		res.State = StateLastKnown
	} else {
		res.State = StateNoData
	}
	return res
}
