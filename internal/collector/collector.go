package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"TokenChart/internal/calculator"
	"TokenChart/internal/metrics"
	"TokenChart/internal/model"
)

const (
	DefaultPageSize  = 1000
	DefaultMaxTrades = 50000
)

// TradeSet is the complete trade list of one window plus the rates needed to price it.
type TradeSet struct {
	Trades []model.Trade
	Rates  model.RateMap
}

// Collector pages through a trade source and resolves settlement currencies.
type Collector struct {
	Trades TradeSource
	Rates  RateSource
	Now    func() time.Time
	Logger *zap.Logger

	mu        sync.RWMutex
	pageSize  int
	maxTrades int
}

// NewCollector creates a Collector with default paging limits.
func NewCollector(trades TradeSource, rates RateSource, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Trades:    trades,
		Rates:     rates,
		Now:       time.Now,
		Logger:    logger,
		pageSize:  DefaultPageSize,
		maxTrades: DefaultMaxTrades,
	}
}

// SetLimits replaces the page size and trade cap. Non-positive values are
// ignored. Safe to call while fetches are running; a fetch keeps the limits
// it started with.
func (c *Collector) SetLimits(pageSize, maxTrades int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pageSize > 0 {
		c.pageSize = pageSize
	}
	if maxTrades > 0 {
		c.maxTrades = maxTrades
	}
}

// Limits returns the current page size and trade cap.
func (c *Collector) Limits() (pageSize, maxTrades int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pageSize, c.maxTrades
}

// FetchTrades returns every trade of asset inside window w, up to the trade cap.
// Pages are requested sequentially in ascending time order until a short page
// or the cap. Any page error aborts the cycle.
func (c *Collector) FetchTrades(ctx context.Context, asset string, w model.Window) (*TradeSet, error) {
	pageSize, maxTrades := c.Limits()
	q := TradeQuery{Asset: asset}
	if cutoff, ok := w.Cutoff(c.Now()); ok {
		q.Since = cutoff
	}

	var all []model.Trade
	for len(all) < maxTrades {
		q.Limit = pageSize
		if remaining := maxTrades - len(all); remaining < q.Limit {
			q.Limit = remaining
		}
		q.Offset = len(all)

		page, err := c.Trades.FetchTradePage(ctx, q)
		if err != nil {
			metrics.FetchErrors.WithLabelValues(asset).Inc()
			return nil, fmt.Errorf("fetch trades page at offset %d: %w", q.Offset, err)
		}
		if len(page) > q.Limit {
			page = page[:q.Limit]
		}
		metrics.ObservePage(asset, len(page))
		all = append(all, page...)
		if len(page) < q.Limit {
			break
		}
	}
	if len(all) >= maxTrades {
		metrics.TradeCapHits.WithLabelValues(asset).Inc()
		c.Logger.Warn("trade cap reached",
			zap.String("asset", asset), zap.String("window", w.String()), zap.Int("cap", maxTrades))
	}

	if len(all) == 0 {
		return &TradeSet{Trades: []model.Trade{}, Rates: model.RateMap{}}, nil
	}
	c.Logger.Debug("trades fetched",
		zap.String("asset", asset), zap.String("window", w.String()), zap.Int("count", len(all)))
	return &TradeSet{Trades: all, Rates: c.resolveRates(ctx, distinctCurrencies(all))}, nil
}

// FetchLastKnownPrice returns the price of the most recent trade ever recorded
// for asset, or nil when there is none or it cannot be priced.
func (c *Collector) FetchLastKnownPrice(ctx context.Context, asset string) (*model.PricePoint, error) {
	page, err := c.Trades.FetchTradePage(ctx, TradeQuery{Asset: asset, Descending: true, Limit: 1})
	if err != nil {
		metrics.FetchErrors.WithLabelValues(asset).Inc()
		return nil, fmt.Errorf("fetch last trade: %w", err)
	}
	if len(page) == 0 {
		return nil, nil
	}
	last := page[0]
	rates := c.resolveRates(ctx, distinctCurrencies(page[:1]))
	p, ok := calculator.NewPricePoint(last, rates)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// resolveRates fails soft: lookup errors yield an empty map.
func (c *Collector) resolveRates(ctx context.Context, currencies []string) model.RateMap {
	if len(currencies) == 0 || c.Rates == nil {
		return model.RateMap{}
	}
	rates, err := c.Rates.FetchRates(ctx, currencies)
	if err != nil {
		metrics.RateLookupFailures.Inc()
		c.Logger.Warn("rate lookup failed, pricing without rates",
			zap.Strings("currencies", currencies), zap.String("source", c.Rates.Name()), zap.Error(err))
		return model.RateMap{}
	}
	if rates == nil {
		rates = model.RateMap{}
	}
	return rates
}

// distinctCurrencies lists the non-usd currency codes present in trades.
func distinctCurrencies(trades []model.Trade) []string {
	seen := make(map[string]struct{})
	for _, t := range trades {
		code := calculator.NormalizeCurrency(t.Currency)
		if code == calculator.BaseCurrency {
			continue
		}
		seen[code] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
