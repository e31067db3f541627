package collector

import (
	"context"
	"errors"
	"time"

	"TokenChart/internal/model"
)

// ErrStatus is wrapped by sources when the upstream answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// TradeQuery selects one page of trades for an asset.
type TradeQuery struct {
	Asset      string
	Since      time.Time // zero means unbounded
	Descending bool
	Offset     int
	Limit      int
}

// TradeSource returns pages of trades ordered by timestamp.
type TradeSource interface {
	FetchTradePage(ctx context.Context, q TradeQuery) ([]model.Trade, error)
	Name() string
}

// RateSource resolves currency codes to USD rates in one batched call.
type RateSource interface {
	FetchRates(ctx context.Context, currencies []string) (model.RateMap, error)
	Name() string
}
