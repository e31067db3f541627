package collector

import (
	"context"
	"sort"
	"sync"

	"TokenChart/internal/model"
)

// MockSource serves an in-memory trade list and fixed rates for development and testing.
type MockSource struct {
	mu        sync.Mutex
	Data      []model.Trade
	RateTable model.RateMap
	TradeErr  error
	RateErr   error
	Queries   []TradeQuery
	RateCalls int

	// TradeErrFromOffset limits TradeErr to pages at or past this offset.
	TradeErrFromOffset int
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchTradePage(_ context.Context, q TradeQuery) ([]model.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.TradeErr != nil && q.Offset >= m.TradeErrFromOffset {
		return nil, m.TradeErr
	}

	var matched []model.Trade
	for _, t := range m.Data {
		if !q.Since.IsZero() && t.Timestamp.Before(q.Since) {
			continue
		}
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if q.Descending {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	if q.Offset >= len(matched) {
		return nil, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]model.Trade(nil), matched[q.Offset:end]...), nil
}

func (m *MockSource) FetchRates(_ context.Context, currencies []string) (model.RateMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RateCalls++
	if m.RateErr != nil {
		return nil, m.RateErr
	}
	out := model.RateMap{}
	for _, c := range currencies {
		if r, ok := m.RateTable[c]; ok {
			out[c] = r
		}
	}
	return out, nil
}
