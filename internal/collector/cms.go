package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"TokenChart/internal/calculator"
	"TokenChart/internal/model"
)

// CMSTradeSource reads trades from the headless CMS REST collection.
type CMSTradeSource struct {
	BaseURL  string
	APIToken string
	Client   *http.Client
}

// NewCMSTradeSource creates a trade source with optional proxy support.
func NewCMSTradeSource(baseURL, apiToken, proxyURL string) *CMSTradeSource {
	return &CMSTradeSource{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIToken: apiToken,
		Client:   newHTTPClient(proxyURL),
	}
}

func (s *CMSTradeSource) Name() string { return "cms" }

// cmsAmount accepts decimal amounts encoded as JSON numbers or strings.
// Anything unparsable decodes to 0.
type cmsAmount decimal.Decimal

func (a *cmsAmount) UnmarshalJSON(b []byte) error {
	var nd decimal.NullDecimal
	if err := nd.UnmarshalJSON(bytes.TrimSpace(b)); err != nil || !nd.Valid {
		*a = cmsAmount(decimal.Zero)
		return nil
	}
	*a = cmsAmount(nd.Decimal)
	return nil
}

// cmsTrade is the JSON shape of one trade record.
type cmsTrade struct {
	TokenAmount    cmsAmount `json:"tokenAmount"`
	CurrencyAmount cmsAmount `json:"currencyAmount"`
	Currency       string    `json:"currency"`
	Timestamp      time.Time `json:"timestamp"`
}

type cmsPage struct {
	Data []cmsTrade `json:"data"`
}

func (s *CMSTradeSource) pageURL(q TradeQuery) string {
	v := url.Values{}
	v.Set("filters[asset][$eq]", q.Asset)
	if !q.Since.IsZero() {
		v.Set("filters[timestamp][$gte]", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Descending {
		v.Set("sort", "timestamp:desc")
	} else {
		v.Set("sort", "timestamp:asc")
	}
	v.Set("pagination[start]", strconv.Itoa(q.Offset))
	v.Set("pagination[limit]", strconv.Itoa(q.Limit))
	return fmt.Sprintf("%s/api/trades?%s", s.BaseURL, v.Encode())
}

// FetchTradePage fetches one page of trades.
func (s *CMSTradeSource) FetchTradePage(ctx context.Context, q TradeQuery) ([]model.Trade, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL(q), nil)
	if err != nil {
		return nil, err
	}
	if s.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIToken)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}

	var page cmsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}
	trades := make([]model.Trade, len(page.Data))
	for i, t := range page.Data {
		trades[i] = model.Trade{
			TokenAmount:    decimal.Decimal(t.TokenAmount),
			CurrencyAmount: decimal.Decimal(t.CurrencyAmount),
			Currency:       calculator.NormalizeCurrency(t.Currency),
			Timestamp:      t.Timestamp.UTC(),
		}
	}
	return trades, nil
}
