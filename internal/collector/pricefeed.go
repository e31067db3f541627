package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"TokenChart/internal/calculator"
	"TokenChart/internal/model"
)

// PriceFeed resolves currency codes through a simple-price REST API.
type PriceFeed struct {
	BaseURL   string
	APIKey    string
	Client    *http.Client
	SymbolMap map[string]string // maps currency code to provider id
}

// NewPriceFeed creates a new price lookup client.
func NewPriceFeed(baseURL, apiKey, proxyURL string) *PriceFeed {
	return &PriceFeed{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"sol":  "solana",
			"wsol": "solana",
			"usdc": "usd-coin",
			"usdt": "tether",
			"eth":  "ethereum",
			"btc":  "bitcoin",
			"bonk": "bonk",
			"jup":  "jupiter-exchange-solana",
		},
	}
}

func (f *PriceFeed) Name() string { return "pricefeed" }

func (f *PriceFeed) providerID(code string) string {
	if id, ok := f.SymbolMap[code]; ok {
		return id
	}
	return code
}

// FetchRates looks up every currency in a single request.
func (f *PriceFeed) FetchRates(ctx context.Context, currencies []string) (model.RateMap, error) {
	rates := model.RateMap{}
	ids := make([]string, 0, len(currencies))
	byID := make(map[string][]string)
	for _, c := range currencies {
		code := calculator.NormalizeCurrency(c)
		if code == calculator.BaseCurrency {
			continue
		}
		id := f.providerID(code)
		if _, seen := byID[id]; !seen {
			ids = append(ids, id)
		}
		byID[id] = append(byID[id], code)
	}
	if len(ids) == 0 {
		return rates, nil
	}

	v := url.Values{}
	v.Set("ids", strings.Join(ids, ","))
	v.Set("vs_currencies", calculator.BaseCurrency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/simple/price?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("x-api-key", f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}

	var result map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	for id, quotes := range result {
		rate, ok := quotes[calculator.BaseCurrency]
		if !ok || rate <= 0 {
			continue
		}
		for _, code := range byID[id] {
			rates[code] = rate
		}
	}
	return rates, nil
}
