package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenChart/internal/model"
)

func TestPriceFeed_FetchRates(t *testing.T) {
	calls := 0
	var ids string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		ids = r.URL.Query().Get("ids")
		_, _ = w.Write([]byte(`{"solana":{"usd":151.2},"usd-coin":{"usd":1.0},"mystery":{"eur":3}}`))
	}))
	defer srv.Close()

	feed := NewPriceFeed(srv.URL, "key", "")
	rates, err := feed.FetchRates(context.Background(), []string{"sol", "WSOL", "usdc", "usd", "mystery"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.ElementsMatch(t, []string{"solana", "usd-coin", "mystery"}, strings.Split(ids, ","))
	assert.Equal(t, model.RateMap{"sol": 151.2, "wsol": 151.2, "usdc": 1.0}, rates)
}

func TestPriceFeed_OnlyUSDSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))
	defer srv.Close()

	rates, err := NewPriceFeed(srv.URL, "", "").FetchRates(context.Background(), []string{"usd", ""})
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestPriceFeed_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewPriceFeed(srv.URL, "", "").FetchRates(context.Background(), []string{"sol"})
	assert.ErrorIs(t, err, ErrStatus)
}
