// Package metrics exposes Prometheus collectors for the chart pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TradePagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenchart_trade_pages_fetched_total",
		Help: "Trade pages fetched from the trade source",
	}, []string{"asset"})

	TradesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenchart_trades_fetched_total",
		Help: "Trades fetched from the trade source",
	}, []string{"asset"})

	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenchart_fetch_errors_total",
		Help: "Failed trade fetch cycles",
	}, []string{"asset"})

	TradeCapHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenchart_trade_cap_hits_total",
		Help: "Fetch cycles truncated at the trade safety cap",
	}, []string{"asset"})

	RateLookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tokenchart_rate_lookup_failures_total",
		Help: "Currency rate lookups that failed and fell back to an empty map",
	})

	LastPrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tokenchart_last_price_usd",
		Help: "Last chart price per asset and window",
	}, []string{"asset", "window"})

	RefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tokenchart_refresh_duration_seconds",
		Help:    "Duration of a fetch-aggregate-summarize cycle",
		Buckets: prometheus.DefBuckets,
	}, []string{"window", "state"})
)

// ObservePage records one fetched trade page.
func ObservePage(asset string, trades int) {
	TradePagesFetched.WithLabelValues(asset).Inc()
	TradesFetched.WithLabelValues(asset).Add(float64(trades))
}

// ObserveRefresh records the duration and outcome of one chart refresh.
func ObserveRefresh(window, state string, elapsed time.Duration) {
	RefreshDuration.WithLabelValues(window, state).Observe(elapsed.Seconds())
}

// SetLastPrice publishes a known price. Callers skip it for refreshes that
// produced no price so the gauge keeps the last real value.
func SetLastPrice(asset, window string, price float64) {
	LastPrice.WithLabelValues(asset, window).Set(price)
}

// StartMetricsServer serves /metrics on addr in the background.
func StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
