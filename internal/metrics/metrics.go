// Package metrics provides Prometheus instrumentation for the economics engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BetsTotal counts stakes placed, partitioned by side.
	BetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econ_bets_total",
		Help: "Total number of stakes placed",
	}, []string{"side"})

	// BetAmount tracks staked coin amounts.
	BetAmount = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "econ_bet_amount_coins",
		Help:    "Coin amount per stake",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
	}, []string{"side"})

	// MarketsResolved counts market resolutions.
	MarketsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econ_markets_resolved_total",
		Help: "Total number of markets resolved",
	})

	// TiersAssigned counts tier classifications, partitioned by tier.
	TiersAssigned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econ_tiers_assigned_total",
		Help: "Tier classifications produced",
	}, []string{"tier"})

	// DailyClaims counts accepted daily reward claims, partitioned by
	// whether the claim hit the jackpot day.
	DailyClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econ_daily_claims_total",
		Help: "Accepted daily reward claims",
	}, []string{"jackpot"})

	// JackpotDraws counts jackpot prizes by rarity.
	JackpotDraws = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econ_jackpot_draws_total",
		Help: "Jackpot prizes drawn",
	}, []string{"rarity"})

	// StakeLimitRejections counts stakes rejected by the exposure limiter.
	StakeLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econ_stake_limit_rejections_total",
		Help: "Stakes rejected by the exposure limiter",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "econ_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econ_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "econ_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
