// Package metrics provides Prometheus instrumentation for the auction engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsStarted counts auction sessions opened.
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auction_sessions_started_total",
		Help: "Total number of auction sessions started",
	})

	// BidsTotal counts bids by outcome (accepted, stale, budget, squad, invalid).
	BidsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_bids_total",
		Help: "Total bids submitted, partitioned by result",
	}, []string{"result"})

	// SalesTotal counts finalized sales.
	SalesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auction_sales_total",
		Help: "Total number of players sold",
	})

	// UnsoldTotal counts sessions closed without a sale.
	UnsoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auction_unsold_total",
		Help: "Total number of sessions marked unsold",
	})

	// SalePrice tracks final sale prices in lakhs.
	SalePrice = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auction_sale_price_lakhs",
		Help:    "Final sale price in lakhs",
		Buckets: []float64{20, 50, 100, 200, 500, 1000, 1500, 2000},
	})

	// FinalizeLatency tracks the time spent committing a sale.
	FinalizeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auction_finalize_latency_seconds",
		Help:    "Finalize commit latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ActiveSessions is 1 while a session is open.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auction_active_sessions",
		Help: "Number of currently open auction sessions",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auction_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// EventPublishFailures counts notifier errors by sink.
	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_event_publish_failures_total",
		Help: "Auction events that a notifier failed to deliver",
	}, []string{"sink"})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auction_http_request_duration_seconds",
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

		// Route pattern keeps the label set bounded.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
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

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
