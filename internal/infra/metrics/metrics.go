// Package metrics bundles the Prometheus collectors for the deal pipeline and
// serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op, so
// components can be built without instrumentation in tests.
type Metrics struct {
	Registry         *prometheus.Registry
	ListingsSeen     prometheus.Counter
	Enrichments      *prometheus.CounterVec
	Matches          *prometheus.CounterVec
	Deals            *prometheus.CounterVec
	AlertsSent       prometheus.Counter
	AlertFailures    prometheus.Counter
	LoopRuns         *prometheus.CounterVec
	LoopDuration     *prometheus.HistogramVec
	CatalogRefreshed *prometheus.CounterVec
	RowsDeleted      *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		ListingsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cratedigger_listings_seen_total",
			Help: "Listings returned by marketplace searches.",
		}),
		Enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedigger_enrichments_total",
			Help: "Identifier lookups for listings without a catalog number, by source.",
		}, []string{"source"}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedigger_matches_total",
			Help: "Listing resolutions by tier (or none).",
		}, []string{"tier"}),
		Deals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedigger_deals_total",
			Help: "Scored deals by priority band.",
		}, []string{"priority"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cratedigger_alerts_sent_total",
			Help: "Deal alerts delivered to recipients.",
		}),
		AlertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cratedigger_alert_failures_total",
			Help: "Deal alerts whose delivery failed.",
		}),
		LoopRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedigger_loop_runs_total",
			Help: "Scheduler loop cycles by loop and outcome.",
		}, []string{"loop", "outcome"}),
		LoopDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cratedigger_loop_duration_seconds",
			Help:    "Duration of one scheduler loop cycle.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}, []string{"loop"}),
		CatalogRefreshed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedigger_catalog_refresh_total",
			Help: "Catalog price refresh attempts by result.",
		}, []string{"result"}),
		RowsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedigger_rows_deleted_total",
			Help: "Rows removed by retention cleanup.",
		}, []string{"table"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cratedigger_provider_requests_total",
			Help: "Requests to external providers by provider and status.",
		}, []string{"provider", "status"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cratedigger_provider_request_duration_seconds",
			Help:    "Latency of requests to external providers.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
	}

	registry.MustRegister(
		m.ListingsSeen, m.Enrichments, m.Matches, m.Deals,
		m.AlertsSent, m.AlertFailures, m.LoopRuns, m.LoopDuration,
		m.CatalogRefreshed, m.RowsDeleted, m.ProviderRequests, m.ProviderDuration,
	)
	return m
}

func (m *Metrics) AddListings(n int) {
	if m == nil {
		return
	}
	m.ListingsSeen.Add(float64(n))
}

func (m *Metrics) IncEnrichment(source string) {
	if m == nil {
		return
	}
	m.Enrichments.WithLabelValues(source).Inc()
}

func (m *Metrics) IncMatch(tier string) {
	if m == nil {
		return
	}
	m.Matches.WithLabelValues(tier).Inc()
}

func (m *Metrics) IncDeal(priority string) {
	if m == nil {
		return
	}
	m.Deals.WithLabelValues(priority).Inc()
}

func (m *Metrics) IncAlert(delivered bool) {
	if m == nil {
		return
	}
	if delivered {
		m.AlertsSent.Inc()
		return
	}
	m.AlertFailures.Inc()
}

func (m *Metrics) ObserveLoop(loop, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LoopRuns.WithLabelValues(loop, outcome).Inc()
	m.LoopDuration.WithLabelValues(loop).Observe(d.Seconds())
}

func (m *Metrics) IncRefresh(result string) {
	if m == nil {
		return
	}
	m.CatalogRefreshed.WithLabelValues(result).Inc()
}

func (m *Metrics) AddDeleted(table string, n int64) {
	if m == nil {
		return
	}
	m.RowsDeleted.WithLabelValues(table).Add(float64(n))
}

func (m *Metrics) ObserveProvider(provider, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, status).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// Serve exposes the registry on addr at /metrics until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
