// Package metrics は BFF の Prometheus メトリクスを提供します。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/snippet-bff/internal/envelope"
)

const namespace = "bff"

// Metrics は BFF が記録するメトリクスをまとめたものです。
// nil の *Metrics に対するメソッド呼び出しは何もしません。
type Metrics struct {
	registry         *prometheus.Registry
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	tokenEvictions   prometheus.Counter
}

// New は専用のレジストリにメトリクスを登録します。
// includeRuntime が true の場合は Go ランタイムとプロセスのメトリクスも登録します。
func New(includeRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if includeRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Number of upstream API calls by method and outcome.",
		}, []string{"method", "outcome"}),
		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		tokenEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_token_evictions_total",
			Help:      "Number of access tokens removed after the upstream rejected them.",
		}),
	}
}

// ObserveUpstream は上流呼び出し1回分の結果を記録します。
func (m *Metrics) ObserveUpstream(method string, kind envelope.Kind, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(method, kind.String()).Inc()
	m.upstreamDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// TokenEvicted は上流の 401 によってトークンを削除したことを記録します。
func (m *Metrics) TokenEvicted() {
	if m == nil {
		return
	}
	m.tokenEvictions.Inc()
}

// Handler は /metrics 用の HTTP ハンドラを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
