// Package metrics は割り当て検証と gRPC 呼び出しの Prometheus メトリクスを提供します。
package metrics

import (
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
)

const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
)

// Option は Manager の設定を変更します。
type Option func(*Manager)

// WithNamespace はメトリクス名の名前空間を設定します。
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets はレイテンシのバケットを設定します。
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRegistry は登録先のレジストリを設定します。
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// WithRuntimeCollectors は Go ランタイムとプロセスのメトリクスを追加します。
func WithRuntimeCollectors() Option {
	return func(m *Manager) {
		m.runtime = true
	}
}

// Manager はサービスのメトリクスを専用レジストリで管理します。
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry
	runtime   bool

	validations      *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	grpcRequests     *prometheus.CounterVec
	grpcDuration     *prometheus.HistogramVec
}

// NewManager は Manager を生成します。
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "capacity",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.validations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "allocation",
		Name:      "validations_total",
		Help:      "Assignment proposals evaluated by the allocation engine, by result.",
	}, []string{"result"})

	m.validationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "allocation",
		Name:      "validation_errors_total",
		Help:      "Validation errors reported by the allocation engine, by field.",
	}, []string{"field"})

	m.grpcRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "grpc",
		Name:      "requests_total",
		Help:      "Handled gRPC requests by method and status code.",
	}, []string{"method", "code"})

	m.grpcDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "grpc",
		Name:      "request_duration_seconds",
		Help:      "gRPC request latency in seconds.",
		Buckets:   m.buckets,
	}, []string{"method"})

	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return m
}

// ObserveValidation は検証結果を記録します。
func (m *Manager) ObserveValidation(result allocation.ValidationResult) {
	if m == nil {
		return
	}
	if result.Valid() {
		m.validations.WithLabelValues(resultAccepted).Inc()
		return
	}
	m.validations.WithLabelValues(resultRejected).Inc()

	fields := make([]string, 0, len(result))
	for f := range result {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		m.validationErrors.WithLabelValues(f).Inc()
	}
}

// ObserveRequest は gRPC 呼び出しの結果と所要時間を記録します。
func (m *Manager) ObserveRequest(method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.grpcRequests.WithLabelValues(method, code).Inc()
	m.grpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Registry は登録先のレジストリを返します。
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler は /metrics 用の HTTP ハンドラーを返します。
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
