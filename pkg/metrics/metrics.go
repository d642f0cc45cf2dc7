package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 应用指标集合
// 使用独立 Registry，测试中可重复创建而不触发重复注册
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	Conflicts    *prometheus.CounterVec
	Mutations    *prometheus.CounterVec
}

// New 创建并注册全部指标
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "排班/可用时段写入被时间冲突拒绝的次数",
		}, []string{"kind"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "mutations_total",
			Help:      "排班/可用时段成功写入次数",
		}, []string{"kind", "op"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Conflicts,
		m.Mutations,
	)

	return m
}

// RecordConflict 记录一次冲突拒绝，kind 为 schedule | availability
func (m *Metrics) RecordConflict(kind string) {
	m.Conflicts.WithLabelValues(kind).Inc()
}

// RecordMutation 记录一次成功写入，op 为 create | update | delete
func (m *Metrics) RecordMutation(kind, op string) {
	m.Mutations.WithLabelValues(kind, op).Inc()
}

// Handler /metrics 暴露端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 供测试读取指标
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
