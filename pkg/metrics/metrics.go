package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AlertMetrics 警报调度指标管理器
type AlertMetrics struct {
	// 调度指标
	alertsSubmitted *prometheus.CounterVec
	alertsQueued    prometheus.Counter
	alertsPreempted prometheus.Counter
	alertsPromoted  prometheus.Counter
	alertsExpired   prometheus.Counter
	ongoingAlerts   prometheus.Gauge
	queuedAlerts    prometheus.Gauge

	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewAlertMetrics 创建指标管理器并注册到指定 Registerer。
// reg 为 nil 时使用默认注册表。
func NewAlertMetrics(reg prometheus.Registerer) *AlertMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &AlertMetrics{
		alertsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carealert_alerts_submitted_total",
				Help: "Total number of alerts submitted, by priority",
			},
			[]string{"priority"},
		),
		alertsQueued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "carealert_alerts_queued_total",
				Help: "Total number of alerts placed in a group queue",
			},
		),
		alertsPreempted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "carealert_alerts_preempted_total",
				Help: "Total number of ongoing alerts preempted by a higher priority alert",
			},
		),
		alertsPromoted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "carealert_alerts_promoted_total",
				Help: "Total number of queued alerts promoted to ongoing",
			},
		),
		alertsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "carealert_alerts_expired_total",
				Help: "Total number of ongoing alerts that lapsed with an empty queue",
			},
		),
		ongoingAlerts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "carealert_ongoing_alerts",
				Help: "Number of groups with a live alert",
			},
		),
		queuedAlerts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "carealert_queued_alerts",
				Help: "Number of alerts currently waiting in group queues",
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordSubmitted 记录一次警报提交
func (m *AlertMetrics) RecordSubmitted(priority string) {
	m.alertsSubmitted.WithLabelValues(priority).Inc()
}

// RecordQueued 记录一次入队
func (m *AlertMetrics) RecordQueued() { m.alertsQueued.Inc() }

// RecordPreempted 记录一次抢占
func (m *AlertMetrics) RecordPreempted() { m.alertsPreempted.Inc() }

// RecordPromoted 记录一次队列晋升
func (m *AlertMetrics) RecordPromoted() { m.alertsPromoted.Inc() }

// RecordExpired 记录一次窗口到期后回到空闲
func (m *AlertMetrics) RecordExpired() { m.alertsExpired.Inc() }

// SetOngoing 更新当前生效警报数
func (m *AlertMetrics) SetOngoing(n int) { m.ongoingAlerts.Set(float64(n)) }

// SetQueued 更新当前排队警报数
func (m *AlertMetrics) SetQueued(n int) { m.queuedAlerts.Set(float64(n)) }
