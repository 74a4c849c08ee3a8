package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 支付服务指标收集器
type Collector struct {
	// 状态流转指标
	transitionsTotal *prometheus.CounterVec

	// 事件通道指标
	eventsPublishedTotal *prometheus.CounterVec
	eventsConsumedTotal  *prometheus.CounterVec
	eventsDroppedTotal   prometheus.Counter

	// 扫描任务指标
	sweepRunsTotal    prometheus.Counter
	sweepExpiredTotal prometheus.Counter
	sweepDuration     prometheus.Histogram
}

// NewCollector 创建指标收集器
func NewCollector() *Collector {
	return &Collector{
		transitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_transitions_total",
				Help: "Total number of committed payment status transitions",
			},
			[]string{"to_status"},
		),

		eventsPublishedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_events_published_total",
				Help: "Total number of outbound payment events published",
			},
			[]string{"status"},
		),

		eventsConsumedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_events_consumed_total",
				Help: "Total number of inbound order events consumed",
			},
			[]string{"status"},
		),

		eventsDroppedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "order_events_dropped_total",
				Help: "Total number of inbound order events dropped after failure",
			},
		),

		sweepRunsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "payment_sweep_runs_total",
				Help: "Total number of expiry sweep runs",
			},
		),

		sweepExpiredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "payment_sweep_expired_total",
				Help: "Total number of payments force-expired by the sweeper",
			},
		),

		sweepDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "payment_sweep_duration_seconds",
				Help:    "Expiry sweep duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordTransition 记录一次已提交的状态流转
func (c *Collector) RecordTransition(toStatus string) {
	c.transitionsTotal.WithLabelValues(toStatus).Inc()
}

// RecordEventPublished 记录出站事件
func (c *Collector) RecordEventPublished(status string) {
	c.eventsPublishedTotal.WithLabelValues(status).Inc()
}

// RecordEventConsumed 记录入站事件
func (c *Collector) RecordEventConsumed(status string) {
	c.eventsConsumedTotal.WithLabelValues(status).Inc()
}

// RecordEventDropped 记录被丢弃的入站事件
func (c *Collector) RecordEventDropped() {
	c.eventsDroppedTotal.Inc()
}

// RecordSweep 记录一次扫描
func (c *Collector) RecordSweep(expired int, duration time.Duration) {
	c.sweepRunsTotal.Inc()
	c.sweepExpiredTotal.Add(float64(expired))
	c.sweepDuration.Observe(duration.Seconds())
}

// Global 全局收集器实例（在 cmd/server 初始化）
var Global *Collector

// Init 初始化全局收集器
func Init() {
	if Global == nil {
		Global = NewCollector()
	}
}
