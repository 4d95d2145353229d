// Package ping 实现会话级存活检测协议引擎
package ping

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 协议指标集合
//
// nil 接收者安全：未配置指标时所有方法都是空操作，
// 引擎代码无需判空。
type Metrics struct {
	pingsSent        prometheus.Counter
	pingsReceived    prometheus.Counter
	pongsAccepted    prometheus.Counter
	timeouts         prometheus.Counter
	unexpectedErrors prometheus.Counter
	eventsDropped    prometheus.Counter
	sessions         prometheus.Gauge
	rtt              prometheus.Histogram
}

// NewMetrics 创建并注册协议指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pingsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveness",
			Name:      "pings_sent_total",
			Help:      "Total number of ping challenges sent.",
		}),
		pingsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveness",
			Name:      "pings_received_total",
			Help:      "Total number of pings received from peers.",
		}),
		pongsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveness",
			Name:      "pongs_accepted_total",
			Help:      "Total number of pongs matched against an outstanding challenge.",
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveness",
			Name:      "timeouts_total",
			Help:      "Total number of timeout events emitted.",
		}),
		unexpectedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveness",
			Name:      "unexpected_errors_total",
			Help:      "Total number of protocol-level soft failures.",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liveness",
			Name:      "events_dropped_total",
			Help:      "Total number of events dropped due to sink backpressure.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "liveness",
			Name:      "sessions",
			Help:      "Current number of registered sessions.",
		}),
		rtt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "liveness",
			Name:      "rtt_seconds",
			Help:      "Round-trip time between challenge and matching response.",
			// 覆盖 1ms .. ~4s
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 13),
		}),
	}

	reg.MustRegister(
		m.pingsSent,
		m.pingsReceived,
		m.pongsAccepted,
		m.timeouts,
		m.unexpectedErrors,
		m.eventsDropped,
		m.sessions,
		m.rtt,
	)
	return m
}

// AddPingsSent 累加发出的挑战数
func (m *Metrics) AddPingsSent(n int) {
	if m == nil {
		return
	}
	m.pingsSent.Add(float64(n))
}

// IncPingReceived 累加收到的 Ping 数
func (m *Metrics) IncPingReceived() {
	if m == nil {
		return
	}
	m.pingsReceived.Inc()
}

// IncPongAccepted 累加接受的 Pong 数
func (m *Metrics) IncPongAccepted() {
	if m == nil {
		return
	}
	m.pongsAccepted.Inc()
}

// IncTimeout 累加超时事件数
func (m *Metrics) IncTimeout() {
	if m == nil {
		return
	}
	m.timeouts.Inc()
}

// IncUnexpectedError 累加协议软错误数
func (m *Metrics) IncUnexpectedError() {
	if m == nil {
		return
	}
	m.unexpectedErrors.Inc()
}

// IncEventDropped 累加被丢弃的事件数
func (m *Metrics) IncEventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

// SetSessions 更新当前会话数
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// ObserveRTT 记录一次往返时间
func (m *Metrics) ObserveRTT(seconds float64) {
	if m == nil {
		return
	}
	m.rtt.Observe(seconds)
}
