package liveness

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-liveness/internal/protocol/ping"
	"github.com/dep2p/go-liveness/pkg/types"
)

// Option 定义配置选项函数
type Option func(*Config)

// Config 存活检测引擎配置
type Config struct {
	// ProtocolID 引擎注册到传输层的协议标识
	ProtocolID types.ProtocolID

	// PingInterval 挑战轮次间隔
	PingInterval time.Duration

	// PongTimeout 未决挑战判定超时的时长
	PongTimeout time.Duration

	// EventBuffer 事件通道容量（满时丢弃新事件）
	EventBuffer int

	// Clock 时钟注入（测试用，默认系统时钟）
	Clock clock.Clock

	// Registerer 指标注册器 (可选，nil 表示不启用指标)
	Registerer prometheus.Registerer
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ProtocolID:   ping.DefaultProtocolID,
		PingInterval: 15 * time.Second,
		PongTimeout:  30 * time.Second,
		EventBuffer:  128,
		Clock:        clock.New(),
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.ProtocolID == "" {
		return ErrInvalidProtocolID
	}
	if c.PingInterval <= 0 {
		return ErrInvalidPingInterval
	}
	if c.PongTimeout <= 0 {
		return ErrInvalidPongTimeout
	}
	if c.EventBuffer <= 0 {
		return ErrInvalidEventBuffer
	}
	return nil
}

// WithProtocolID 设置协议标识
func WithProtocolID(id types.ProtocolID) Option {
	return func(c *Config) {
		c.ProtocolID = id
	}
}

// WithPingInterval 设置挑战轮次间隔
func WithPingInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.PingInterval = interval
	}
}

// WithPongTimeout 设置应答超时
func WithPongTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.PongTimeout = timeout
	}
}

// WithEventBuffer 设置事件通道容量
func WithEventBuffer(size int) Option {
	return func(c *Config) {
		c.EventBuffer = size
	}
}

// WithClock 注入时钟
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		c.Clock = clk
	}
}

// WithMetrics 启用 Prometheus 指标并注册到指定注册器
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registerer = reg
	}
}
