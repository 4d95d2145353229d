// Package types 定义 go-liveness 公共类型
//
// 本文件定义存活检测事件类型。
package types

import (
	"time"
)

// ============================================================================
//                              Event - 事件接口
// ============================================================================

// Event 基础事件接口
//
// 引擎对外发布的所有存活检测结果都实现此接口，
// 下游消费者按具体类型断言处理。
type Event interface {
	// Type 返回事件类型
	Type() string

	// Timestamp 返回事件时间戳
	Timestamp() time.Time
}

// 事件类型常量
const (
	// EventTypePing 收到对端 Ping
	EventTypePing = "liveness.ping"
	// EventTypePong 收到匹配的 Pong
	EventTypePong = "liveness.pong"
	// EventTypeTimeout 对端应答超时
	EventTypeTimeout = "liveness.timeout"
	// EventTypeUnexpectedError 对端产生意外错误
	EventTypeUnexpectedError = "liveness.unexpected_error"
)

// BaseEvent 基础事件实现
type BaseEvent struct {
	EventType string
	Time      time.Time
}

// Type 返回事件类型
func (e BaseEvent) Type() string {
	return e.EventType
}

// Timestamp 返回事件时间戳
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// NewBaseEvent 创建基础事件（时间戳取当前时间）
func NewBaseEvent(eventType string) BaseEvent {
	return NewBaseEventAt(eventType, time.Now())
}

// NewBaseEventAt 创建带指定时间戳的基础事件
//
// 引擎内部使用注入的时钟构造事件，保证测试可确定性。
func NewBaseEventAt(eventType string, t time.Time) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      t,
	}
}

// ============================================================================
//                              存活检测事件
// ============================================================================

// EvtPing 对端向我们发送了 Ping
type EvtPing struct {
	BaseEvent
	Peer PeerID
}

// EvtPong 对端应答了我们发出的 Ping
type EvtPong struct {
	BaseEvent
	Peer PeerID
	// RTT 从发出挑战到收到应答的往返时间（单调时钟测量）
	RTT time.Duration
}

// EvtTimeout 对端在配置的超时时间内未应答
//
// 注意：同一会话在恢复或断开之前，每个检查周期都会重复产生此事件。
type EvtTimeout struct {
	BaseEvent
	Peer PeerID
}

// EvtUnexpectedError 对端产生协议层软错误
//
// 包括无法解码的报文、nonce 不匹配、状态不匹配的 Pong。
// 会话保持连接，不做自动惩罚。
type EvtUnexpectedError struct {
	BaseEvent
	Peer PeerID
}
