// Package ping 实现会话级存活检测协议引擎
package ping

import (
	"github.com/dep2p/go-liveness/pkg/types"
)

// emitter 对外事件发射器
//
// 向有界通道做非阻塞投递：下游已满或已关闭时丢弃事件并记录日志，
// 不重试、不向引擎传播失败。事件投递因此是尽力而为的。
type emitter struct {
	ch      chan types.Event
	closed  bool
	metrics *Metrics
}

// newEmitter 创建事件发射器
func newEmitter(buffer int, metrics *Metrics) *emitter {
	return &emitter{
		ch:      make(chan types.Event, buffer),
		metrics: metrics,
	}
}

// events 返回事件接收通道
func (e *emitter) events() <-chan types.Event {
	return e.ch
}

// emit 非阻塞投递事件
//
// 调用方负责串行化（Handler 锁内调用）。
func (e *emitter) emit(ev types.Event) {
	if e.closed {
		e.metrics.IncEventDropped()
		logger.Warn("事件下游已关闭，丢弃事件", "type", ev.Type())
		return
	}

	select {
	case e.ch <- ev:
	default:
		// 下游消费过慢，丢弃而非阻塞协议回调
		e.metrics.IncEventDropped()
		logger.Warn("事件通道已满，丢弃事件", "type", ev.Type())
	}
}

// close 关闭事件通道
//
// 关闭后 emit 变为丢弃；重复关闭无副作用。
func (e *emitter) close() {
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}
