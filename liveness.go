package liveness

import (
	"github.com/dep2p/go-liveness/internal/protocol/ping"
	"github.com/dep2p/go-liveness/pkg/interfaces"
	"github.com/dep2p/go-liveness/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              用户 API: Liveness
// ════════════════════════════════════════════════════════════════════════════

// Liveness 用户级存活检测引擎 API
//
// Liveness 包装内部协议引擎，向宿主传输层暴露协议回调，
// 向下游消费者暴露事件流。
//
// 使用示例：
//
//	lv, _ := liveness.New()
//	lv.Register(transport)
//
//	for ev := range lv.Events() {
//	    fmt.Printf("liveness event: %s\n", ev.Type())
//	}
type Liveness struct {
	handler *ping.Handler
}

// New 创建存活检测引擎
func New(opts ...Option) (*Liveness, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var metrics *ping.Metrics
	if cfg.Registerer != nil {
		metrics = ping.NewMetrics(cfg.Registerer)
	}

	handler := ping.NewHandler(ping.Params{
		ProtocolID:   cfg.ProtocolID,
		PingInterval: cfg.PingInterval,
		PongTimeout:  cfg.PongTimeout,
		EventBuffer:  cfg.EventBuffer,
		Clock:        cfg.Clock,
		Metrics:      metrics,
	})

	return &Liveness{handler: handler}, nil
}

// ID 返回协议注册标识
func (l *Liveness) ID() types.ProtocolID {
	return l.handler.ID()
}

// Protocol 返回交给传输层驱动的协议回调实现
func (l *Liveness) Protocol() interfaces.SessionProtocol {
	return l.handler
}

// Register 注册到宿主传输层
//
// 等价于 Protocol().Init(t)：保存 Transport 并注册两个周期通知。
// 重复注册返回 ErrAlreadyRegistered。
func (l *Liveness) Register(t interfaces.Transport) error {
	return l.handler.Init(t)
}

// Events 返回对外事件通道
//
// 投递是非阻塞、尽力而为的：消费过慢时事件会被丢弃。
// 同一会话的事件顺序与回调顺序一致，跨会话无顺序保证。
func (l *Liveness) Events() <-chan types.Event {
	return l.handler.Events()
}

// Sessions 返回当前已注册会话数
func (l *Liveness) Sessions() int {
	return l.handler.SessionCount()
}

// Close 关闭引擎并关闭事件通道
func (l *Liveness) Close() error {
	return l.handler.Close()
}
