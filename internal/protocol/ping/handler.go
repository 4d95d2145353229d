// Package ping 实现会话级存活检测协议引擎
//
// 引擎是单逻辑角色：传输层按会话顺序驱动 Connected/Received/Notify/Disconnected
// 回调，引擎查询并修改会话注册表，用编解码器解析入站报文、构造出站报文，
// 并通过非阻塞发射器对外发布存活检测结果。
package ping

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-liveness/pkg/interfaces"
	"github.com/dep2p/go-liveness/pkg/lib/log"
	"github.com/dep2p/go-liveness/pkg/types"
)

var logger = log.Logger("protocol/ping")

// Params Handler构造参数
type Params struct {
	// ProtocolID 协议注册标识
	ProtocolID types.ProtocolID

	// PingInterval 挑战轮次间隔
	PingInterval time.Duration

	// PongTimeout 未决挑战判定超时的时长
	PongTimeout time.Duration

	// EventBuffer 事件通道容量
	EventBuffer int

	// Clock 时钟（为 nil 时使用系统时钟）
	Clock clock.Clock

	// Metrics 协议指标（可为 nil）
	Metrics *Metrics
}

// Handler 存活检测协议引擎
//
// 实现 interfaces.SessionProtocol。宿主无法保证回调串行时，
// 引擎以单把粗粒度锁保护每次回调（从不按记录加细粒度锁）。
type Handler struct {
	protoID  types.ProtocolID
	interval time.Duration
	timeout  time.Duration

	clk     clock.Clock
	metrics *Metrics

	mu        sync.Mutex
	transport interfaces.Transport
	sessions  *registry
	emitter   *emitter
	closed    bool
}

// 确保 Handler 实现了 interfaces.SessionProtocol 接口
var _ interfaces.SessionProtocol = (*Handler)(nil)

// NewHandler 创建协议引擎
func NewHandler(p Params) *Handler {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}

	return &Handler{
		protoID:  p.ProtocolID,
		interval: p.PingInterval,
		timeout:  p.PongTimeout,
		clk:      clk,
		metrics:  p.Metrics,
		sessions: newRegistry(),
		emitter:  newEmitter(p.EventBuffer, p.Metrics),
	}
}

// ID 返回协议注册标识
func (h *Handler) ID() types.ProtocolID {
	return h.protoID
}

// Events 返回对外事件通道
func (h *Handler) Events() <-chan types.Event {
	return h.emitter.events()
}

// SessionCount 返回当前已注册会话数
func (h *Handler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions.len()
}

// Init 注册到传输层
//
// 保存 Transport 并注册两个周期通知：
// 发起挑战轮次（SendPingToken）与检查应答超时（CheckTimeoutToken）。
// 仅允许注册一次。
func (h *Handler) Init(t interfaces.Transport) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if t == nil {
		return ErrNilTransport
	}
	if h.transport != nil {
		return ErrAlreadyRegistered
	}

	if err := t.SetNotify(h.interval, SendPingToken); err != nil {
		return fmt.Errorf("register send-ping notify: %w", err)
	}
	if err := t.SetNotify(h.timeout, CheckTimeoutToken); err != nil {
		return fmt.Errorf("register check-timeout notify: %w", err)
	}

	h.transport = t
	logger.Info("存活检测引擎已注册",
		"protocol", h.protoID,
		"pingInterval", h.interval,
		"pongTimeout", h.timeout)
	return nil
}

// Close 关闭引擎并关闭事件通道
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	h.closed = true
	h.emitter.close()
	return nil
}

// ============================================================================
//                              生命周期回调
// ============================================================================

// Connected 会话建立
//
// 握手未产生可解析身份的会话无法参与协议，直接强制断开，不创建记录。
// 插入是幂等的：重复的 Connected 回调不会重置已有会话的状态。
func (h *Handler) Connected(sess interfaces.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(sess.RemotePublicKey) == 0 {
		logger.Warn("会话缺少可解析身份，强制断开",
			"session", sess.ID,
			"addr", sess.RemoteAddr)
		if err := h.transport.Disconnect(sess.ID); err != nil {
			logger.Error("强制断开失败", "session", sess.ID, "error", err)
		}
		return
	}

	peer := types.PeerIDFromPublicKey(sess.RemotePublicKey)
	if h.sessions.insertIfAbsent(sess.ID, peer, h.clk.Now()) {
		h.metrics.SetSessions(h.sessions.len())
		logger.Debug("会话已注册",
			"session", sess.ID,
			"peer", peer.ShortString(),
			"addr", sess.RemoteAddr)
	}
}

// Disconnected 会话断开
//
// 无条件删除记录，删除本身不产生事件。
func (h *Handler) Disconnected(id types.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions.remove(id)
	h.metrics.SetSessions(h.sessions.len())
	logger.Debug("会话已移除", "session", id)
}

// Received 收到一帧完整报文
//
// 未注册会话的报文静默丢弃。其余按变体分发：
//   - Ping: 原样回显 nonce 的 Pong（与自身状态无关），发布 EvtPing
//   - Pong: 仅当存在未决挑战且 nonce 匹配时接受；否则发布 EvtUnexpectedError
//   - None: 发布 EvtUnexpectedError
func (h *Handler) Received(id types.SessionID, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec, ok := h.sessions.get(id)
	if !ok {
		// 本协议实例不认识的会话
		return
	}

	msg := Decode(data)
	switch msg.Kind {
	case KindPing:
		reply := Encode(Message{Kind: KindPong, Nonce: msg.Nonce})
		if err := h.transport.Send(id, reply); err != nil {
			logger.Warn("发送 pong 失败", "session", id, "error", err)
		}
		h.metrics.IncPingReceived()
		h.emitter.emit(types.EvtPing{
			BaseEvent: types.NewBaseEventAt(types.EventTypePing, h.clk.Now()),
			Peer:      rec.peer,
		})

	case KindPong:
		if rec.processing && msg.Nonce == rec.nonce() {
			rtt := h.clk.Since(rec.lastPing)
			if rtt < 0 {
				rtt = 0
			}
			rec.processing = false
			h.metrics.IncPongAccepted()
			h.metrics.ObserveRTT(rtt.Seconds())
			h.emitter.emit(types.EvtPong{
				BaseEvent: types.NewBaseEventAt(types.EventTypePong, h.clk.Now()),
				Peer:      rec.peer,
				RTT:       rtt,
			})
			logger.Debug("pong 已接受",
				"session", id,
				"peer", rec.peer.ShortString(),
				"rtt", rtt)
		} else {
			// 状态不匹配或 nonce 不匹配：记录保持不变
			h.metrics.IncUnexpectedError()
			h.emitter.emit(types.EvtUnexpectedError{
				BaseEvent: types.NewBaseEventAt(types.EventTypeUnexpectedError, h.clk.Now()),
				Peer:      rec.peer,
			})
			logger.Debug("pong 被拒绝",
				"session", id,
				"processing", rec.processing,
				"nonce", msg.Nonce,
				"expected", rec.nonce())
		}

	case KindNone:
		h.metrics.IncUnexpectedError()
		h.emitter.emit(types.EvtUnexpectedError{
			BaseEvent: types.NewBaseEventAt(types.EventTypeUnexpectedError, h.clk.Now()),
			Peer:      rec.peer,
		})
	}
}

// Notify 周期性通知触发
//
// 未知令牌说明宿主与引擎的接线不一致，属编程错误，直接 panic。
func (h *Handler) Notify(token uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch token {
	case SendPingToken:
		h.sendPingRound()
	case CheckTimeoutToken:
		h.checkTimeouts()
	default:
		panic(fmt.Sprintf("liveness: unknown notify token %d", token))
	}
}

// sendPingRound 发起一轮挑战
//
// 整轮只取一次时间快照：所有被选中的会话以同一时刻盖章，
// 因此共享同一个 nonce，只构造一份 Ping 载荷做定向广播。
// 已有未决挑战的会话跳过；无可挑战会话时不发送。
func (h *Handler) sendPingRound() {
	now := h.clk.Now()

	var selected []types.SessionID
	var nonce uint32
	h.sessions.forEach(func(id types.SessionID, rec *record) {
		if rec.processing {
			return
		}
		rec.processing = true
		rec.lastPing = now
		nonce = rec.nonce()
		selected = append(selected, id)
	})

	if len(selected) == 0 {
		return
	}

	payload := Encode(Message{Kind: KindPing, Nonce: nonce})
	if err := h.transport.Broadcast(selected, payload); err != nil {
		logger.Warn("广播 ping 失败", "sessions", len(selected), "error", err)
	}
	h.metrics.AddPingsSent(len(selected))
	logger.Debug("已发起挑战轮次", "sessions", len(selected), "nonce", nonce)
}

// checkTimeouts 扫描应答超时的会话
//
// 对每个超时会话发布 EvtTimeout，但不清除 processing：
// 持续无应答的会话在恢复或断开之前，每个检查周期都会再次产生超时事件，
// 后续挑战轮次也会因其仍处于未决状态而跳过它。
func (h *Handler) checkTimeouts() {
	h.sessions.forEach(func(id types.SessionID, rec *record) {
		if !rec.processing {
			return
		}
		if h.clk.Since(rec.lastPing) < h.timeout {
			return
		}
		h.metrics.IncTimeout()
		h.emitter.emit(types.EvtTimeout{
			BaseEvent: types.NewBaseEventAt(types.EventTypeTimeout, h.clk.Now()),
			Peer:      rec.peer,
		})
		logger.Debug("会话应答超时",
			"session", id,
			"peer", rec.peer.ShortString())
	})
}
