// Package ping 实现会话级存活检测协议引擎
package ping

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-liveness/pkg/interfaces"
	"github.com/dep2p/go-liveness/pkg/types"
)

// ============================================================================
// 测试辅助
// ============================================================================

type sentFrame struct {
	session types.SessionID
	data    []byte
}

type broadcastFrame struct {
	sessions []types.SessionID
	data     []byte
}

type notifyReg struct {
	interval time.Duration
	token    uint64
}

// mockTransport 记录引擎出站调用的传输层替身
type mockTransport struct {
	sent         []sentFrame
	broadcasts   []broadcastFrame
	disconnected []types.SessionID
	notifies     []notifyReg
}

func (m *mockTransport) Send(session types.SessionID, data []byte) error {
	m.sent = append(m.sent, sentFrame{session: session, data: data})
	return nil
}

func (m *mockTransport) Broadcast(sessions []types.SessionID, data []byte) error {
	cp := make([]types.SessionID, len(sessions))
	copy(cp, sessions)
	m.broadcasts = append(m.broadcasts, broadcastFrame{sessions: cp, data: data})
	return nil
}

func (m *mockTransport) Disconnect(session types.SessionID) error {
	m.disconnected = append(m.disconnected, session)
	return nil
}

func (m *mockTransport) SetNotify(interval time.Duration, token uint64) error {
	m.notifies = append(m.notifies, notifyReg{interval: interval, token: token})
	return nil
}

const (
	testInterval = 15 * time.Second
	testTimeout  = 30 * time.Second
)

// newTestHandler 创建注册完成的引擎、传输层替身和可控时钟
func newTestHandler(t *testing.T) (*Handler, *mockTransport, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))

	h := NewHandler(Params{
		ProtocolID:   DefaultProtocolID,
		PingInterval: testInterval,
		PongTimeout:  testTimeout,
		EventBuffer:  64,
		Clock:        mock,
	})

	mt := &mockTransport{}
	if err := h.Init(mt); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	return h, mt, mock
}

func connect(t *testing.T, h *Handler, id types.SessionID, pubkey string) types.PeerID {
	t.Helper()
	h.Connected(interfaces.Session{
		ID:              id,
		RemoteAddr:      "127.0.0.1:4001",
		RemotePublicKey: []byte(pubkey),
	})
	return types.PeerIDFromPublicKey([]byte(pubkey))
}

// drainEvents 读空事件通道
func drainEvents(h *Handler) []types.Event {
	var events []types.Event
	for {
		select {
		case ev := <-h.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

// lastBroadcastNonce 解出最近一次广播载荷中的 nonce
func lastBroadcastNonce(t *testing.T, mt *mockTransport) uint32 {
	t.Helper()
	if len(mt.broadcasts) == 0 {
		t.Fatal("no broadcast recorded")
	}
	msg := Decode(mt.broadcasts[len(mt.broadcasts)-1].data)
	if msg.Kind != KindPing {
		t.Fatalf("broadcast payload kind = %v, want ping", msg.Kind)
	}
	return msg.Nonce
}

// ============================================================================
// 注册
// ============================================================================

func TestHandler_Init(t *testing.T) {
	h, mt, _ := newTestHandler(t)

	if len(mt.notifies) != 2 {
		t.Fatalf("notify registrations = %d, want 2", len(mt.notifies))
	}
	if mt.notifies[0] != (notifyReg{interval: testInterval, token: SendPingToken}) {
		t.Errorf("first notify = %+v", mt.notifies[0])
	}
	if mt.notifies[1] != (notifyReg{interval: testTimeout, token: CheckTimeoutToken}) {
		t.Errorf("second notify = %+v", mt.notifies[1])
	}

	// 重复注册应该失败
	if err := h.Init(&mockTransport{}); err != ErrAlreadyRegistered {
		t.Errorf("second Init() = %v, want ErrAlreadyRegistered", err)
	}
}

func TestHandler_InitNilTransport(t *testing.T) {
	h := NewHandler(Params{
		ProtocolID:   DefaultProtocolID,
		PingInterval: testInterval,
		PongTimeout:  testTimeout,
		EventBuffer:  64,
	})
	if err := h.Init(nil); err != ErrNilTransport {
		t.Errorf("Init(nil) = %v, want ErrNilTransport", err)
	}
}

func TestHandler_Close(t *testing.T) {
	h, _, _ := newTestHandler(t)

	if err := h.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	// 重复关闭应该失败
	if err := h.Close(); err != ErrClosed {
		t.Errorf("second Close() = %v, want ErrClosed", err)
	}
	// 关闭后不可再注册
	if err := h.Init(&mockTransport{}); err != ErrClosed {
		t.Errorf("Init() after Close() = %v, want ErrClosed", err)
	}
}

// ============================================================================
// 会话生命周期
// ============================================================================

func TestHandler_Connected(t *testing.T) {
	tests := []struct {
		name           string
		pubkey         []byte
		wantSessions   int
		wantDisconnect bool
	}{
		{
			name:         "有效身份",
			pubkey:       []byte("pubkey-1"),
			wantSessions: 1,
		},
		{
			name:           "缺少身份时强制断开",
			pubkey:         nil,
			wantSessions:   0,
			wantDisconnect: true,
		},
		{
			name:           "空公钥视同缺少身份",
			pubkey:         []byte{},
			wantSessions:   0,
			wantDisconnect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mt, _ := newTestHandler(t)
			h.Connected(interfaces.Session{ID: 1, RemotePublicKey: tt.pubkey})

			if got := h.SessionCount(); got != tt.wantSessions {
				t.Errorf("SessionCount() = %d, want %d", got, tt.wantSessions)
			}
			if tt.wantDisconnect && len(mt.disconnected) != 1 {
				t.Error("session should have been force-disconnected")
			}
			if !tt.wantDisconnect && len(mt.disconnected) != 0 {
				t.Error("unexpected force-disconnect")
			}
			// 身份失败不产生任何事件
			if tt.wantDisconnect {
				if events := drainEvents(h); len(events) != 0 {
					t.Errorf("events = %d, want 0", len(events))
				}
			}
		})
	}
}

func TestHandler_ConnectedIdempotent(t *testing.T) {
	h, mt, _ := newTestHandler(t)
	connect(t, h, 1, "pubkey-1")

	// 发出挑战后重复 Connected，未决状态不得被重置
	h.Notify(SendPingToken)
	nonce := lastBroadcastNonce(t, mt)

	connect(t, h, 1, "pubkey-1")

	h.Notify(SendPingToken)
	if len(mt.broadcasts) != 1 {
		t.Error("a re-connected session must keep its outstanding challenge")
	}

	// 原挑战仍可被应答
	h.Received(1, Encode(Message{Kind: KindPong, Nonce: nonce}))
	events := drainEvents(h)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if _, ok := events[0].(types.EvtPong); !ok {
		t.Errorf("event = %T, want EvtPong", events[0])
	}
}

func TestHandler_Disconnected(t *testing.T) {
	h, _, _ := newTestHandler(t)
	connect(t, h, 1, "pubkey-1")

	h.Disconnected(1)
	if got := h.SessionCount(); got != 0 {
		t.Errorf("SessionCount() = %d, want 0", got)
	}
	// 删除本身不产生事件
	if events := drainEvents(h); len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
	// 未注册会话重复断开是空操作
	h.Disconnected(1)
}

// ============================================================================
// 报文接收
// ============================================================================

func TestHandler_ReceivedUnknownSession(t *testing.T) {
	h, mt, _ := newTestHandler(t)

	// 未注册会话的报文静默丢弃
	h.Received(9, Encode(Message{Kind: KindPing, Nonce: 7}))
	if len(mt.sent) != 0 {
		t.Error("no reply expected for an unknown session")
	}
	if events := drainEvents(h); len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
}

func TestHandler_ReceivedPing(t *testing.T) {
	h, mt, _ := newTestHandler(t)
	peer := connect(t, h, 1, "pubkey-1")

	h.Received(1, Encode(Message{Kind: KindPing, Nonce: 12345}))

	// 原样回显 nonce
	if len(mt.sent) != 1 {
		t.Fatalf("sent frames = %d, want 1", len(mt.sent))
	}
	reply := Decode(mt.sent[0].data)
	if reply.Kind != KindPong || reply.Nonce != 12345 {
		t.Errorf("reply = %+v, want pong nonce 12345", reply)
	}

	events := drainEvents(h)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	evt, ok := events[0].(types.EvtPing)
	if !ok {
		t.Fatalf("event = %T, want EvtPing", events[0])
	}
	if !evt.Peer.Equal(peer) {
		t.Errorf("event peer = %s, want %s", evt.Peer, peer)
	}
}

func TestHandler_ReceivedPingWhileAwaiting(t *testing.T) {
	h, mt, _ := newTestHandler(t)
	connect(t, h, 1, "pubkey-1")
	h.Notify(SendPingToken)
	nonce := lastBroadcastNonce(t, mt)

	// 对端的 Ping 不影响我们的未决挑战
	h.Received(1, Encode(Message{Kind: KindPing, Nonce: 999}))
	drainEvents(h)

	h.Received(1, Encode(Message{Kind: KindPong, Nonce: nonce}))
	events := drainEvents(h)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if _, ok := events[0].(types.EvtPong); !ok {
		t.Errorf("event = %T, want EvtPong", events[0])
	}
}

func TestHandler_ReceivedPong(t *testing.T) {
	h, mt, mock := newTestHandler(t)
	peer := connect(t, h, 1, "pubkey-1")

	h.Notify(SendPingToken)
	nonce := lastBroadcastNonce(t, mt)

	mock.Add(250 * time.Millisecond)
	h.Received(1, Encode(Message{Kind: KindPong, Nonce: nonce}))

	events := drainEvents(h)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	evt, ok := events[0].(types.EvtPong)
	if !ok {
		t.Fatalf("event = %T, want EvtPong", events[0])
	}
	if !evt.Peer.Equal(peer) {
		t.Errorf("event peer = %s, want %s", evt.Peer, peer)
	}
	if evt.RTT != 250*time.Millisecond {
		t.Errorf("RTT = %v, want 250ms", evt.RTT)
	}

	// 已回到空闲态：重复的 Pong 属于状态不匹配
	h.Received(1, Encode(Message{Kind: KindPong, Nonce: nonce}))
	events = drainEvents(h)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if _, ok := events[0].(types.EvtUnexpectedError); !ok {
		t.Errorf("event = %T, want EvtUnexpectedError", events[0])
	}
}

func TestHandler_ReceivedPongRejected(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(t *testing.T, h *Handler, mt *mockTransport) Message
	}{
		{
			name: "nonce不匹配",
			arrange: func(t *testing.T, h *Handler, mt *mockTransport) Message {
				h.Notify(SendPingToken)
				nonce := lastBroadcastNonce(t, mt)
				return Message{Kind: KindPong, Nonce: nonce + 1}
			},
		},
		{
			name: "空闲状态收到Pong",
			arrange: func(t *testing.T, h *Handler, mt *mockTransport) Message {
				return Message{Kind: KindPong, Nonce: 7}
			},
		},
		{
			name: "无法解码的报文",
			arrange: func(t *testing.T, h *Handler, mt *mockTransport) Message {
				return Message{Kind: KindNone}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mt, _ := newTestHandler(t)
			peer := connect(t, h, 1, "pubkey-1")
			msg := tt.arrange(t, h, mt)

			h.Received(1, Encode(msg))

			events := drainEvents(h)
			if len(events) != 1 {
				t.Fatalf("events = %d, want 1", len(events))
			}
			evt, ok := events[0].(types.EvtUnexpectedError)
			if !ok {
				t.Fatalf("event = %T, want EvtUnexpectedError", events[0])
			}
			if !evt.Peer.Equal(peer) {
				t.Errorf("event peer = %s, want %s", evt.Peer, peer)
			}
		})
	}
}

func TestHandler_RejectedPongKeepsState(t *testing.T) {
	h, mt, _ := newTestHandler(t)
	connect(t, h, 1, "pubkey-1")
	h.Notify(SendPingToken)
	nonce := lastBroadcastNonce(t, mt)

	// 错误的 nonce 不改变记录状态
	h.Received(1, Encode(Message{Kind: KindPong, Nonce: nonce + 1}))
	drainEvents(h)

	// 原 nonce 仍然有效
	h.Received(1, Encode(Message{Kind: KindPong, Nonce: nonce}))
	events := drainEvents(h)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if _, ok := events[0].(types.EvtPong); !ok {
		t.Errorf("event = %T, want EvtPong", events[0])
	}
}

// ============================================================================
// 挑战轮次
// ============================================================================

func TestHandler_SendPingRound(t *testing.T) {
	h, mt, mock := newTestHandler(t)
	connect(t, h, 1, "pubkey-1")
	connect(t, h, 2, "pubkey-2")

	h.Notify(SendPingToken)

	if len(mt.broadcasts) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(mt.broadcasts))
	}
	bc := mt.broadcasts[0]
	if len(bc.sessions) != 2 {
		t.Errorf("broadcast sessions = %v, want both", bc.sessions)
	}

	// 同一轮的所有会话共享同一时间快照派生的 nonce
	msg := Decode(bc.data)
	if msg.Kind != KindPing {
		t.Fatalf("payload kind = %v, want ping", msg.Kind)
	}
	if want := uint32(mock.Now().Unix()); msg.Nonce != want {
		t.Errorf("nonce = %d, want %d", msg.Nonce, want)
	}

	// 两个会话都已处于未决状态：下一轮没有可挑战的会话
	h.Notify(SendPingToken)
	if len(mt.broadcasts) != 1 {
		t.Error("awaiting sessions must not be challenged again")
	}
}

func TestHandler_SendPingRoundSkipsAwaiting(t *testing.T) {
	h, mt, mock := newTestHandler(t)
	connect(t, h, 1, "pubkey-1")

	// S1 进入未决状态
	h.Notify(SendPingToken)
	if got := mt.broadcasts[0].sessions; len(got) != 1 || got[0] != 1 {
		t.Fatalf("first round sessions = %v, want [1]", got)
	}

	// S2 之后加入；下一轮只挑战 S2
	connect(t, h, 2, "pubkey-2")
	mock.Add(testInterval)
	h.Notify(SendPingToken)

	if len(mt.broadcasts) != 2 {
		t.Fatalf("broadcasts = %d, want 2", len(mt.broadcasts))
	}
	if got := mt.broadcasts[1].sessions; len(got) != 1 || got[0] != 2 {
		t.Errorf("second round sessions = %v, want [2]", got)
	}
}

func TestHandler_SendPingRoundEmpty(t *testing.T) {
	h, mt, _ := newTestHandler(t)

	// 无会话时不发送任何载荷
	h.Notify(SendPingToken)
	if len(mt.broadcasts) != 0 {
		t.Errorf("broadcasts = %d, want 0", len(mt.broadcasts))
	}
}

// ============================================================================
// 超时检查
// ============================================================================

func TestHandler_CheckTimeout(t *testing.T) {
	h, mt, mock := newTestHandler(t)
	peer := connect(t, h, 1, "pubkey-1")
	h.Notify(SendPingToken)
	nonce := lastBroadcastNonce(t, mt)

	// 未到超时：无事件
	mock.Add(testTimeout - time.Second)
	h.Notify(CheckTimeoutToken)
	if events := drainEvents(h); len(events) != 0 {
		t.Fatalf("events before timeout = %d, want 0", len(events))
	}

	// 到达超时：产生超时事件
	mock.Add(time.Second)
	h.Notify(CheckTimeoutToken)
	events := drainEvents(h)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	evt, ok := events[0].(types.EvtTimeout)
	if !ok {
		t.Fatalf("event = %T, want EvtTimeout", events[0])
	}
	if !evt.Peer.Equal(peer) {
		t.Errorf("event peer = %s, want %s", evt.Peer, peer)
	}

	// 未决状态未被清除：每个检查周期都重复产生超时事件
	mock.Add(testTimeout)
	h.Notify(CheckTimeoutToken)
	events = drainEvents(h)
	if len(events) != 1 {
		t.Fatalf("repeated timeout events = %d, want 1", len(events))
	}
	if _, ok := events[0].(types.EvtTimeout); !ok {
		t.Errorf("event = %T, want EvtTimeout", events[0])
	}

	// 后续挑战轮次跳过仍未决的会话
	h.Notify(SendPingToken)
	if len(mt.broadcasts) != 1 {
		t.Error("a stalled session must not be re-challenged")
	}

	// 迟到的匹配 Pong 仍被接受
	h.Received(1, Encode(Message{Kind: KindPong, Nonce: nonce}))
	events = drainEvents(h)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	pong, ok := events[0].(types.EvtPong)
	if !ok {
		t.Fatalf("event = %T, want EvtPong", events[0])
	}
	if pong.RTT != 2*testTimeout {
		t.Errorf("RTT = %v, want %v", pong.RTT, 2*testTimeout)
	}
}

func TestHandler_CheckTimeoutIdleSessions(t *testing.T) {
	h, _, mock := newTestHandler(t)
	connect(t, h, 1, "pubkey-1")

	// 空闲会话永远不会超时
	mock.Add(10 * testTimeout)
	h.Notify(CheckTimeoutToken)
	if events := drainEvents(h); len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
}

// ============================================================================
// 通知令牌
// ============================================================================

func TestHandler_NotifyUnknownToken(t *testing.T) {
	h, _, _ := newTestHandler(t)

	defer func() {
		if recover() == nil {
			t.Error("Notify() with an unknown token must panic")
		}
	}()
	h.Notify(42)
}
