package interfaces

import (
	"time"

	"github.com/dep2p/go-liveness/pkg/types"
)

// ============================================================================
//                              Session - 会话描述
// ============================================================================

// Session 传输层交给协议回调的会话描述
type Session struct {
	// ID 传输层分配的会话标识
	ID types.SessionID

	// RemoteAddr 对端地址（仅用于日志）
	RemoteAddr string

	// RemotePublicKey 安全握手取得的对端公钥
	//
	// 为空表示握手未产生可解析身份，此类会话无法参与协议。
	RemotePublicKey []byte
}

// ============================================================================
//                              Transport - 传输层能力
// ============================================================================

// Transport 引擎可调用的传输层出站能力
//
// 所有方法都由引擎在回调内同步调用，实现必须有界返回、不得阻塞。
type Transport interface {
	// Send 向指定会话发送一帧报文
	//
	// 传输层负责长度分帧，data 是完整的协议载荷。
	Send(session types.SessionID, data []byte) error

	// Broadcast 向一组会话发送同一帧报文
	Broadcast(sessions []types.SessionID, data []byte) error

	// Disconnect 强制断开指定会话
	Disconnect(session types.SessionID) error

	// SetNotify 注册周期性通知
	//
	// 传输层按 interval 周期回调 SessionProtocol.Notify(token)。
	// 引擎在 Init 时注册两个通知，之后不再变更。
	SetNotify(interval time.Duration, token uint64) error
}

// ============================================================================
//                              SessionProtocol - 协议回调
// ============================================================================

// SessionProtocol 由协议引擎实现、由传输层驱动的生命周期回调
//
// 传输层保证同一实例的所有回调严格串行调用；
// 无法保证时，实现方以单把粗粒度锁自行保护。
type SessionProtocol interface {
	// ID 返回协议注册标识
	ID() types.ProtocolID

	// Init 协议注册时调用一次，引擎在此保存 Transport 并注册周期通知
	Init(t Transport) error

	// Connected 会话建立
	Connected(session Session)

	// Disconnected 会话断开
	Disconnected(session types.SessionID)

	// Received 收到一帧完整报文
	Received(session types.SessionID, data []byte)

	// Notify 周期性通知触发
	Notify(token uint64)
}
