// Package ping 实现会话级存活检测协议引擎
package ping

import (
	"github.com/dep2p/go-liveness/pkg/types"
)

const (
	// DefaultProtocolID 默认协议注册标识
	DefaultProtocolID types.ProtocolID = "/dep2p/liveness/ping/1.0.0"

	// SendPingToken 发起 ping 轮次的周期通知令牌
	SendPingToken uint64 = 0

	// CheckTimeoutToken 检查应答超时的周期通知令牌
	CheckTimeoutToken uint64 = 1
)
