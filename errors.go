package liveness

import (
	"errors"

	"github.com/dep2p/go-liveness/internal/protocol/ping"
)

// 定义错误
var (
	// ErrNilTransport Transport为nil
	ErrNilTransport = ping.ErrNilTransport

	// ErrAlreadyRegistered 引擎已注册到传输层
	ErrAlreadyRegistered = ping.ErrAlreadyRegistered

	// ErrClosed 引擎已关闭
	ErrClosed = ping.ErrClosed

	// ErrInvalidProtocolID 协议ID为空
	ErrInvalidProtocolID = errors.New("protocol id is empty")

	// ErrInvalidPingInterval 挑战间隔非法
	ErrInvalidPingInterval = errors.New("ping interval must be positive")

	// ErrInvalidPongTimeout 应答超时非法
	ErrInvalidPongTimeout = errors.New("pong timeout must be positive")

	// ErrInvalidEventBuffer 事件缓冲容量非法
	ErrInvalidEventBuffer = errors.New("event buffer must be positive")
)
