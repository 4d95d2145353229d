// Package ping 实现会话级存活检测协议引擎
package ping

import "errors"

// 定义错误
var (
	// ErrNilTransport Transport为nil
	ErrNilTransport = errors.New("transport is nil")

	// ErrAlreadyRegistered 引擎已注册到传输层
	ErrAlreadyRegistered = errors.New("liveness handler already registered")

	// ErrClosed 引擎已关闭
	ErrClosed = errors.New("liveness handler closed")
)
