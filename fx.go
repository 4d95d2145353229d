package liveness

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-liveness/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Module 返回 Fx 模块
//
// 提供 *Liveness 实例；宿主容器中存在 interfaces.Transport 时，
// 在启动阶段自动完成注册，停止阶段关闭引擎。
func Module(opts ...Option) fx.Option {
	return fx.Module("liveness",
		fx.Provide(func() (*Liveness, error) {
			return New(opts...)
		}),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC       fx.Lifecycle
	Liveness *Liveness
	Transport interfaces.Transport `optional:"true"`
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if input.Transport == nil {
				// 宿主稍后自行调用 Register
				return nil
			}
			return input.Liveness.Register(input.Transport)
		},
		OnStop: func(_ context.Context) error {
			return input.Liveness.Close()
		},
	})
}

// QuietFxLogger 返回静默的 Fx 日志配置
//
// 避免 Fx 自身的装配日志干扰用户日志输出。
func QuietFxLogger() fx.Option {
	return fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	})
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "liveness"
	// Description 模块描述
	Description = "会话级存活检测协议引擎，提供 ping/pong 挑战与超时检测"
)
