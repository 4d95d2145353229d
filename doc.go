// Package liveness 提供会话级存活检测协议引擎
//
// 引擎周期性地向每个已连接会话发出 ping 挑战，期待在限定时间内收到
// nonce 匹配的 pong，并把连接健康事件（存活、超时、异常）发布给应用层。
//
// 连接建立、安全握手、多路复用和分帧都由宿主传输层提供，
// 引擎只通过 pkg/interfaces 定义的边界与其交互。
//
// 使用示例：
//
//	lv, err := liveness.New(
//	    liveness.WithPingInterval(15*time.Second),
//	    liveness.WithPongTimeout(30*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lv.Close()
//
//	// 注册到宿主传输层（传输层此后驱动协议回调）
//	if err := lv.Register(transport); err != nil {
//	    log.Fatal(err)
//	}
//
//	// 消费存活检测事件
//	for ev := range lv.Events() {
//	    switch e := ev.(type) {
//	    case types.EvtPong:
//	        fmt.Printf("peer %s alive, rtt=%v\n", e.Peer.ShortString(), e.RTT)
//	    case types.EvtTimeout:
//	        fmt.Printf("peer %s timed out\n", e.Peer.ShortString())
//	    }
//	}
package liveness
