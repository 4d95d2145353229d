// Package interfaces 定义 go-liveness 的公共接口
//
// 本包描述引擎与宿主传输层之间的能力边界：
//
//   - transport.go - Transport（引擎调用传输层的出站能力）与
//     SessionProtocol（传输层驱动引擎的生命周期回调）
//
// 连接建立、安全握手、多路复用和节点发现均由宿主传输层提供，
// 本模块只通过这里定义的接口与其交互。
package interfaces
