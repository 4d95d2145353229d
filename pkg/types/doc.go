// Package types 定义 go-liveness 的基础类型
//
// 这是整个模块的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据：
//
//   - SessionID: 传输层分配的会话标识
//   - PeerID: 由握手公钥派生的节点标识
//   - ProtocolID: 协议标识
//   - Event: 存活检测事件联合类型
package types
