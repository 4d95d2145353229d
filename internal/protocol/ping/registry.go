// Package ping 实现会话级存活检测协议引擎
package ping

import (
	"time"

	"github.com/dep2p/go-liveness/pkg/types"
)

// record 单个会话的存活记录
//
// 会话连接且身份可解析时存在，断开时删除；注册表独占所有记录。
type record struct {
	// processing 为 true 表示恰有一个未决挑战（不允许流水线式多个挑战）
	processing bool

	// lastPing 最近一次发出挑战的时间；仅在发出新挑战时更新，收到应答不更新
	lastPing time.Time

	peer types.PeerID
}

// nonce 返回当前未决挑战的关联令牌
//
// 由 lastPing 截断到整秒（Unix 纪元）后取低 32 位派生。
// 仅用于把 Pong 关联到 Ping，不具备安全意义。
func (r *record) nonce() uint32 {
	sec := r.lastPing.Unix()
	if sec < 0 {
		sec = 0
	}
	return uint32(sec)
}

// registry 会话注册表
//
// 键唯一、无顺序保证。访问串行化由持有方（Handler 的粗粒度锁）负责，
// 注册表本身不加锁。
type registry struct {
	records map[types.SessionID]*record
}

// newRegistry 创建会话注册表
func newRegistry() *registry {
	return &registry{
		records: make(map[types.SessionID]*record),
	}
}

// insertIfAbsent 幂等插入会话记录
//
// 会话已存在时不重置其状态，返回 false；新建记录返回 true。
func (s *registry) insertIfAbsent(id types.SessionID, peer types.PeerID, now time.Time) bool {
	if _, ok := s.records[id]; ok {
		return false
	}
	s.records[id] = &record{
		processing: false,
		lastPing:   now,
		peer:       peer,
	}
	return true
}

// remove 删除会话记录
func (s *registry) remove(id types.SessionID) {
	delete(s.records, id)
}

// get 查找会话记录
func (s *registry) get(id types.SessionID) (*record, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// len 返回已注册会话数
func (s *registry) len() int {
	return len(s.records)
}

// forEach 遍历全部记录，fn 可就地修改记录
func (s *registry) forEach(fn func(id types.SessionID, rec *record)) {
	for id, rec := range s.records {
		fn(id, rec)
	}
}
