// Package ping 实现会话级存活检测协议引擎
package ping

import (
	"math"

	"github.com/multiformats/go-varint"
)

// Kind 报文变体标签
type Kind byte

const (
	// KindNone 无法解码的报文
	KindNone Kind = 0x00
	// KindPing 挑战报文
	KindPing Kind = 0x01
	// KindPong 应答报文
	KindPong Kind = 0x02
)

// String 返回变体名称
func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	default:
		return "none"
	}
}

// Message 协议载荷
//
// 线上格式: 1 字节变体标签 + 无符号 varint nonce（仅 Ping/Pong）。
// 分帧由传输层负责，编解码只处理完整载荷。
type Message struct {
	Kind  Kind
	Nonce uint32
}

// Encode 编码协议载荷
func Encode(m Message) []byte {
	switch m.Kind {
	case KindPing, KindPong:
		buf := make([]byte, 1, 1+varint.UvarintSize(uint64(m.Nonce)))
		buf[0] = byte(m.Kind)
		return append(buf, varint.ToUvarint(uint64(m.Nonce))...)
	default:
		return []byte{byte(KindNone)}
	}
}

// Decode 解码协议载荷
//
// 全函数：任何无法解释的输入（空缓冲、未知标签、截断或冗余字节、
// 超出 32 位的 nonce）都返回 KindNone，绝不失败。
func Decode(data []byte) Message {
	if len(data) == 0 {
		return Message{Kind: KindNone}
	}

	switch Kind(data[0]) {
	case KindPing, KindPong:
		nonce, n, err := varint.FromUvarint(data[1:])
		if err != nil || n != len(data)-1 || nonce > math.MaxUint32 {
			return Message{Kind: KindNone}
		}
		return Message{Kind: Kind(data[0]), Nonce: uint32(nonce)}
	default:
		return Message{Kind: KindNone}
	}
}
