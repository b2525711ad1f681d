// Package bytebuffer 封装 valyala/bytebufferpool，提供进程内共享的字节缓冲区池。
package bytebuffer

import (
	"github.com/valyala/bytebufferpool"
)

// ByteBuffer 是 bytebufferpool.ByteBuffer 的别名，实现了 io.Writer 与 io.StringWriter。
type ByteBuffer = bytebufferpool.ByteBuffer

// Get 从默认池中获取一个空缓冲区。
func Get() *ByteBuffer { return bytebufferpool.Get() }

// Put 将缓冲区归还到默认池中。归还后不允许再访问 b。
func Put(b *ByteBuffer) {
	if b != nil {
		bytebufferpool.Put(b)
	}
}

// Clone 返回 b 当前内容的独立副本，可在 Put 之后继续使用。
func Clone(b *ByteBuffer) []byte {
	if b == nil || len(b.B) == 0 {
		return []byte{}
	}
	out := make([]byte, len(b.B))
	copy(out, b.B)
	return out
}
