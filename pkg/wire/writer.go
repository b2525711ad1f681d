package wire

import (
	"encoding/binary"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

var be = binary.BigEndian

// Writer 将编码结果写入 io.Writer。
//
// Writer 本身不做缓冲；需要时由调用方传入 bufio.Writer 或 bytes.Buffer。
// Writer 不是并发安全的。
type Writer struct {
	w       io.Writer
	n       int64
	scratch [binary.MaxVarintLen64]byte
}

// 编译期断言：确保 Writer 实现了 Sink 接口。
var _ Sink = (*Writer)(nil)

// NewWriter 创建一个写入 w 的 Writer。
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Len 返回已写入的字节数。
func (w *Writer) Len() int64 {
	return w.n
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		return merr.WrapErrStream(err, "write")
	}
	return nil
}

func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteUint8(1)
	}
	return w.WriteUint8(0)
}

func (w *Writer) WriteUint8(v uint8) error {
	w.scratch[0] = v
	return w.write(w.scratch[:1])
}

func (w *Writer) WriteUint16(v uint16) error {
	be.PutUint16(w.scratch[:2], v)
	return w.write(w.scratch[:2])
}

func (w *Writer) WriteUint32(v uint32) error {
	be.PutUint32(w.scratch[:4], v)
	return w.write(w.scratch[:4])
}

func (w *Writer) WriteUint64(v uint64) error {
	be.PutUint64(w.scratch[:8], v)
	return w.write(w.scratch[:8])
}

func (w *Writer) WriteInt8(v int8) error   { return w.WriteUint8(uint8(v)) }
func (w *Writer) WriteInt16(v int16) error { return w.WriteUint16(uint16(v)) }
func (w *Writer) WriteInt32(v int32) error { return w.WriteUint32(uint32(v)) }
func (w *Writer) WriteInt64(v int64) error { return w.WriteUint64(uint64(v)) }

func (w *Writer) WriteFloat32(v float32) error { return w.WriteUint32(math.Float32bits(v)) }
func (w *Writer) WriteFloat64(v float64) error { return w.WriteUint64(math.Float64bits(v)) }

func (w *Writer) WriteUvarint(v uint64) error {
	return w.write(protowire.AppendVarint(w.scratch[:0], v))
}

func (w *Writer) WriteLen(n int) error {
	if n < 0 {
		return merr.WrapErrParameterInvalidMsg("negative length %d", n)
	}
	return w.WriteUvarint(uint64(n))
}

func (w *Writer) WriteString(s string) error {
	if uint64(len(s)) > 1<<32-1 {
		return merr.WrapErrParameterTooLarge("string")
	}
	if err := w.WriteUint32(uint32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	if sw, ok := w.w.(io.StringWriter); ok {
		n, err := sw.WriteString(s)
		w.n += int64(n)
		if err != nil {
			return merr.WrapErrStream(err, "write")
		}
		return nil
	}
	return w.write([]byte(s))
}

func (w *Writer) WriteBytes(b []byte) error {
	if err := w.WriteLen(len(b)); err != nil {
		return err
	}
	return w.WriteRaw(b)
}

func (w *Writer) WriteRaw(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return w.write(b)
}
