package wire

import (
	"encoding/binary"
	"io"
	"math"
	"slices"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

// blobChunk 是 readBlob 单次读取与预分配的上限。
const blobChunk = 64 << 10

// Reader 从 io.Reader 中读取 Writer 写出的数据。
//
// 字段中途遇到 EOF 视为数据损坏（ErrSchemaMismatch），其余 I/O 错误标记为 ErrStream 原样返回。
// Reader 不是并发安全的。
type Reader struct {
	r         io.Reader
	br        io.ByteReader
	offset    int64
	maxLength int
	scratch   [binary.MaxVarintLen64]byte
}

// 编译期断言：确保 Reader 实现了 Source 接口。
var _ Source = (*Reader)(nil)

// ReaderOption 用于配置 Reader。
type ReaderOption func(r *Reader)

// WithMaxLength 设置单个长度/元素个数允许的最大值，n <= 0 时使用 DefaultMaxLength。
func WithMaxLength(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxLength = n
		}
	}
}

// NewReader 创建一个从 r 读取的 Reader。
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{r: r, maxLength: DefaultMaxLength}
	if br, ok := r.(io.ByteReader); ok {
		rd.br = br
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Offset 返回已读取的字节数。
func (r *Reader) Offset() int64 {
	return r.offset
}

func (r *Reader) fail(err error, op string) error {
	if errors.IsAny(err, io.EOF, io.ErrUnexpectedEOF) {
		return merr.WrapErrUnexpectedEOF(op)
	}
	return merr.WrapErrStream(err, op)
}

func (r *Reader) readFull(p []byte, op string) error {
	n, err := io.ReadFull(r.r, p)
	r.offset += int64(n)
	if err != nil {
		return r.fail(err, op)
	}
	return nil
}

func (r *Reader) readByte(op string) (byte, error) {
	if r.br != nil {
		b, err := r.br.ReadByte()
		if err != nil {
			return 0, r.fail(err, op)
		}
		r.offset++
		return b, nil
	}
	if err := r.readFull(r.scratch[:1], op); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.readByte("read bool")
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, merr.WrapErrSchemaMismatch("bool", "invalid boolean byte")
	}
}

func (r *Reader) ReadUint8() (uint8, error) {
	return r.readByte("read uint8")
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.readFull(r.scratch[:2], "read uint16"); err != nil {
		return 0, err
	}
	return be.Uint16(r.scratch[:2]), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.readFull(r.scratch[:4], "read uint32"); err != nil {
		return 0, err
	}
	return be.Uint32(r.scratch[:4]), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.readFull(r.scratch[:8], "read uint64"); err != nil {
		return 0, err
	}
	return be.Uint64(r.scratch[:8]), nil
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadUvarint 逐字节读取一个 varint，再交给 protowire 解析与校验。
func (r *Reader) ReadUvarint() (uint64, error) {
	var raw [binary.MaxVarintLen64]byte
	buf := raw[:0]
	for i := 0; i < binary.MaxVarintLen64; i++ {
		b, err := r.readByte("read uvarint")
		if err != nil {
			return 0, err
		}
		buf = append(buf, b)
		if b < 0x80 {
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return 0, merr.WrapErrSchemaMismatch("uvarint", protowire.ParseError(n).Error())
			}
			return v, nil
		}
	}
	return 0, merr.WrapErrSchemaMismatch("uvarint", "varint overflows 64 bits")
}

func (r *Reader) ReadLen() (int, error) {
	v, err := r.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if v > uint64(r.maxLength) {
		return 0, merr.WrapErrLengthTooLarge("length", v, uint64(r.maxLength))
	}
	return int(v), nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.maxLength) {
		return "", merr.WrapErrLengthTooLarge("string", uint64(n), uint64(r.maxLength))
	}
	if n == 0 {
		return "", nil
	}
	buf, err := r.readBlob(int(n), "read string")
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	return r.readBlob(n, "read bytes")
}

// readBlob 读取 n 个字节。n 来自输入，超过 blobChunk 时按块读取并增长缓冲区，
// 损坏的长度只会在数据真正到达时才占用内存。
func (r *Reader) readBlob(n int, op string) ([]byte, error) {
	if n <= blobChunk {
		buf := make([]byte, n)
		if err := r.readFull(buf, op); err != nil {
			return nil, err
		}
		return buf, nil
	}
	buf := make([]byte, 0, blobChunk)
	for len(buf) < n {
		chunk := min(n-len(buf), blobChunk)
		buf = slices.Grow(buf, chunk)
		if err := r.readFull(buf[len(buf):len(buf)+chunk], op); err != nil {
			return nil, err
		}
		buf = buf[:len(buf)+chunk]
	}
	return buf, nil
}

func (r *Reader) ReadRaw(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return r.readFull(p, "read raw")
}
