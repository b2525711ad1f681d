package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Counter 是只统计字节数、不保存数据的 Sink，用于估算编码后的大小。
type Counter struct {
	n int64
}

var _ Sink = (*Counter)(nil)

// Len 返回累计的字节数。
func (c *Counter) Len() int64 {
	return c.n
}

// Reset 将计数清零。
func (c *Counter) Reset() {
	c.n = 0
}

func (c *Counter) add(n int) error {
	c.n += int64(n)
	return nil
}

func (c *Counter) WriteBool(bool) error       { return c.add(1) }
func (c *Counter) WriteInt8(int8) error       { return c.add(1) }
func (c *Counter) WriteInt16(int16) error     { return c.add(2) }
func (c *Counter) WriteInt32(int32) error     { return c.add(4) }
func (c *Counter) WriteInt64(int64) error     { return c.add(8) }
func (c *Counter) WriteUint8(uint8) error     { return c.add(1) }
func (c *Counter) WriteUint16(uint16) error   { return c.add(2) }
func (c *Counter) WriteUint32(uint32) error   { return c.add(4) }
func (c *Counter) WriteUint64(uint64) error   { return c.add(8) }
func (c *Counter) WriteFloat32(float32) error { return c.add(4) }
func (c *Counter) WriteFloat64(float64) error { return c.add(8) }

func (c *Counter) WriteUvarint(v uint64) error {
	return c.add(protowire.SizeVarint(v))
}

func (c *Counter) WriteLen(n int) error {
	return c.WriteUvarint(uint64(n))
}

func (c *Counter) WriteString(s string) error {
	return c.add(4 + len(s))
}

func (c *Counter) WriteBytes(b []byte) error {
	return c.add(protowire.SizeVarint(uint64(len(b))) + len(b))
}

func (c *Counter) WriteRaw(b []byte) error {
	return c.add(len(b))
}
