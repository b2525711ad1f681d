package wire

import (
	"bytes"
	"io"
	"math"
	"runtime"
	"testing"
	"testing/iotest"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

type WireSuite struct {
	suite.Suite
}

func (s *WireSuite) writeAll(sink Sink) {
	s.Require().NoError(sink.WriteBool(true))
	s.Require().NoError(sink.WriteInt8(-3))
	s.Require().NoError(sink.WriteInt16(-1234))
	s.Require().NoError(sink.WriteInt32(math.MinInt32))
	s.Require().NoError(sink.WriteInt64(math.MaxInt64))
	s.Require().NoError(sink.WriteUint8(0xfe))
	s.Require().NoError(sink.WriteUint16(0xbeef))
	s.Require().NoError(sink.WriteUint32(0xdeadbeef))
	s.Require().NoError(sink.WriteUint64(math.MaxUint64))
	s.Require().NoError(sink.WriteFloat32(3.5))
	s.Require().NoError(sink.WriteFloat64(-2.25))
	s.Require().NoError(sink.WriteUvarint(300))
	s.Require().NoError(sink.WriteLen(7))
	s.Require().NoError(sink.WriteString("héllo"))
	s.Require().NoError(sink.WriteBytes([]byte{1, 2, 3}))
	s.Require().NoError(sink.WriteRaw([]byte{9, 9}))
}

func (s *WireSuite) readAll(src Source) {
	b, err := src.ReadBool()
	s.Require().NoError(err)
	s.True(b)
	i8, err := src.ReadInt8()
	s.Require().NoError(err)
	s.Equal(int8(-3), i8)
	i16, err := src.ReadInt16()
	s.Require().NoError(err)
	s.Equal(int16(-1234), i16)
	i32, err := src.ReadInt32()
	s.Require().NoError(err)
	s.Equal(int32(math.MinInt32), i32)
	i64, err := src.ReadInt64()
	s.Require().NoError(err)
	s.Equal(int64(math.MaxInt64), i64)
	u8, err := src.ReadUint8()
	s.Require().NoError(err)
	s.Equal(uint8(0xfe), u8)
	u16, err := src.ReadUint16()
	s.Require().NoError(err)
	s.Equal(uint16(0xbeef), u16)
	u32, err := src.ReadUint32()
	s.Require().NoError(err)
	s.Equal(uint32(0xdeadbeef), u32)
	u64, err := src.ReadUint64()
	s.Require().NoError(err)
	s.Equal(uint64(math.MaxUint64), u64)
	f32, err := src.ReadFloat32()
	s.Require().NoError(err)
	s.Equal(float32(3.5), f32)
	f64, err := src.ReadFloat64()
	s.Require().NoError(err)
	s.Equal(-2.25, f64)
	uv, err := src.ReadUvarint()
	s.Require().NoError(err)
	s.Equal(uint64(300), uv)
	n, err := src.ReadLen()
	s.Require().NoError(err)
	s.Equal(7, n)
	str, err := src.ReadString()
	s.Require().NoError(err)
	s.Equal("héllo", str)
	bs, err := src.ReadBytes()
	s.Require().NoError(err)
	s.Equal([]byte{1, 2, 3}, bs)
	raw := make([]byte, 2)
	s.Require().NoError(src.ReadRaw(raw))
	s.Equal([]byte{9, 9}, raw)
}

func (s *WireSuite) TestRoundTrip() {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	s.writeAll(w)
	s.Equal(int64(buf.Len()), w.Len())

	r := NewReader(bytes.NewReader(buf.Bytes()))
	s.readAll(r)
	s.Equal(w.Len(), r.Offset())
}

func (s *WireSuite) TestRoundTripWithoutByteReader() {
	var buf bytes.Buffer
	s.writeAll(NewWriter(&buf))

	r := NewReader(iotest.OneByteReader(bytes.NewReader(buf.Bytes())))
	s.readAll(r)
}

func (s *WireSuite) TestCounterMatchesWriter() {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	s.writeAll(w)

	c := &Counter{}
	s.writeAll(c)
	s.Equal(w.Len(), c.Len())

	c.Reset()
	s.Equal(int64(0), c.Len())
}

func (s *WireSuite) TestLayout() {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	s.Require().NoError(w.WriteInt32(3))
	s.Require().NoError(w.WriteString("abc"))
	s.Require().NoError(w.WriteUvarint(300))
	s.Equal([]byte{
		0, 0, 0, 3,
		0, 0, 0, 3, 'a', 'b', 'c',
		0xac, 0x02,
	}, buf.Bytes())
}

func (s *WireSuite) TestInvalidBool() {
	r := NewReader(bytes.NewReader([]byte{2}))
	_, err := r.ReadBool()
	s.ErrorIs(err, merr.ErrSchemaMismatch)
}

func (s *WireSuite) TestUnexpectedEOF() {
	r := NewReader(bytes.NewReader([]byte{0, 1}))
	_, err := r.ReadInt32()
	s.ErrorIs(err, merr.ErrSchemaMismatch)
	s.ErrorIs(err, io.ErrUnexpectedEOF)

	r = NewReader(bytes.NewReader(nil))
	_, err = r.ReadUint8()
	s.ErrorIs(err, merr.ErrSchemaMismatch)

	r = NewReader(bytes.NewReader([]byte{0, 0, 0, 5, 'a'}))
	_, err = r.ReadString()
	s.ErrorIs(err, merr.ErrSchemaMismatch)
}

func (s *WireSuite) TestVarintOverflow() {
	data := bytes.Repeat([]byte{0xff}, 11)
	r := NewReader(bytes.NewReader(data))
	_, err := r.ReadUvarint()
	s.ErrorIs(err, merr.ErrSchemaMismatch)
}

func (s *WireSuite) TestMaxLength() {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	s.Require().NoError(w.WriteLen(1000))
	s.Require().NoError(w.WriteString("0123456789"))

	r := NewReader(bytes.NewReader(buf.Bytes()), WithMaxLength(8))
	_, err := r.ReadLen()
	s.ErrorIs(err, merr.ErrSchemaMismatch)
	_, err = r.ReadString()
	s.ErrorIs(err, merr.ErrSchemaMismatch)
}

func allocatedDuring(fn func()) uint64 {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func (s *WireSuite) TestDeclaredLengthBeyondInput() {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	s.Require().NoError(w.WriteUint32(60 << 20))
	s.Require().NoError(w.WriteLen(60 << 20))
	data := append(buf.Bytes(), "tail"...)

	allocated := allocatedDuring(func() {
		r := NewReader(bytes.NewReader(data[:4]))
		_, err := r.ReadString()
		s.ErrorIs(err, io.ErrUnexpectedEOF)

		r = NewReader(bytes.NewReader(data[4:]))
		_, err = r.ReadBytes()
		s.ErrorIs(err, merr.ErrSchemaMismatch)
		s.ErrorIs(err, io.ErrUnexpectedEOF)
	})
	s.Less(allocated, uint64(8<<20))

	// 跨多个块的数据仍能完整读出
	big := bytes.Repeat([]byte("0123456789abcdef"), 3*blobChunk/16+5)
	buf.Reset()
	s.Require().NoError(w.WriteBytes(big))
	got, err := NewReader(bytes.NewReader(buf.Bytes())).ReadBytes()
	s.Require().NoError(err)
	s.Equal(big, got)
}

func (s *WireSuite) TestNegativeLength() {
	w := NewWriter(io.Discard)
	s.ErrorIs(w.WriteLen(-1), merr.ErrParameterInvalid)
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func (s *WireSuite) TestStreamErrors() {
	cause := errors.New("disk on fire")

	w := NewWriter(failingWriter{err: cause})
	err := w.WriteInt64(1)
	s.ErrorIs(err, merr.ErrStream)
	s.ErrorIs(err, cause)

	r := NewReader(failingReader{err: cause})
	_, err = r.ReadInt64()
	s.ErrorIs(err, merr.ErrStream)
	s.ErrorIs(err, cause)
	s.NotErrorIs(err, merr.ErrSchemaMismatch)
}

func TestWire(t *testing.T) {
	suite.Run(t, new(WireSuite))
}
