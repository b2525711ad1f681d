// Package codec 将编码后的对象封装为自描述的帧，供流式传输或落盘使用。
//
// 帧格式：
//
//	[4 字节大端长度 N][major][minor][flags][algorithm][负载，N-4 字节]
//
// 写出时：对象 --> serializer --> [压缩?] --> [加密?] --> 帧。
// 读入时按相反顺序处理。加密时 4 字节帧头作为关联数据参与签名，篡改帧头同样会被发现。
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/externalizor-go/internal/compressor"
	"github.com/lk2023060901/externalizor-go/internal/crypto"
	"github.com/lk2023060901/externalizor-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/externalizor-go/internal/serializer"
	"github.com/lk2023060901/externalizor-go/pkg/log"
	"github.com/lk2023060901/externalizor-go/pkg/metrics"
	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
	"github.com/lk2023060901/externalizor-go/pkg/util/typeutil"
)

// Codec 负责帧的写出与读入，可被多个 goroutine 并发使用。
type Codec struct {
	log.Binder

	cfg        Config
	serializer serializer.Serializer
	compressor compressor.Compressor
	encryptor  crypto.Encryptor

	// decompressors 按帧头中的算法缓存解压器，读入时不要求与本端压缩算法一致。
	decompressors *typeutil.ConcurrentMap[compressor.Algorithm, compressor.Compressor]
}

// New 创建一个 Codec。未指定 serializer 时使用默认 Registry 的位置编码。
func New(opts ...Option) (*Codec, error) {
	c := &Codec{
		cfg:           DefaultConfig(),
		decompressors: typeutil.NewConcurrentMap[compressor.Algorithm, compressor.Compressor](),
	}
	c.SetLogger(log.With(log.FieldComponent("codec")).WithRateGroup("codec", 1, 60))
	for _, opt := range opts {
		opt(c)
	}
	c.cfg.normalize()

	if c.serializer == nil {
		c.serializer = serializer.NewExternSerializer(nil)
	}
	if c.compressor == nil {
		alg, err := compressor.ParseAlgorithm(c.cfg.Compression)
		if err != nil {
			return nil, err
		}
		comp, err := compressor.New(alg, compressor.WithMaxDecodedSize(uint64(c.cfg.MaxFrameSize)))
		if err != nil {
			return nil, errors.Wrapf(err, "create %s compressor", alg)
		}
		c.compressor = comp
	}
	c.decompressors.Insert(c.compressor.Algorithm(), c.compressor)
	return c, nil
}

// Config 返回 Codec 的运行参数。
func (c *Codec) Config() Config {
	return c.cfg
}

// Encode 序列化 v 并写出一帧。
func (c *Codec) Encode(w io.Writer, v any) error {
	frame, err := c.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(w, frame)
}

// EncodeRaw 将已序列化的 payload 写出为一帧。
func (c *Codec) EncodeRaw(w io.Writer, payload []byte) error {
	frame, err := c.frame(payload)
	if err != nil {
		return c.fail(metrics.EncodeLabel, err)
	}
	return c.write(w, frame)
}

// Marshal 序列化 v 并返回完整的帧（含长度前缀）。
func (c *Codec) Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, merr.WrapErrParameterMissing("value")
	}
	payload, err := c.serializer.Marshal(v)
	if err != nil {
		return nil, c.fail(metrics.EncodeLabel, errors.Wrapf(err, "%s marshal", c.serializer.Name()))
	}
	frame, err := c.frame(payload)
	if err != nil {
		return nil, c.fail(metrics.EncodeLabel, err)
	}
	return frame, nil
}

// Decode 读取一帧并反序列化到 v。v 为 nil 时只校验并返回帧头。
//
// 流在帧边界处结束时返回 io.EOF，帧中途结束返回 ErrFrameInvalid。
func (c *Codec) Decode(r io.Reader, v any) (Header, error) {
	h, payload, err := c.DecodeRaw(r)
	if err != nil {
		return h, err
	}
	return h, c.unmarshalPayload(payload, v)
}

// DecodeRaw 读取一帧，返回帧头以及解密、解压后的负载。
func (c *Codec) DecodeRaw(r io.Reader) (Header, []byte, error) {
	var prefix [lengthSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return Header{}, nil, io.EOF
		}
		return Header{}, nil, c.fail(metrics.DecodeLabel, readErr(err, "read frame length"))
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if err := c.checkSize(size); err != nil {
		return Header{}, nil, c.fail(metrics.DecodeLabel, err)
	}

	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	buf.B = slices.Grow(buf.B[:0], int(size))[:size]
	if _, err := io.ReadFull(r, buf.B); err != nil {
		return Header{}, nil, c.fail(metrics.DecodeLabel, readErr(err, "read frame body"))
	}

	h, payload, err := c.open(buf.B)
	if err != nil {
		return h, nil, c.fail(metrics.DecodeLabel, err)
	}
	// 未经解密/解压的负载仍指向池化缓冲区，归还前需要复制。
	if len(payload) > 0 && len(buf.B) > headerSize && &payload[0] == &buf.B[headerSize] {
		payload = bytes.Clone(payload)
	}
	return h, payload, nil
}

// Unmarshal 解析 Marshal 生成的完整帧并反序列化到 v。data 必须恰好包含一帧。
func (c *Codec) Unmarshal(data []byte, v any) (Header, error) {
	if len(data) < lengthSize {
		return Header{}, c.fail(metrics.DecodeLabel, merr.WrapErrFrameInvalid("missing length prefix"))
	}
	size := binary.BigEndian.Uint32(data)
	if err := c.checkSize(size); err != nil {
		return Header{}, c.fail(metrics.DecodeLabel, err)
	}
	if uint64(len(data)-lengthSize) != uint64(size) {
		return Header{}, c.fail(metrics.DecodeLabel,
			merr.WrapErrFrameInvalid(fmt.Sprintf("frame declares %d bytes, got %d", size, len(data)-lengthSize)))
	}
	h, payload, err := c.open(data[lengthSize:])
	if err != nil {
		return h, c.fail(metrics.DecodeLabel, err)
	}
	return h, c.unmarshalPayload(payload, v)
}

// Close 释放压缩器持有的资源。
func (c *Codec) Close() {
	c.decompressors.Range(func(_ compressor.Algorithm, comp compressor.Compressor) bool {
		if closer, ok := comp.(interface{ Close() }); ok {
			closer.Close()
		}
		return true
	})
}

func (c *Codec) unmarshalPayload(payload []byte, v any) error {
	if v == nil {
		return nil
	}
	if err := c.serializer.Unmarshal(payload, v); err != nil {
		return c.fail(metrics.DecodeLabel, errors.Wrapf(err, "%s unmarshal", c.serializer.Name()))
	}
	return nil
}

func (c *Codec) frame(payload []byte) ([]byte, error) {
	h := newHeader()

	if c.compressor.Algorithm() != compressor.AlgorithmNone && len(payload) >= c.cfg.CompressThreshold {
		buf := bytebuffer.Get()
		defer bytebuffer.Put(buf)
		packed, err := c.compressor.Compress(buf.B[:0], payload)
		if err != nil {
			return nil, errors.Wrapf(err, "%s compress", c.compressor.Algorithm())
		}
		// 压缩无收益时原样写出。
		if len(packed) < len(payload) {
			payload = packed
			h.Flags |= FlagCompressed
			h.Algorithm = c.compressor.Algorithm()
		}
	}

	if c.encryptor != nil {
		h.Flags |= FlagEncrypted
		aad := h.bytes()
		sealed, err := c.encryptor.Encrypt(payload, aad[:])
		if err != nil {
			return nil, errors.Wrap(err, "encrypt payload")
		}
		payload = sealed
	}

	size := headerSize + len(payload)
	if uint64(size) > uint64(c.cfg.MaxFrameSize) {
		return nil, merr.WrapErrFrameTooLarge(uint32(min(uint64(size), math.MaxUint32)), c.cfg.MaxFrameSize)
	}
	frame := make([]byte, lengthSize+size)
	binary.BigEndian.PutUint32(frame, uint32(size))
	hb := h.bytes()
	copy(frame[lengthSize:], hb[:])
	copy(frame[lengthSize+headerSize:], payload)

	metrics.CodecFrameSize.WithLabelValues(metrics.EncodeLabel, h.Algorithm.String()).Observe(float64(size))
	return frame, nil
}

// open 解析帧头并还原负载，body 不含长度前缀。
func (c *Codec) open(body []byte) (Header, []byte, error) {
	h, err := parseHeader(body)
	if err != nil {
		return h, nil, err
	}
	metrics.CodecFrameSize.WithLabelValues(metrics.DecodeLabel, h.Algorithm.String()).Observe(float64(len(body)))
	payload := body[headerSize:]

	switch {
	case h.Flags.Has(FlagEncrypted):
		if c.encryptor == nil {
			return h, nil, merr.WrapErrFrameInvalid("encrypted frame but no encryptor configured")
		}
		aad := h.bytes()
		plain, err := c.encryptor.Decrypt(payload, aad[:])
		if err != nil {
			return h, nil, merr.Combine(merr.WrapErrFrameInvalid("decrypt payload"), err)
		}
		payload = plain
	case c.encryptor != nil:
		return h, nil, merr.WrapErrFrameInvalid("plaintext frame but encryption is required")
	}

	if h.Flags.Has(FlagCompressed) {
		dec, err := c.decompressor(h.Algorithm)
		if err != nil {
			return h, nil, err
		}
		plain, err := dec.Decompress(nil, payload)
		if errors.Is(err, compressor.ErrDecodedTooLarge) {
			return h, nil, merr.Combine(merr.WrapErrDecodedTooLarge(c.cfg.MaxFrameSize), err)
		}
		if err != nil {
			return h, nil, merr.Combine(merr.WrapErrFrameInvalid(h.Algorithm.String()+" decompress"), err)
		}
		if uint64(len(plain)) > uint64(c.cfg.MaxFrameSize) {
			return h, nil, merr.WrapErrFrameTooLarge(uint32(min(uint64(len(plain)), math.MaxUint32)), c.cfg.MaxFrameSize)
		}
		payload = plain
	}
	return h, payload, nil
}

func (c *Codec) decompressor(alg compressor.Algorithm) (compressor.Compressor, error) {
	if comp, ok := c.decompressors.Get(alg); ok {
		return comp, nil
	}
	comp, err := compressor.New(alg, compressor.WithMaxDecodedSize(uint64(c.cfg.MaxFrameSize)))
	if err != nil {
		return nil, merr.Combine(merr.WrapErrFrameInvalid("unknown compression algorithm "+alg.String()), err)
	}
	actual, loaded := c.decompressors.GetOrInsert(alg, comp)
	if loaded {
		if closer, ok := comp.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	return actual, nil
}

func (c *Codec) checkSize(size uint32) error {
	if size > c.cfg.MaxFrameSize {
		return merr.WrapErrFrameTooLarge(size, c.cfg.MaxFrameSize)
	}
	if size < headerSize {
		return merr.WrapErrFrameInvalid(fmt.Sprintf("frame of %d bytes is shorter than header", size))
	}
	return nil
}

func (c *Codec) write(w io.Writer, frame []byte) error {
	if _, err := w.Write(frame); err != nil {
		return c.fail(metrics.EncodeLabel, merr.WrapErrStream(err, "write frame"))
	}
	return nil
}

func (c *Codec) fail(op string, err error) error {
	metrics.CodecFrameErrors.WithLabelValues(op).Inc()
	c.Logger().RatedWarn(1, "frame "+op+" failed", zap.Error(err))
	return err
}

func readErr(err error, op string) error {
	if errors.IsAny(err, io.EOF, io.ErrUnexpectedEOF) {
		return merr.Combine(io.ErrUnexpectedEOF, merr.WrapErrFrameInvalid("truncated frame", op))
	}
	return merr.WrapErrStream(err, op)
}
