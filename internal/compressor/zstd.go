package compressor

import (
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/externalizor-go/pkg/util/hardware"
)

// ZstdCompressor 使用 klauspost/compress 的 zstd 实现。
// 只调用 EncodeAll/DecodeAll，可被多个 goroutine 共享；用完后需要 Close。
type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Compressor = (*ZstdCompressor)(nil)

type zstdOptions struct {
	level       zstd.EncoderLevel
	concurrency int
	maxDecoded  uint64
}

// ZstdOption 配置 ZstdCompressor。
type ZstdOption func(o *zstdOptions)

// WithZstdLevel 设置压缩级别，默认 zstd.SpeedDefault。
func WithZstdLevel(level zstd.EncoderLevel) ZstdOption {
	return func(o *zstdOptions) {
		o.level = level
	}
}

// WithZstdConcurrency 设置 encoder/decoder 的并发度，n <= 0 时使用 CPU 核数。
func WithZstdConcurrency(n int) ZstdOption {
	return func(o *zstdOptions) {
		o.concurrency = n
	}
}

// WithZstdMaxDecodedSize 限制 DecodeAll 的输出字节数，0 表示使用 zstd 默认上限。
func WithZstdMaxDecodedSize(n uint64) ZstdOption {
	return func(o *zstdOptions) {
		o.maxDecoded = n
	}
}

func NewZstdCompressor(opts ...ZstdOption) (*ZstdCompressor, error) {
	o := zstdOptions{level: zstd.SpeedDefault}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency <= 0 {
		o.concurrency = hardware.GetCPUNum()
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(o.level),
		zstd.WithEncoderConcurrency(o.concurrency),
		// 空负载也输出完整的 zstd 帧，解压端无需特殊处理。
		zstd.WithZeroFrames(true))
	if err != nil {
		return nil, err
	}
	decOpts := []zstd.DOption{zstd.WithDecoderConcurrency(o.concurrency)}
	if o.maxDecoded > 0 {
		decOpts = append(decOpts, zstd.WithDecoderMaxMemory(o.maxDecoded))
	}
	dec, err := zstd.NewReader(nil, decOpts...)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &ZstdCompressor{enc: enc, dec: dec}, nil
}

func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0]), nil
}

func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	plain, err := c.dec.DecodeAll(src, dst[:0])
	if errors.IsAny(err, zstd.ErrDecoderSizeExceeded, zstd.ErrWindowSizeExceeded) {
		return nil, errors.Mark(err, ErrDecodedTooLarge)
	}
	return plain, err
}

func (c *ZstdCompressor) Algorithm() Algorithm {
	return AlgorithmZstd
}

// Close 释放 encoder/decoder，可重复调用；关闭后再使用返回 ErrEncoderClosed/ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
