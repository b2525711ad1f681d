package compressor

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

// Compressor 抽象了“单次压缩/解压”能力。
//
// 面向整块负载（一个编码后的对象），不处理流式压缩。
type Compressor interface {
	// Compress 将 src 压缩到 dst。
	//
	// dst 一般可以传入一个可复用的缓冲区（长度可为 0），实现可选择复用其底层容量；
	// 返回值 packet 为压缩后的完整数据。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将压缩数据 src 解压到 dst。
	//
	// 行为约定与 Compress 对称：src 必须是 Compress 的输出。
	Decompress(dst, src []byte) (plain []byte, err error)

	// Algorithm 返回实现对应的算法标识，写入帧头。
	Algorithm() Algorithm
}

// Algorithm 是帧头中记录的压缩算法。
type Algorithm uint8

const (
	AlgorithmNone Algorithm = iota
	AlgorithmZstd
	AlgorithmSnappy
)

var algorithmNames = map[Algorithm]string{
	AlgorithmNone:   "none",
	AlgorithmZstd:   "zstd",
	AlgorithmSnappy: "snappy",
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAlgorithm 将配置中的算法名（大小写不敏感，空串视为 none）转换为 Algorithm。
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return AlgorithmNone, nil
	}
	for a, n := range algorithmNames {
		if n == name {
			return a, nil
		}
	}
	return AlgorithmNone, merr.WrapErrParameterInvalidMsg("unknown compression algorithm %q", name)
}

// ErrDecodedTooLarge 表示解压结果超过了 WithMaxDecodedSize 设置的上限。
var ErrDecodedTooLarge = errors.New("decoded payload exceeds limit")

type options struct {
	maxDecodedSize uint64
}

// Option 配置 New 创建的 Compressor。
type Option func(o *options)

// WithMaxDecodedSize 限制单次解压的输出字节数，0 表示不限制。
// 超限时 Decompress 返回 ErrDecodedTooLarge，且不会先分配完整的输出。
func WithMaxDecodedSize(n uint64) Option {
	return func(o *options) {
		o.maxDecodedSize = n
	}
}

// New 按算法创建 Compressor。
func New(a Algorithm, opts ...Option) (Compressor, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	switch a {
	case AlgorithmNone:
		return NopCompressor{}, nil
	case AlgorithmZstd:
		c, err := NewZstdCompressor(WithZstdMaxDecodedSize(o.maxDecodedSize))
		if err != nil {
			return nil, err
		}
		return c, nil
	case AlgorithmSnappy:
		return SnappyCompressor{MaxDecodedLen: o.maxDecodedSize}, nil
	default:
		return nil, merr.WrapErrParameterInvalidMsg("unknown compression algorithm %d", a)
	}
}

// NopCompressor 是一个空实现：不做任何压缩/解压，直接返回输入内容。
//
// 适用于：
//   - 未开启压缩功能时的默认值
//   - 便于在调用侧通过接口注入，在不改业务逻辑的前提下关闭压缩
type NopCompressor struct{}

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Algorithm() Algorithm {
	return AlgorithmNone
}

// 编译期断言：确保 NopCompressor 实现了 Compressor 接口。
var _ Compressor = NopCompressor{}
