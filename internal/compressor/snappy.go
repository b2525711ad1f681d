package compressor

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

// SnappyCompressor 基于 github.com/golang/snappy 的块压缩实现，无状态，可并发使用。
// MaxDecodedLen 非 0 时，块头声明的解压长度超过它即拒绝。
type SnappyCompressor struct {
	MaxDecodedLen uint64
}

var _ Compressor = SnappyCompressor{}

func (SnappyCompressor) Compress(dst, src []byte) ([]byte, error) {
	return snappy.Encode(dst[:cap(dst)], src), nil
}

func (c SnappyCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c.MaxDecodedLen > 0 {
		n, err := snappy.DecodedLen(src)
		if err != nil {
			return nil, err
		}
		if uint64(n) > c.MaxDecodedLen {
			return nil, errors.Wrapf(ErrDecodedTooLarge, "snappy block declares %d bytes, limit %d", n, c.MaxDecodedLen)
		}
	}
	return snappy.Decode(dst[:cap(dst)], src)
}

func (SnappyCompressor) Algorithm() Algorithm {
	return AlgorithmSnappy
}
