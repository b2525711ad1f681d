package codec

import (
	"fmt"

	"github.com/blang/semver/v4"

	"github.com/lk2023060901/externalizor-go/internal/compressor"
	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

// FormatVersion 是当前写出的帧格式版本。读取时只要求主版本号一致。
var FormatVersion = semver.MustParse("1.0.0")

const (
	// lengthSize 为帧长度前缀的字节数。
	lengthSize = 4
	// headerSize 为长度前缀之后、负载之前的固定帧头字节数：major | minor | flags | algorithm。
	headerSize = 4

	// DefaultMaxFrameSize 为默认允许的最大帧（帧头 + 负载）字节数。
	DefaultMaxFrameSize uint32 = 16 << 20
)

// Flag 记录负载经过的处理步骤。
type Flag uint8

const (
	FlagCompressed Flag = 1 << iota
	FlagEncrypted

	knownFlags = FlagCompressed | FlagEncrypted
)

func (f Flag) Has(flag Flag) bool {
	return f&flag != 0
}

// Header 是帧的固定头部，同时作为加密时的关联数据。
type Header struct {
	Major     uint8
	Minor     uint8
	Flags     Flag
	Algorithm compressor.Algorithm
}

func newHeader() Header {
	return Header{
		Major: uint8(FormatVersion.Major),
		Minor: uint8(FormatVersion.Minor),
	}
}

// Version 返回帧头记录的格式版本。
func (h Header) Version() semver.Version {
	return semver.Version{Major: uint64(h.Major), Minor: uint64(h.Minor)}
}

func (h Header) String() string {
	return fmt.Sprintf("v%d.%d flags=%#x algorithm=%s", h.Major, h.Minor, uint8(h.Flags), h.Algorithm)
}

func (h Header) bytes() [headerSize]byte {
	return [headerSize]byte{h.Major, h.Minor, uint8(h.Flags), uint8(h.Algorithm)}
}

func parseHeader(b []byte) (Header, error) {
	if len(b) < headerSize {
		return Header{}, merr.WrapErrFrameInvalid(fmt.Sprintf("header needs %d bytes, got %d", headerSize, len(b)))
	}
	h := Header{
		Major:     b[0],
		Minor:     b[1],
		Flags:     Flag(b[2]),
		Algorithm: compressor.Algorithm(b[3]),
	}
	if uint64(h.Major) != FormatVersion.Major {
		return h, merr.WrapErrFrameVersionMismatch(FormatVersion.String(), h.Version().String())
	}
	if h.Flags&^knownFlags != 0 {
		return h, merr.WrapErrFrameInvalid(fmt.Sprintf("unknown flags %#x", uint8(h.Flags&^knownFlags)))
	}
	if h.Flags.Has(FlagCompressed) == (h.Algorithm == compressor.AlgorithmNone) {
		return h, merr.WrapErrFrameInvalid("compression flag does not match algorithm " + h.Algorithm.String())
	}
	return h, nil
}
