package codec

import (
	"github.com/lk2023060901/externalizor-go/internal/compressor"
	"github.com/lk2023060901/externalizor-go/internal/crypto"
	"github.com/lk2023060901/externalizor-go/internal/serializer"
	"github.com/lk2023060901/externalizor-go/pkg/log"
)

// Option 用于配置 Codec。
type Option func(c *Codec)

// WithConfig 设置帧大小上限、压缩算法与压缩阈值。
func WithConfig(cfg Config) Option {
	return func(c *Codec) {
		c.cfg = cfg
	}
}

// WithSerializer 替换负载的序列化方案，默认使用默认 Registry 的 ExternSerializer。
func WithSerializer(s serializer.Serializer) Option {
	return func(c *Codec) {
		c.serializer = s
	}
}

// WithCompressor 直接指定压缩器，优先于 Config.Compression。
func WithCompressor(comp compressor.Compressor) Option {
	return func(c *Codec) {
		c.compressor = comp
	}
}

// WithEncryptor 为负载开启加密，帧头作为关联数据参与签名。
func WithEncryptor(enc crypto.Encryptor) Option {
	return func(c *Codec) {
		c.encryptor = enc
	}
}

// WithLogger 为 Codec 绑定 Logger。
func WithLogger(logger *log.MLogger) Option {
	return func(c *Codec) {
		c.SetLogger(logger)
	}
}
