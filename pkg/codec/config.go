package codec

import (
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/externalizor-go/pkg/util/viper"
)

// ConfigKey 是配置文件中 codec 配置所在的 key。
const ConfigKey = "codec"

// Config 是 Codec 的运行参数。
type Config struct {
	// MaxFrameSize 为单帧（帧头 + 负载）允许的最大字节数，0 时使用 DefaultMaxFrameSize。
	MaxFrameSize uint32 `json:"maxFrameSize" yaml:"maxFrameSize" mapstructure:"maxFrameSize"`
	// Compression 为压缩算法名：none/zstd/snappy，空串视为 none。
	Compression string `json:"compression" yaml:"compression" mapstructure:"compression"`
	// CompressThreshold 为启用压缩的最小负载字节数，更短的负载原样写出。
	CompressThreshold int `json:"compressThreshold" yaml:"compressThreshold" mapstructure:"compressThreshold"`
}

// DefaultConfig 返回默认配置：不压缩，16M 帧上限。
func DefaultConfig() Config {
	return Config{
		MaxFrameSize:      DefaultMaxFrameSize,
		Compression:       "none",
		CompressThreshold: 256,
	}
}

func (cfg *Config) normalize() {
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = DefaultMaxFrameSize
	}
	if cfg.CompressThreshold < 0 {
		cfg.CompressThreshold = 0
	}
}

// LoadConfig 从 YAML/JSON 文件的 codec 节点读取配置，缺失的项使用默认值。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	if err := v.LoadFile(path); err != nil {
		return cfg, errors.Wrapf(err, "load config %s", path)
	}
	if err := v.UnmarshalKey(ConfigKey, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "unmarshal %s config", ConfigKey)
	}
	cfg.normalize()
	return cfg, nil
}
