package externalizer

import (
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/externalizor-go/pkg/util/hardware"
	"github.com/lk2023060901/externalizor-go/pkg/util/viper"
	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// ConfigKey 是配置文件中 externalizer 配置所在的 key。
const ConfigKey = "externalizer"

// Config 是 Registry 的运行参数。
type Config struct {
	// MaxLength 为解码时单个长度/元素个数允许的最大值，<= 0 时使用 wire.DefaultMaxLength。
	MaxLength int `json:"maxLength" yaml:"maxLength" mapstructure:"maxLength"`
	// Workers 为 MarshalAll 使用的协程池大小，<= 0 时使用 CPU 核数。
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
	// WarmupParallelism 为 Warmup 同时构建的类型数，<= 0 表示不限制。
	WarmupParallelism int `json:"warmupParallelism" yaml:"warmupParallelism" mapstructure:"warmupParallelism"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		MaxLength:         wire.DefaultMaxLength,
		Workers:           hardware.GetCPUNum(),
		WarmupParallelism: 0,
	}
}

func (cfg *Config) normalize() {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = wire.DefaultMaxLength
	}
	if cfg.Workers <= 0 {
		cfg.Workers = hardware.GetCPUNum()
	}
}

// LoadConfig 从 YAML/JSON 文件的 externalizer 节点读取配置，缺失的项使用默认值。
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
