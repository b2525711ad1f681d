// Package viper 在 spf13/viper 之上提供按段反序列化的配置读取，并支持用环境变量覆盖文件中的值。
package viper

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	spfviper "github.com/spf13/viper"
)

// Config 是一份已加载的 YAML/JSON 配置。零值可用，反序列化时不做任何修改。
type Config struct {
	v         *spfviper.Viper
	envPrefix string
}

// Option 配置 Config。
type Option func(c *Config)

// WithEnvPrefix 开启环境变量覆盖：键 codec.maxFrameSize 对应 PREFIX_CODEC_MAXFRAMESIZE。
// 只有配置文件中出现过的键才会被覆盖。
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = strings.ToUpper(prefix)
	}
}

func New(opts ...Option) *Config {
	c := &Config{v: spfviper.New()}
	for _, opt := range opts {
		opt(c)
	}
	if c.envPrefix != "" {
		c.v.SetEnvPrefix(c.envPrefix)
		c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		c.v.AutomaticEnv()
	}
	return c
}

// LoadFile 读取配置文件，类型由扩展名推断（.yaml/.yml/.json），其余扩展名交给 viper 判断。
func (c *Config) LoadFile(path string) error {
	if c.v == nil {
		c.v = spfviper.New()
	}
	c.v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	}
	if err := c.v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "load config %s", path)
	}
	return nil
}

// EnvKey 返回 key 对应的环境变量名，未开启环境变量覆盖时返回空串。
func (c *Config) EnvKey(key string) string {
	if c.envPrefix == "" {
		return ""
	}
	return c.envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Unmarshal 将完整配置反序列化到 dst（结构体或 map 的指针）。
func (c *Config) Unmarshal(dst any) error {
	if c.v == nil {
		return nil
	}
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将 key 对应的一段配置反序列化到 dst，key 不存在时 dst 保持不变。
//
// viper 的 UnmarshalKey 只对叶子键应用环境变量，这里先按叶子键展开再解码，
// 让 PREFIX_SECTION_FIELD 也能覆盖整段读取的结果。
func (c *Config) UnmarshalKey(key string, dst any) error {
	if c.v == nil {
		return nil
	}
	if c.envPrefix == "" || !c.hasEnvOverride(key) {
		return c.v.UnmarshalKey(key, dst)
	}
	section, ok := lookup(c.v.AllSettings(), key)
	if !ok {
		return c.v.UnmarshalKey(key, dst)
	}
	sub := spfviper.New()
	if err := sub.MergeConfigMap(section); err != nil {
		return errors.Wrapf(err, "merge config section %s", key)
	}
	return sub.Unmarshal(dst)
}

func (c *Config) hasEnvOverride(key string) bool {
	prefix := strings.ToLower(key) + "."
	for _, k := range c.v.AllKeys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if _, ok := os.LookupEnv(c.EnvKey(k)); ok {
			return true
		}
	}
	return false
}

func lookup(settings map[string]any, key string) (map[string]any, bool) {
	cur := settings
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		next, ok := cur[part].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
