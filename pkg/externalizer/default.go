package externalizer

import (
	"sync"

	"github.com/lk2023060901/externalizor-go/pkg/log"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default 返回进程级的默认 Registry。
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(WithLogger(log.With(log.FieldModule("externalizer"))))
	})
	return defaultRegistry
}

// Marshal 使用默认 Registry 编码 v。
func Marshal(v any) ([]byte, error) {
	return Default().Marshal(v)
}

// Unmarshal 使用默认 Registry 将 data 解码到 ptr。
func Unmarshal(data []byte, ptr any) error {
	return Default().Unmarshal(data, ptr)
}

// Size 使用默认 Registry 计算 v 编码后的字节数。
func Size(v any) (int64, error) {
	return Default().Size(v)
}
