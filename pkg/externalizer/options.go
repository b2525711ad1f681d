package externalizer

import (
	"reflect"

	"github.com/lk2023060901/externalizor-go/pkg/log"
)

// Option 用于配置 Registry。
type Option func(r *Registry)

// WithConfig 设置 Registry 的运行参数。
func WithConfig(cfg Config) Option {
	return func(r *Registry) {
		r.cfg = cfg
	}
}

// WithLogger 为 Registry 绑定 Logger。
func WithLogger(logger *log.MLogger) Option {
	return func(r *Registry) {
		r.SetLogger(logger)
	}
}

// WithFactory 为类型 T 注册工厂。解码 *T 字段、切片/映射中的 *T 元素以及顶层 T 时，
// 使用工厂代替零值构造实例。工厂返回错误、nil 或发生 panic 时解码失败并返回 ErrInstantiation。
func WithFactory[T any](fn func() (*T, error)) Option {
	return func(r *Registry) {
		t := reflect.TypeFor[T]()
		r.factories[t] = &factory{
			typ: t,
			fn: func() (any, error) {
				return fn()
			},
		}
	}
}
