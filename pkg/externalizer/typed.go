package externalizer

import (
	"bytes"
	"reflect"

	"github.com/lk2023060901/externalizor-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// Codec 是结构体类型 T 的类型化入口，编码结果与 Registry.Marshal 一致。
//
// 普通结构体使用 T 的 Pipeline，顶层没有存在标记；自描述类型（Externalizable、
// encoding.BinaryMarshaler）使用其 Strategy，由类型自己读写完整状态。
type Codec[T any] struct {
	registry *Registry
	pipeline *Pipeline
	strategy Strategy
	alloc    allocator
}

// For 在 registry 中构建（或取出）T 的编解码器。T 必须是结构体类型。
func For[T any](registry *Registry) (*Codec[T], error) {
	if registry == nil {
		registry = Default()
	}
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, merr.WrapErrUnsupportedType(t, "", "codec requires a struct type")
	}
	c := &Codec[T]{registry: registry}
	if isSelfDescribing(t) {
		s, err := registry.Strategy(t)
		if err != nil {
			return nil, err
		}
		c.strategy = s
		c.alloc = newAllocator(t, registry.factories[t])
		return c, nil
	}
	p, err := registry.Pipeline(t)
	if err != nil {
		return nil, err
	}
	c.pipeline = p
	c.alloc = p.alloc
	return c, nil
}

// MustFor 与 For 相同，构建失败时 panic，适用于包级变量初始化。
func MustFor[T any](registry *Registry) *Codec[T] {
	c, err := For[T](registry)
	if err != nil {
		panic(err)
	}
	return c
}

// Pipeline 返回 T 的 Pipeline，自描述类型返回 nil。
func (c *Codec[T]) Pipeline() *Pipeline {
	return c.pipeline
}

func (c *Codec[T]) Write(out wire.Sink, v *T) error {
	if v == nil {
		return merr.WrapErrParameterMissing("value", "nil pointer")
	}
	rv := reflect.ValueOf(v).Elem()
	if c.strategy != nil {
		return c.strategy.Encode(out, rv)
	}
	return c.pipeline.encodeFields(out, rv)
}

func (c *Codec[T]) Read(in wire.Source) (*T, error) {
	ptr, err := c.alloc()
	if err != nil {
		return nil, err
	}
	if c.strategy != nil {
		err = c.strategy.Decode(in, ptr.Elem())
	} else {
		err = c.pipeline.decodeFields(in, ptr.Elem())
	}
	if err != nil {
		return nil, err
	}
	return ptr.Interface().(*T), nil
}

func (c *Codec[T]) Marshal(v *T) ([]byte, error) {
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	if err := c.Write(wire.NewWriter(buf), v); err != nil {
		return nil, err
	}
	return bytebuffer.Clone(buf), nil
}

func (c *Codec[T]) Unmarshal(data []byte) (*T, error) {
	br := bytes.NewReader(data)
	v, err := c.Read(wire.NewReader(br, wire.WithMaxLength(c.registry.cfg.MaxLength)))
	if err != nil {
		return nil, err
	}
	if br.Len() > 0 {
		return nil, merr.WrapErrSchemaMismatch(reflect.TypeFor[T](), "trailing bytes after value")
	}
	return v, nil
}
