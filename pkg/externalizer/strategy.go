package externalizer

import (
	"reflect"

	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// Strategy 是绑定到某一个声明类型的编解码单元。
//
// Strategy 在构建完成后不可变，可以被任意多个 goroutine 并发使用。
// Encode 接受任意 v（可寻址或不可寻址）；Decode 要求 v 可设置。
type Strategy interface {
	Kind() Kind
	Type() reflect.Type
	// Nullable 表示编码前是否带有存在标记。
	Nullable() bool
	Encode(out wire.Sink, v reflect.Value) error
	Decode(in wire.Source, v reflect.Value) error
}

// codec 只负责值本身的编码，不处理存在标记。
type codec interface {
	encode(out wire.Sink, v reflect.Value) error
	decode(in wire.Source, v reflect.Value) error
}

type strategy struct {
	kind     Kind
	typ      reflect.Type
	nullable bool
	// isNil 为 nil 表示该类型的值不会缺失，存在标记恒为 1。
	isNil func(v reflect.Value) bool
	body  codec
}

var _ Strategy = (*strategy)(nil)

func (s *strategy) Kind() Kind         { return s.kind }
func (s *strategy) Type() reflect.Type { return s.typ }
func (s *strategy) Nullable() bool     { return s.nullable }

func (s *strategy) header(kind Kind, nullable bool) {
	s.kind = kind
	s.nullable = nullable
}

func (s *strategy) Encode(out wire.Sink, v reflect.Value) error {
	if !s.nullable {
		return s.body.encode(out, v)
	}
	if s.isNil != nil && s.isNil(v) {
		return out.WriteBool(false)
	}
	if err := out.WriteBool(true); err != nil {
		return err
	}
	return s.body.encode(out, v)
}

func (s *strategy) Decode(in wire.Source, v reflect.Value) error {
	if !s.nullable {
		return s.body.decode(in, v)
	}
	present, err := in.ReadBool()
	if err != nil {
		return err
	}
	if !present {
		v.SetZero()
		return nil
	}
	return s.body.decode(in, v)
}

func isNilValue(v reflect.Value) bool {
	return v.IsNil()
}
