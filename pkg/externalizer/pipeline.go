package externalizer

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// Pipeline 是一个结构体类型的字段编解码流水线。
//
// 字段集合及顺序在构建时确定，之后不再改变；写出与读入按同一顺序遍历。
// Pipeline 不持有任何实例，可以被并发使用。
type Pipeline struct {
	typ    reflect.Type
	fields []Field
	alloc  allocator
}

// Type 返回 Pipeline 对应的结构体类型。
func (p *Pipeline) Type() reflect.Type {
	return p.typ
}

// Fields 返回参与编解码的字段描述，按编码顺序排列。返回值是副本。
func (p *Pipeline) Fields() []Field {
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Write 将 obj 的字段按顺序写入 out。obj 可以是 T 或非 nil 的 *T。
// 顶层对象本身没有存在标记。
func (p *Pipeline) Write(out wire.Sink, obj any) error {
	v, err := p.target(obj, false)
	if err != nil {
		return err
	}
	return p.encodeFields(out, v)
}

// Read 构造一个新的实例（工厂或零值），按顺序从 in 中读出各字段，返回 *T。
func (p *Pipeline) Read(in wire.Source) (any, error) {
	ptr, err := p.alloc()
	if err != nil {
		return nil, err
	}
	if err := p.decodeFields(in, ptr.Elem()); err != nil {
		return nil, err
	}
	return ptr.Interface(), nil
}

// ReadInto 从 in 中读出各字段写入已有的 obj（非 nil 的 *T）。
// 不参与编解码的字段保持原值。
func (p *Pipeline) ReadInto(in wire.Source, obj any) error {
	v, err := p.target(obj, true)
	if err != nil {
		return err
	}
	return p.decodeFields(in, v)
}

func (p *Pipeline) target(obj any, settable bool) (reflect.Value, error) {
	v := reflect.ValueOf(obj)
	if !v.IsValid() {
		return reflect.Value{}, merr.WrapErrParameterMissing("obj")
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, merr.WrapErrParameterMissing("obj", "nil pointer")
		}
		v = v.Elem()
	} else if settable {
		return reflect.Value{}, merr.WrapErrParameterInvalid("*"+p.typ.String(), v.Type().String())
	}
	if v.Type() != p.typ {
		return reflect.Value{}, merr.WrapErrParameterInvalid(p.typ.String(), v.Type().String())
	}
	return v, nil
}

func (p *Pipeline) encodeFields(out wire.Sink, v reflect.Value) error {
	for i := range p.fields {
		f := &p.fields[i]
		if err := f.strategy.Encode(out, v.Field(f.Index)); err != nil {
			return errors.Wrapf(err, "encode %s.%s", p.typ, f.Name)
		}
	}
	return nil
}

func (p *Pipeline) decodeFields(in wire.Source, v reflect.Value) error {
	for i := range p.fields {
		f := &p.fields[i]
		if err := f.strategy.Decode(in, v.Field(f.Index)); err != nil {
			return errors.Wrapf(err, "decode %s.%s", p.typ, f.Name)
		}
	}
	return nil
}
