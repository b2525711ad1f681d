package externalizer

import (
	"encoding"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// objectCodec 把结构体交给它自己的 Pipeline 处理。
type objectCodec struct {
	pipeline *Pipeline
}

func (c *objectCodec) encode(out wire.Sink, v reflect.Value) error {
	return c.pipeline.encodeFields(out, v)
}

func (c *objectCodec) decode(in wire.Source, v reflect.Value) error {
	return c.pipeline.decodeFields(in, v)
}

// externalizableCodec 调用值自身的 WriteExternal/ReadExternal。
// 解码总是作用在 alloc 构造的新实例上，完成后再整体赋给目标。
type externalizableCodec struct {
	typ   reflect.Type
	alloc allocator
}

func (c *externalizableCodec) encode(out wire.Sink, v reflect.Value) error {
	ext := addressable(v).Interface().(Externalizable)
	return ext.WriteExternal(out)
}

func (c *externalizableCodec) decode(in wire.Source, v reflect.Value) error {
	p, err := c.alloc()
	if err != nil {
		return err
	}
	if err := p.Interface().(Externalizable).ReadExternal(in); err != nil {
		return err
	}
	v.Set(p.Elem())
	return nil
}

// binaryCodec 适配 encoding.BinaryMarshaler，编码为 varint 长度 + MarshalBinary 的结果。
type binaryCodec struct {
	typ   reflect.Type
	alloc allocator
}

func (c *binaryCodec) encode(out wire.Sink, v reflect.Value) error {
	m := addressable(v).Interface().(encoding.BinaryMarshaler)
	data, err := m.MarshalBinary()
	if err != nil {
		return errors.Wrapf(err, "marshal binary %s", c.typ)
	}
	return out.WriteBytes(data)
}

func (c *binaryCodec) decode(in wire.Source, v reflect.Value) error {
	data, err := in.ReadBytes()
	if err != nil {
		return err
	}
	p, err := c.alloc()
	if err != nil {
		return err
	}
	if err := p.Interface().(encoding.BinaryUnmarshaler).UnmarshalBinary(data); err != nil {
		return merr.Combine(err, merr.WrapErrSchemaMismatch(c.typ, "unmarshal binary failed"))
	}
	v.Set(p.Elem())
	return nil
}

// pointerCodec 处理 *T。存在标记由外层 strategy 写出，这里只编码 T 的值。
// 解码时通过 alloc 构造新实例。
//
// elem 在构建递归类型时可能尚未完成，因此只在调用时读取 elem.body。
type pointerCodec struct {
	elem  *strategy
	alloc allocator
}

func (c *pointerCodec) encode(out wire.Sink, v reflect.Value) error {
	return c.elem.body.encode(out, v.Elem())
}

func (c *pointerCodec) decode(in wire.Source, v reflect.Value) error {
	p, err := c.alloc()
	if err != nil {
		return err
	}
	if err := c.elem.body.decode(in, p.Elem()); err != nil {
		return err
	}
	v.Set(p)
	return nil
}
