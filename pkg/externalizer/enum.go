package externalizer

import (
	"fmt"
	"reflect"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// enumCodec 将枚举值按序号以 varint 编码，解码时校验序号落在声明的取值集合内。
type enumCodec struct {
	typ    reflect.Type
	values []string
	signed bool
}

func newEnumCodec(t reflect.Type) (*enumCodec, error) {
	c := &enumCodec{typ: t}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		c.signed = true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return nil, merr.WrapErrUnsupportedType(t, "", "enum must have an integer underlying type")
	}
	// 指针接收者与值接收者都能通过指针调用。
	enum := reflect.New(t).Interface().(Enum)
	c.values = enum.EnumValues()
	if len(c.values) == 0 {
		return nil, merr.WrapErrUnsupportedType(t, "", "enum declares no values")
	}
	return c, nil
}

// ordinal 返回 v 的序号；越界时 err 中报告的是 v 原本的（可能为负的）值。
func (c *enumCodec) ordinal(v reflect.Value) (uint64, error) {
	if c.signed {
		n := v.Int()
		if n < 0 || n >= int64(len(c.values)) {
			return 0, merr.WrapErrEnumOrdinal(c.typ, n, len(c.values))
		}
		return uint64(n), nil
	}
	n := v.Uint()
	if n >= uint64(len(c.values)) {
		return 0, merr.WrapErrEnumOrdinal(c.typ, n, len(c.values))
	}
	return n, nil
}

func (c *enumCodec) encode(out wire.Sink, v reflect.Value) error {
	ordinal, err := c.ordinal(v)
	if err != nil {
		return err
	}
	return out.WriteUvarint(ordinal)
}

func (c *enumCodec) decode(in wire.Source, v reflect.Value) error {
	ordinal, err := in.ReadUvarint()
	if err != nil {
		return err
	}
	if ordinal >= uint64(len(c.values)) {
		return merr.WrapErrEnumOrdinal(c.typ, ordinal, len(c.values))
	}
	if c.signed {
		v.SetInt(int64(ordinal))
	} else {
		v.SetUint(ordinal)
	}
	return nil
}

func overflow(t reflect.Type, n any) error {
	return merr.WrapErrSchemaMismatch(t, fmt.Sprintf("value %v overflows %s", n, t))
}
