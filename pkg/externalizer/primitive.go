package externalizer

import (
	"reflect"

	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// 基本类型按固定宽度大端编码；int/uint 统一按 8 字节处理，与平台字长无关。

type boolCodec struct{}

func (boolCodec) encode(out wire.Sink, v reflect.Value) error { return out.WriteBool(v.Bool()) }
func (boolCodec) decode(in wire.Source, v reflect.Value) error {
	b, err := in.ReadBool()
	if err != nil {
		return err
	}
	v.SetBool(b)
	return nil
}

type int8Codec struct{}

func (int8Codec) encode(out wire.Sink, v reflect.Value) error { return out.WriteInt8(int8(v.Int())) }
func (int8Codec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadInt8()
	if err != nil {
		return err
	}
	v.SetInt(int64(n))
	return nil
}

type int16Codec struct{}

func (int16Codec) encode(out wire.Sink, v reflect.Value) error { return out.WriteInt16(int16(v.Int())) }
func (int16Codec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadInt16()
	if err != nil {
		return err
	}
	v.SetInt(int64(n))
	return nil
}

type int32Codec struct{}

func (int32Codec) encode(out wire.Sink, v reflect.Value) error { return out.WriteInt32(int32(v.Int())) }
func (int32Codec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadInt32()
	if err != nil {
		return err
	}
	v.SetInt(int64(n))
	return nil
}

type int64Codec struct{}

func (int64Codec) encode(out wire.Sink, v reflect.Value) error { return out.WriteInt64(v.Int()) }
func (int64Codec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadInt64()
	if err != nil {
		return err
	}
	if v.OverflowInt(n) {
		return overflow(v.Type(), n)
	}
	v.SetInt(n)
	return nil
}

type uint8Codec struct{}

func (uint8Codec) encode(out wire.Sink, v reflect.Value) error { return out.WriteUint8(uint8(v.Uint())) }
func (uint8Codec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadUint8()
	if err != nil {
		return err
	}
	v.SetUint(uint64(n))
	return nil
}

type uint16Codec struct{}

func (uint16Codec) encode(out wire.Sink, v reflect.Value) error {
	return out.WriteUint16(uint16(v.Uint()))
}
func (uint16Codec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadUint16()
	if err != nil {
		return err
	}
	v.SetUint(uint64(n))
	return nil
}

type uint32Codec struct{}

func (uint32Codec) encode(out wire.Sink, v reflect.Value) error {
	return out.WriteUint32(uint32(v.Uint()))
}
func (uint32Codec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadUint32()
	if err != nil {
		return err
	}
	v.SetUint(uint64(n))
	return nil
}

type uint64Codec struct{}

func (uint64Codec) encode(out wire.Sink, v reflect.Value) error { return out.WriteUint64(v.Uint()) }
func (uint64Codec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadUint64()
	if err != nil {
		return err
	}
	if v.OverflowUint(n) {
		return overflow(v.Type(), n)
	}
	v.SetUint(n)
	return nil
}

type float32Codec struct{}

func (float32Codec) encode(out wire.Sink, v reflect.Value) error {
	return out.WriteFloat32(float32(v.Float()))
}
func (float32Codec) decode(in wire.Source, v reflect.Value) error {
	f, err := in.ReadFloat32()
	if err != nil {
		return err
	}
	v.SetFloat(float64(f))
	return nil
}

type float64Codec struct{}

func (float64Codec) encode(out wire.Sink, v reflect.Value) error { return out.WriteFloat64(v.Float()) }
func (float64Codec) decode(in wire.Source, v reflect.Value) error {
	f, err := in.ReadFloat64()
	if err != nil {
		return err
	}
	v.SetFloat(f)
	return nil
}

// 复数按实部、虚部顺序编码。

type complex64Codec struct{}

func (complex64Codec) encode(out wire.Sink, v reflect.Value) error {
	c := v.Complex()
	if err := out.WriteFloat32(float32(real(c))); err != nil {
		return err
	}
	return out.WriteFloat32(float32(imag(c)))
}
func (complex64Codec) decode(in wire.Source, v reflect.Value) error {
	re, err := in.ReadFloat32()
	if err != nil {
		return err
	}
	im, err := in.ReadFloat32()
	if err != nil {
		return err
	}
	v.SetComplex(complex(float64(re), float64(im)))
	return nil
}

type complex128Codec struct{}

func (complex128Codec) encode(out wire.Sink, v reflect.Value) error {
	c := v.Complex()
	if err := out.WriteFloat64(real(c)); err != nil {
		return err
	}
	return out.WriteFloat64(imag(c))
}
func (complex128Codec) decode(in wire.Source, v reflect.Value) error {
	re, err := in.ReadFloat64()
	if err != nil {
		return err
	}
	im, err := in.ReadFloat64()
	if err != nil {
		return err
	}
	v.SetComplex(complex(re, im))
	return nil
}

type stringCodec struct{}

func (stringCodec) encode(out wire.Sink, v reflect.Value) error { return out.WriteString(v.String()) }
func (stringCodec) decode(in wire.Source, v reflect.Value) error {
	s, err := in.ReadString()
	if err != nil {
		return err
	}
	v.SetString(s)
	return nil
}

// primitiveCodec 返回基本类型对应的 codec，非基本类型返回 nil。
func primitiveCodec(k reflect.Kind) codec {
	switch k {
	case reflect.Bool:
		return boolCodec{}
	case reflect.Int8:
		return int8Codec{}
	case reflect.Int16:
		return int16Codec{}
	case reflect.Int32:
		return int32Codec{}
	case reflect.Int, reflect.Int64:
		return int64Codec{}
	case reflect.Uint8:
		return uint8Codec{}
	case reflect.Uint16:
		return uint16Codec{}
	case reflect.Uint32:
		return uint32Codec{}
	case reflect.Uint, reflect.Uint64:
		return uint64Codec{}
	case reflect.Float32:
		return float32Codec{}
	case reflect.Float64:
		return float64Codec{}
	case reflect.Complex64:
		return complex64Codec{}
	case reflect.Complex128:
		return complex128Codec{}
	default:
		return nil
	}
}
