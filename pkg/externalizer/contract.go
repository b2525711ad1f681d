package externalizer

import (
	"encoding"
	"reflect"

	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// Externalizable 由能够自行读写完整状态的类型实现。
//
// 方法需要定义在指针接收者上（或值接收者，指针方法集同样包含）。
// 解码时会先构造一个新的零值（或通过注册的工厂），再调用 ReadExternal 填充。
type Externalizable interface {
	WriteExternal(out wire.Sink) error
	ReadExternal(in wire.Source) error
}

// Enum 由取值封闭的命名整数类型实现。
// 值本身即序号，必须落在 [0, len(EnumValues())) 之内；EnumValues 的结果仅用于诊断。
type Enum interface {
	EnumValues() []string
}

var (
	externalizableType    = reflect.TypeFor[Externalizable]()
	enumType              = reflect.TypeFor[Enum]()
	binaryMarshalerType   = reflect.TypeFor[encoding.BinaryMarshaler]()
	binaryUnmarshalerType = reflect.TypeFor[encoding.BinaryUnmarshaler]()
)

func implements(t, iface reflect.Type) bool {
	return t.Implements(iface) || reflect.PointerTo(t).Implements(iface)
}

func isExternalizable(t reflect.Type) bool {
	return implements(t, externalizableType)
}

func isBinaryMarshaler(t reflect.Type) bool {
	return implements(t, binaryMarshalerType) && reflect.PointerTo(t).Implements(binaryUnmarshalerType)
}

func isEnum(t reflect.Type) bool {
	return implements(t, enumType)
}

func isSelfDescribing(t reflect.Type) bool {
	return isExternalizable(t) || isBinaryMarshaler(t)
}

// addressable 返回指向 v 的指针。v 不可寻址时先复制一份。
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}
