package externalizer

// Kind 是 Strategy 所处理的类型形状，取值是封闭的。
type Kind uint8

const (
	// KindPrimitive 定长基本类型，没有存在标记。
	KindPrimitive Kind = iota
	// KindNullable 字符串与指向基本类型的指针。
	KindNullable
	// KindEnum 实现了 Enum 的命名整数类型。
	KindEnum
	// KindArray 定长数组 [N]T。
	KindArray
	// KindCollection 切片 []T。
	KindCollection
	// KindMap 映射 map[K]V。
	KindMap
	// KindExternalizable 自描述类型，实现 Externalizable 或 encoding.BinaryMarshaler。
	KindExternalizable
	// KindObject 其余结构体，由嵌套 Pipeline 处理。
	KindObject
)

var kindNames = [...]string{
	KindPrimitive:      "primitive",
	KindNullable:       "nullable",
	KindEnum:           "enum",
	KindArray:          "array",
	KindCollection:     "collection",
	KindMap:            "map",
	KindExternalizable: "externalizable",
	KindObject:         "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}
