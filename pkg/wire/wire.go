// Package wire 提供 externalizer 使用的二进制 sink/source。
//
// 编码约定：
//   - 定长整数与浮点数一律大端序；bool 占 1 字节，只允许 0/1；
//   - 变长无符号整数（长度、元素个数、枚举序号）使用 protobuf varint；
//   - string 为 4 字节大端长度 + UTF-8 字节；[]byte 为 varint 长度 + 原始字节。
package wire

// DefaultMaxLength 为 Reader 默认允许的最大长度/元素个数（64M）。
// 损坏的数据可能携带极大的长度，读取前必须先做上限检查。
const DefaultMaxLength = 64 << 20

// Sink 是编码目标的抽象。
type Sink interface {
	WriteBool(v bool) error
	WriteInt8(v int8) error
	WriteInt16(v int16) error
	WriteInt32(v int32) error
	WriteInt64(v int64) error
	WriteUint8(v uint8) error
	WriteUint16(v uint16) error
	WriteUint32(v uint32) error
	WriteUint64(v uint64) error
	WriteFloat32(v float32) error
	WriteFloat64(v float64) error
	WriteUvarint(v uint64) error
	// WriteLen 写入一个非负长度（varint）。
	WriteLen(n int) error
	WriteString(s string) error
	WriteBytes(b []byte) error
	// WriteRaw 原样写入 b，不带长度前缀。
	WriteRaw(b []byte) error
}

// Source 是解码来源的抽象，与 Sink 一一对应。
type Source interface {
	ReadBool() (bool, error)
	ReadInt8() (int8, error)
	ReadInt16() (int16, error)
	ReadInt32() (int32, error)
	ReadInt64() (int64, error)
	ReadUint8() (uint8, error)
	ReadUint16() (uint16, error)
	ReadUint32() (uint32, error)
	ReadUint64() (uint64, error)
	ReadFloat32() (float32, error)
	ReadFloat64() (float64, error)
	ReadUvarint() (uint64, error)
	// ReadLen 读取 WriteLen 写入的长度，并按 Source 的上限做校验。
	ReadLen() (int, error)
	ReadString() (string, error)
	ReadBytes() ([]byte, error)
	// ReadRaw 读取恰好 len(p) 个字节。
	ReadRaw(p []byte) error
}
