package serializer

// Serializer 抽象了“对象 <-> 字节”的序列化能力，pkg/codec 通过它得到帧负载。
type Serializer interface {
	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 通常为指针类型，用于接收解码结果。
	Unmarshal(data []byte, v any) error

	// Name 返回序列化方案的名称，用于日志与指标。
	Name() string
}
