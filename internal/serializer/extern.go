package serializer

import (
	"github.com/lk2023060901/externalizor-go/pkg/externalizer"
)

// ExternSerializer 使用 externalizer 的位置编码，编码中不含字段名。
type ExternSerializer struct {
	registry *externalizer.Registry
}

var _ Serializer = (*ExternSerializer)(nil)

// NewExternSerializer 创建基于 registry 的序列化器，registry 为 nil 时使用默认 Registry。
func NewExternSerializer(registry *externalizer.Registry) *ExternSerializer {
	if registry == nil {
		registry = externalizer.Default()
	}
	return &ExternSerializer{registry: registry}
}

func (s *ExternSerializer) Marshal(v any) ([]byte, error) {
	return s.registry.Marshal(v)
}

func (s *ExternSerializer) Unmarshal(data []byte, v any) error {
	return s.registry.Unmarshal(data, v)
}

func (s *ExternSerializer) Name() string {
	return "extern"
}
