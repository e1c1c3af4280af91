package serializer

import (
	"github.com/lk2023060901/bincodec-go/pkg/codec"
)

// BinarySerializer 使用 pkg/codec 按固定的字节序和打包粒度编解码。
// 同一份数据的编码端与解码端必须使用相同的 Config。
type BinarySerializer struct {
	cfg  codec.Config
	opts []codec.Option
}

var _ Serializer = (*BinarySerializer)(nil)

// NewBinarySerializer 创建一个 BinarySerializer，cfg 非法时返回 ErrParameterInvalid。
func NewBinarySerializer(cfg codec.Config, opts ...codec.Option) (*BinarySerializer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BinarySerializer{cfg: cfg, opts: opts}, nil
}

// Config 返回编解码配置。
func (s *BinarySerializer) Config() codec.Config {
	return s.cfg
}

func (s *BinarySerializer) Marshal(v any) ([]byte, error) {
	return codec.Marshal(v, s.cfg, s.opts...)
}

func (s *BinarySerializer) Unmarshal(data []byte, v any) error {
	return codec.UnmarshalInto(data, s.cfg, v, s.opts...)
}
