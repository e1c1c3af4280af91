package serializer

import (
	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// JSONSerializer 基于 bytedance/sonic 实现 JSON 编解码。
type JSONSerializer struct {
	// Indent 非空时输出带缩进的 JSON。
	Indent string
}

var _ Serializer = JSONSerializer{}

func (s JSONSerializer) Marshal(v any) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if s.Indent != "" {
		out, err = sonic.ConfigStd.MarshalIndent(v, "", s.Indent)
	} else {
		out, err = sonic.ConfigStd.Marshal(v)
	}
	return out, errors.Wrap(err, "serializer: json marshal")
}

func (JSONSerializer) Unmarshal(data []byte, v any) error {
	return errors.Wrap(sonic.ConfigStd.Unmarshal(data, v), "serializer: json unmarshal")
}
