package codec

import (
	"bytes"
	"reflect"

	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
)

// Marshal 编码 v 并返回完整的字节序列，位模式下会自动 Flush。
func Marshal(v any, cfg Config, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	s := NewSerializer(&buf, cfg, opts...)
	if err := s.Serialize(v); err != nil {
		return nil, err
	}
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal 从 data 解码一个新的 T。data 末尾多余的字节被忽略。
func Unmarshal[T any](data []byte, cfg Config, opts ...Option) (T, error) {
	return Deserialize[T](NewDeserializer(bytes.NewReader(data), cfg, opts...))
}

// UnmarshalInto 从 data 就地解码到 dst。
func UnmarshalInto(data []byte, cfg Config, dst any, opts ...Option) error {
	return NewDeserializer(bytes.NewReader(data), cfg, opts...).DeserializeInto(dst)
}

// ShapeOf 返回 t 的 Shape。
func ShapeOf(t reflect.Type, opts ...Option) (*Shape, error) {
	return newOptions(opts...).registry.ShapeOf(t)
}

// Validate 检查 T 能否被编解码，通常在程序启动时调用，
// 使不受支持的类型尽早以 ErrUnsupportedShape 失败。
func Validate[T any](opts ...Option) error {
	_, err := ShapeOf(reflect.TypeFor[T](), opts...)
	return err
}

// SizeOf 返回 T 在 cfg 下编码后的字节数。
// 编码长度取决于取值或由自定义编解码决定时返回 ErrParameterInvalid。
func SizeOf[T any](cfg Config, opts ...Option) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	sh, err := ShapeOf(reflect.TypeFor[T](), opts...)
	if err != nil {
		return 0, err
	}
	bits := sh.BitSize(cfg.Packing)
	if bits < 0 {
		return 0, merr.WrapErrParameterInvalidMsg("%s has no static size", sh.Type)
	}
	return (bits + 7) / 8, nil
}
