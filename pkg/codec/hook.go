package codec

import (
	"math"
	"reflect"

	"github.com/x448/float16"
	"golang.org/x/exp/constraints"

	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
)

// 以下方法供自定义编解码函数使用，它们与通用规则一样遵循会话的字节序和
// 当前打包模式（在紧凑结构体内部为位模式）。

func checkWidth(bits int) error {
	if bits < 1 || bits > 64 {
		return merr.WrapErrParameterInvalidRange(1, 64, bits, "bit width")
	}
	return nil
}

// WriteUint 写入 v 的低 bits 位。
func (s *Serializer) WriteUint(v uint64, bits int) error {
	if err := checkWidth(bits); err != nil {
		return err
	}
	return s.writeBits(v, bits)
}

// WriteInt 以二进制补码写入 v 的低 bits 位。
func (s *Serializer) WriteInt(v int64, bits int) error {
	if err := checkWidth(bits); err != nil {
		return err
	}
	return s.writeBits(uint64(v), bits)
}

func (s *Serializer) WriteBool(b bool) error {
	return s.writeBool(b)
}

func (s *Serializer) WriteFloat16(f float16.Float16) error {
	return s.writeBits(uint64(f.Bits()), 16)
}

func (s *Serializer) WriteFloat32(f float32) error {
	return s.writeBits(uint64(math.Float32bits(f)), 32)
}

func (s *Serializer) WriteFloat64(f float64) error {
	return s.writeBits(math.Float64bits(f), 64)
}

// WriteBytes 逐字节写入 p，不写长度。
func (s *Serializer) WriteBytes(p []byte) error {
	if s.mode == PackByte {
		_, err := s.sink.Write(p)
		return merr.WrapErrIoFailed("write", err)
	}
	for _, c := range p {
		if err := s.writeBits(uint64(c), 8); err != nil {
			return err
		}
	}
	return nil
}

// ReadUint 读取 bits 位无符号整数。
func (d *Deserializer) ReadUint(bits int) (uint64, error) {
	if err := checkWidth(bits); err != nil {
		return 0, err
	}
	return d.readBits(bits)
}

// ReadInt 读取 bits 位并按二进制补码做符号扩展。
func (d *Deserializer) ReadInt(bits int) (int64, error) {
	if err := checkWidth(bits); err != nil {
		return 0, err
	}
	x, err := d.readBits(bits)
	if err != nil {
		return 0, err
	}
	return signExtend(x, bits), nil
}

func (d *Deserializer) ReadBool() (bool, error) {
	return d.readBool()
}

func (d *Deserializer) ReadFloat16() (float16.Float16, error) {
	x, err := d.readBits(16)
	return float16.Frombits(uint16(x)), err
}

func (d *Deserializer) ReadFloat32() (float32, error) {
	x, err := d.readBits(32)
	return math.Float32frombits(uint32(x)), err
}

func (d *Deserializer) ReadFloat64() (float64, error) {
	x, err := d.readBits(64)
	return math.Float64frombits(x), err
}

// ReadBytes 读满 p。
func (d *Deserializer) ReadBytes(p []byte) error {
	for i := range p {
		x, err := d.readBits(8)
		if err != nil {
			return err
		}
		p[i] = byte(x)
	}
	return nil
}

// PutUnsigned 以 T 的完整位宽写入 v。
func PutUnsigned[T constraints.Unsigned](s *Serializer, v T) error {
	return s.writeBits(uint64(v), typeBits[T]())
}

// PutSigned 以 T 的完整位宽写入 v。
func PutSigned[T constraints.Signed](s *Serializer, v T) error {
	return s.writeBits(uint64(v), typeBits[T]())
}

// GetUnsigned 以 T 的完整位宽读取一个无符号整数。
func GetUnsigned[T constraints.Unsigned](d *Deserializer) (T, error) {
	x, err := d.readBits(typeBits[T]())
	return T(x), err
}

// GetSigned 以 T 的完整位宽读取一个有符号整数。
func GetSigned[T constraints.Signed](d *Deserializer) (T, error) {
	bits := typeBits[T]()
	x, err := d.readBits(bits)
	return T(signExtend(x, bits)), err
}

// typeBits 返回整数类型的位宽，int 与 uint 固定为 64 位。
func typeBits[T constraints.Integer]() int {
	t := reflect.TypeFor[T]()
	switch t.Kind() {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return 64
	default:
		return t.Bits()
	}
}
