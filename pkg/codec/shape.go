package codec

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lk2023060901/bincodec-go/pkg/util/typeutil"
)

// Kind 是 Shape 的类别，集合是封闭的。
type Kind uint8

const (
	KindUint Kind = iota + 1
	KindInt
	KindFloat
	KindBool
	KindStruct
	KindUnion
	KindOptional
	KindEnum
	KindArray
	KindCustom
)

var kindNames = map[Kind]string{
	KindUint:     "uint",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindStruct:   "struct",
	KindUnion:    "union",
	KindOptional: "optional",
	KindEnum:     "enum",
	KindArray:    "array",
	KindCustom:   "custom",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Shape 描述一个类型的序列化结构，由 Registry 按 reflect.Type 构建一次并缓存。
// Shape 构建完成后只读，可以在多个会话间共享。
type Shape struct {
	Kind Kind
	Type reflect.Type

	// Bits 为整数、浮点、枚举的位宽，以及联合类型判别值的位宽。
	// 复数的 Bits 为实部与虚部之和。
	Bits int

	// Struct
	Fields []Field
	Packed bool

	// Optional 与 Array 的元素；Optional 通过 *T 或 Optional[T] 表达。
	Elem *Shape
	Len  int

	// Union
	Variants []VariantShape

	// Enum
	Enumerators []uint64

	members  typeutil.Set[uint64]
	byType   map[reflect.Type]int
	indirect bool // Optional 由 *T 表达

	enc encodeFunc
	dec decodeFunc
}

// encodeFunc 与 decodeFunc 是接管某个类型的自定义编解码。
// decodeFunc 收到的 v 总是可寻址的。
type (
	encodeFunc func(s *Serializer, v reflect.Value) error
	decodeFunc func(d *Deserializer, v reflect.Value) error
)

// Field 为结构体字段的 Shape。
type Field struct {
	Name  string
	Index int
	Shape *Shape
	// Skip 的字段不占用任何位，编码时不写、解码时不读也不修改。
	Skip bool
}

// VariantShape 为联合类型的一个变体。
type VariantShape struct {
	Tag   uint64
	Shape *Shape
}

// Signed 判断整数或枚举是否按有符号数解释。
func (s *Shape) Signed() bool {
	switch s.Kind {
	case KindInt:
		return true
	case KindEnum:
		return isSignedKind(s.Type.Kind())
	default:
		return false
	}
}

// HasHook 判断类型是否安装了自定义编码或解码。
func (s *Shape) HasHook() bool {
	return s.enc != nil || s.dec != nil
}

// BitSize 返回在打包粒度 p 下该类型编码后的位数。
// 编码长度取决于取值（Optional、Union）或由自定义编解码决定时返回 -1。
func (s *Shape) BitSize(p Packing) int {
	if s.HasHook() {
		return -1
	}
	switch s.Kind {
	case KindUint, KindInt, KindEnum:
		return unitBits(s.Bits, p)
	case KindFloat:
		if isComplexKind(s.Type.Kind()) {
			return 2 * unitBits(s.Bits/2, p)
		}
		return unitBits(s.Bits, p)
	case KindBool:
		return unitBits(1, p)
	case KindArray:
		if s.Len == 0 {
			return 0
		}
		elem := s.Elem.BitSize(p)
		if elem < 0 {
			return -1
		}
		return elem * s.Len
	case KindStruct:
		inner := p
		if s.Packed {
			inner = PackBit
		}
		total := 0
		for i := range s.Fields {
			if s.Fields[i].Skip {
				continue
			}
			n := s.Fields[i].Shape.BitSize(inner)
			if n < 0 {
				return -1
			}
			total += n
		}
		if s.Packed && p == PackByte {
			total = (total + 7) / 8 * 8
		}
		return total
	default:
		return -1
	}
}

func unitBits(bits int, p Packing) int {
	if p == PackBit {
		return bits
	}
	return (bits + 7) / 8 * 8
}

func (s *Shape) String() string {
	var sb strings.Builder
	s.format(&sb, map[*Shape]bool{})
	return sb.String()
}

func (s *Shape) format(sb *strings.Builder, seen map[*Shape]bool) {
	switch s.Kind {
	case KindUint, KindInt:
		fmt.Fprintf(sb, "%s%d", s.Kind, s.Bits)
	case KindFloat:
		if isComplexKind(s.Type.Kind()) {
			fmt.Fprintf(sb, "complex%d", s.Bits)
		} else {
			fmt.Fprintf(sb, "float%d", s.Bits)
		}
	case KindBool:
		sb.WriteString("bool")
	case KindEnum:
		fmt.Fprintf(sb, "enum %s(%d bits)", s.Type, s.Bits)
	case KindArray:
		fmt.Fprintf(sb, "[%d]", s.Len)
		s.Elem.format(sb, seen)
	case KindOptional:
		sb.WriteString("optional<")
		s.Elem.format(sb, seen)
		sb.WriteString(">")
	case KindCustom:
		fmt.Fprintf(sb, "custom %s", s.Type)
	case KindUnion:
		if seen[s] {
			sb.WriteString(s.Type.String())
			return
		}
		seen[s] = true
		fmt.Fprintf(sb, "union %s(tag %d bits){", s.Type, s.Bits)
		for i, v := range s.Variants {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%d: ", v.Tag)
			v.Shape.format(sb, seen)
		}
		sb.WriteString("}")
	case KindStruct:
		if seen[s] {
			sb.WriteString(s.Type.String())
			return
		}
		seen[s] = true
		if s.Packed {
			sb.WriteString("packed ")
		}
		fmt.Fprintf(sb, "struct %s{", s.Type)
		first := true
		for _, f := range s.Fields {
			if f.Skip {
				continue
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			f.Shape.format(sb, seen)
		}
		sb.WriteString("}")
	default:
		sb.WriteString("invalid")
	}
}

func isSignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isComplexKind(k reflect.Kind) bool {
	return k == reflect.Complex64 || k == reflect.Complex128
}
