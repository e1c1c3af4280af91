package codec

import (
	"reflect"

	"github.com/x448/float16"
)

// Packed 是零大小的标记类型。匿名嵌入 Packed 的结构体为紧凑结构体：
// 在整字节会话中以位模式编码其全部字段，结束后补零到下一个字节边界；
// 在位模式会话中不做任何对齐。
type Packed struct{}

// Optional 表示可能缺失的值，编码为 1 个单位的存在标志，存在时紧跟 Value。
// 对于结构体字段，也可以使用带 `bin:"opt"` 标签的 *T。
type Optional[T any] struct {
	Value   T
	Present bool
}

// Some 返回一个存在的 Optional。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

// None 返回一个缺失的 Optional。
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get 返回 Value 以及是否存在。
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

func (Optional[T]) optionalElem() reflect.Type {
	return reflect.TypeFor[T]()
}

type optionalMarker interface {
	optionalElem() reflect.Type
}

const (
	optionalValueIndex   = 0
	optionalPresentIndex = 1
)

// Enum 由具名整数类型实现，列出所有合法的枚举值。
// 编码或解码到不在列表中的值都会返回 ErrInvalidDiscriminant。
//
//	type Color uint8
//
//	func (Color) Enumerators() []uint64 { return []uint64{0, 1, 2} }
type Enum interface {
	Enumerators() []uint64
}

// Variant 描述联合类型中的一个变体：判别值与该变体的一个样例值。
type Variant struct {
	Tag   uint64
	Value any
}

// Encodable 由需要自定义编码的类型实现，完全接管该值的写入。
// 实现中可以回调 Serializer 的 Serialize 或 Write* 方法。
type Encodable interface {
	EncodeBinary(s *Serializer) error
}

// Decodable 由需要自定义解码的类型以指针接收者实现，完全接管该值的读取。
type Decodable interface {
	DecodeBinary(d *Deserializer) error
}

var (
	encodableType      = reflect.TypeFor[Encodable]()
	decodableType      = reflect.TypeFor[Decodable]()
	enumType           = reflect.TypeFor[Enum]()
	optionalMarkerType = reflect.TypeFor[optionalMarker]()
	packedType         = reflect.TypeFor[Packed]()
	float16Type        = reflect.TypeFor[float16.Float16]()
)
