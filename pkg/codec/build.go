package codec

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
	"github.com/lk2023060901/bincodec-go/pkg/util/typeutil"
)

const tagName = "bin"

// fieldTag 为解析后的 `bin:"..."` 标签。
type fieldTag struct {
	skip    bool
	opt     bool
	bits    int
	hasBits bool
}

func parseTag(tag string) (fieldTag, error) {
	var ft fieldTag
	if tag == "" {
		return ft, nil
	}
	if tag == "-" {
		ft.skip = true
		return ft, nil
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "opt":
			ft.opt = true
		case strings.HasPrefix(part, "bits="):
			n, err := strconv.Atoi(strings.TrimPrefix(part, "bits="))
			if err != nil || n < 0 || n > 64 {
				return ft, fmt.Errorf("invalid bit width %q", part)
			}
			ft.bits, ft.hasBits = n, true
		default:
			return ft, fmt.Errorf("unknown tag option %q", part)
		}
	}
	return ft, nil
}

// builder 通过反射为一个根类型构建 Shape，构建失败后整个 builder 被丢弃。
// shapes 同时记录已完成和正在构建的类型，使递归类型共享同一个 *Shape。
type builder struct {
	reg    *Registry
	shapes map[reflect.Type]*Shape
}

func newBuilder(reg *Registry) *builder {
	return &builder{
		reg:    reg,
		shapes: make(map[reflect.Type]*Shape),
	}
}

func (b *builder) build(t reflect.Type) (*Shape, error) {
	if s, ok := b.shapes[t]; ok {
		return s, nil
	}
	if s, ok := b.reg.cached(t); ok {
		return s, nil
	}

	enc, dec := b.reg.hooksFor(t)
	if enc != nil && dec != nil {
		s := &Shape{Kind: KindCustom, Type: t, enc: enc, dec: dec}
		b.shapes[t] = s
		return s, nil
	}

	s, err := b.buildGeneric(t)
	if err != nil {
		if enc != nil || dec != nil {
			err = errors.Wrapf(err, "%s overrides only one direction, the other needs a generic shape", t)
		}
		return nil, err
	}
	s.enc, s.dec = enc, dec
	b.shapes[t] = s
	return s, nil
}

func (b *builder) buildGeneric(t reflect.Type) (*Shape, error) {
	if t == float16Type {
		return &Shape{Kind: KindFloat, Type: t, Bits: 16}, nil
	}
	if isIntegerKind(t.Kind()) && reflect.PointerTo(t).Implements(enumType) {
		return b.buildEnum(t)
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Shape{Kind: KindBool, Type: t, Bits: 1}, nil
	case reflect.Int:
		return &Shape{Kind: KindInt, Type: t, Bits: 64}, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Shape{Kind: KindInt, Type: t, Bits: t.Bits()}, nil
	case reflect.Uint:
		return &Shape{Kind: KindUint, Type: t, Bits: 64}, nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Shape{Kind: KindUint, Type: t, Bits: t.Bits()}, nil
	case reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return &Shape{Kind: KindFloat, Type: t, Bits: t.Bits()}, nil
	case reflect.Array:
		elem, err := b.build(t.Elem())
		if err != nil {
			return nil, errors.Wrapf(err, "element of %s", t)
		}
		return &Shape{Kind: KindArray, Type: t, Elem: elem, Len: t.Len()}, nil
	case reflect.Struct:
		if t.Implements(optionalMarkerType) {
			return b.buildOptional(t)
		}
		return b.buildStruct(t)
	case reflect.Interface:
		return b.buildUnion(t)
	case reflect.Pointer:
		return nil, merr.WrapErrUnsupportedShape(t.String(), "pointer values need a `bin:\"opt\"` tag or a custom codec")
	case reflect.Uintptr, reflect.UnsafePointer:
		return nil, merr.WrapErrUnsupportedShape(t.String(), "address-valued types need a custom codec")
	case reflect.Slice, reflect.String, reflect.Map:
		return nil, merr.WrapErrUnsupportedShape(t.String(), "variable-length types carry no static length, use an array or a custom codec")
	default:
		return nil, merr.WrapErrUnsupportedShape(t.String(), "type has no binary representation")
	}
}

func (b *builder) buildEnum(t reflect.Type) (*Shape, error) {
	values := reflect.New(t).Interface().(Enum).Enumerators()
	if len(values) == 0 {
		return nil, merr.WrapErrUnsupportedShape(t.String(), "enum declares no enumerators")
	}
	members := typeutil.NewSet(values...)
	bits := t.Bits()
	if t.Kind() == reflect.Int || t.Kind() == reflect.Uint {
		bits = 64
	}
	return &Shape{
		Kind:        KindEnum,
		Type:        t,
		Bits:        bits,
		Enumerators: typeutil.Sorted(members),
		members:     members,
	}, nil
}

func (b *builder) buildOptional(t reflect.Type) (*Shape, error) {
	elem, err := b.build(t.Field(optionalValueIndex).Type)
	if err != nil {
		return nil, errors.Wrapf(err, "payload of %s", t)
	}
	return &Shape{Kind: KindOptional, Type: t, Elem: elem}, nil
}

func (b *builder) buildStruct(t reflect.Type) (*Shape, error) {
	s := &Shape{Kind: KindStruct, Type: t}
	b.shapes[t] = s

	s.Fields = make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		field := Field{Name: sf.Name, Index: i}

		if sf.Anonymous && sf.Type == packedType {
			s.Packed = true
			field.Skip = true
			s.Fields = append(s.Fields, field)
			continue
		}

		tag, err := parseTag(sf.Tag.Get(tagName))
		if err != nil {
			return nil, merr.WrapErrUnsupportedShape(t.String(), err.Error(), "field "+sf.Name)
		}

		switch {
		case tag.skip, !sf.IsExported(), tag.hasBits && tag.bits == 0:
			field.Skip = true
		case sf.Type.Size() == 0 && !b.reg.hasHooks(sf.Type):
			field.Skip = true
		default:
			fs, err := b.fieldShape(sf.Type, tag)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s.%s", t, sf.Name)
			}
			field.Shape = fs
		}
		s.Fields = append(s.Fields, field)
	}
	return s, nil
}

func (b *builder) fieldShape(t reflect.Type, tag fieldTag) (*Shape, error) {
	if tag.opt {
		if t.Kind() != reflect.Pointer {
			return nil, merr.WrapErrUnsupportedShape(t.String(), "`opt` tag requires a pointer field")
		}
		elem, err := b.build(t.Elem())
		if err != nil {
			return nil, err
		}
		if tag.hasBits {
			if elem, err = withBits(elem, tag.bits); err != nil {
				return nil, err
			}
		}
		return &Shape{Kind: KindOptional, Type: t, Elem: elem, indirect: true}, nil
	}

	s, err := b.build(t)
	if err != nil {
		return nil, err
	}
	if tag.hasBits {
		return withBits(s, tag.bits)
	}
	return s, nil
}

func (b *builder) buildUnion(t reflect.Type) (*Shape, error) {
	def, ok := b.reg.union(t)
	if !ok {
		return nil, merr.WrapErrUnsupportedShape(t.String(), "interface is not a registered union, register it with RegisterUnion or install a custom codec")
	}

	s := &Shape{
		Kind:     KindUnion,
		Type:     t,
		Bits:     def.tagBits,
		Variants: make([]VariantShape, 0, len(def.variants)),
		byType:   make(map[reflect.Type]int, len(def.variants)),
	}
	b.shapes[t] = s

	for i, v := range def.variants {
		vs, err := b.build(v.typ)
		if err != nil {
			return nil, errors.Wrapf(err, "variant %d of %s", v.tag, t)
		}
		s.Variants = append(s.Variants, VariantShape{Tag: v.tag, Shape: vs})
		s.byType[v.typ] = i
	}
	return s, nil
}

// withBits 返回把整数叶子位宽收窄为 bits 的 Shape 副本，数组与 Optional 向元素传递。
func withBits(s *Shape, bits int) (*Shape, error) {
	switch s.Kind {
	case KindUint, KindInt, KindEnum:
		if s.HasHook() {
			return nil, merr.WrapErrUnsupportedShape(s.Type.String(), "bits tag cannot narrow a type with a custom codec")
		}
		if bits > s.Bits {
			return nil, merr.WrapErrUnsupportedShape(s.Type.String(), fmt.Sprintf("bits=%d exceeds the %d-bit type", bits, s.Bits))
		}
		c := *s
		c.Bits = bits
		return &c, nil
	case KindArray, KindOptional:
		elem, err := withBits(s.Elem, bits)
		if err != nil {
			return nil, err
		}
		c := *s
		c.Elem = elem
		return &c, nil
	default:
		return nil, merr.WrapErrUnsupportedShape(s.Type.String(), "bits tag applies only to integers and enums")
	}
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
