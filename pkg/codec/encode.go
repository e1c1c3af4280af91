package codec

import (
	"math"
	"reflect"

	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
)

// encode 按 Shape 递归编码 v。每一层都先检查自定义编码。
func (s *Serializer) encode(sh *Shape, v reflect.Value) error {
	if sh.enc != nil {
		return merr.WrapErrCustomHook(sh.Type.String(), sh.enc(s, v))
	}

	switch sh.Kind {
	case KindUint:
		return s.writeBits(v.Uint(), sh.Bits)
	case KindInt:
		return s.writeBits(uint64(v.Int()), sh.Bits)
	case KindBool:
		return s.writeBool(v.Bool())
	case KindFloat:
		return s.encodeFloat(v)
	case KindEnum:
		raw := enumRaw(v)
		if !sh.members.Contain(raw) {
			return merr.WrapErrInvalidDiscriminant(sh.Type.String(), raw, "value is not a declared enumerator")
		}
		return s.writeBits(raw, sh.Bits)
	case KindArray:
		for i := 0; i < sh.Len; i++ {
			if err := s.encode(sh.Elem, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case KindStruct:
		if sh.Packed {
			return s.withBitMode(func() error { return s.encodeFields(sh, v) })
		}
		return s.encodeFields(sh, v)
	case KindOptional:
		return s.encodeOptional(sh, v)
	case KindUnion:
		return s.encodeUnion(sh, v)
	default:
		return merr.WrapErrUnsupportedShape(sh.Type.String(), "no encoder for "+sh.Kind.String())
	}
}

func (s *Serializer) encodeFields(sh *Shape, v reflect.Value) error {
	for i := range sh.Fields {
		f := &sh.Fields[i]
		if f.Skip {
			continue
		}
		if err := s.encode(f.Shape, v.Field(f.Index)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) encodeFloat(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Uint16: // float16.Float16
		return s.writeBits(v.Uint(), 16)
	case reflect.Float32:
		return s.writeBits(uint64(float32Bits(v, 0)), 32)
	case reflect.Float64:
		return s.writeBits(math.Float64bits(v.Float()), 64)
	case reflect.Complex64:
		if err := s.writeBits(uint64(float32Bits(v, 0)), 32); err != nil {
			return err
		}
		return s.writeBits(uint64(float32Bits(v, 1)), 32)
	case reflect.Complex128:
		c := v.Complex()
		if err := s.writeBits(math.Float64bits(real(c)), 64); err != nil {
			return err
		}
		return s.writeBits(math.Float64bits(imag(c)), 64)
	default:
		return merr.WrapErrUnsupportedShape(v.Type().String(), "not a float")
	}
}

func (s *Serializer) encodeOptional(sh *Shape, v reflect.Value) error {
	var (
		present bool
		payload reflect.Value
	)
	if sh.indirect {
		present = !v.IsNil()
		if present {
			payload = v.Elem()
		}
	} else {
		present = v.Field(optionalPresentIndex).Bool()
		payload = v.Field(optionalValueIndex)
	}

	if err := s.writeBool(present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	return s.encode(sh.Elem, payload)
}

func (s *Serializer) encodeUnion(sh *Shape, v reflect.Value) error {
	if v.IsNil() {
		return merr.WrapErrInvalidDiscriminant(sh.Type.String(), "nil", "nil union value selects no variant")
	}
	concrete := v.Elem()
	idx, ok := sh.byType[concrete.Type()]
	if !ok {
		return merr.WrapErrInvalidDiscriminant(sh.Type.String(), concrete.Type().String(), "type is not a registered variant")
	}

	variant := sh.Variants[idx]
	if err := s.writeBits(variant.Tag, sh.Bits); err != nil {
		return err
	}
	return s.encode(variant.Shape, concrete)
}
