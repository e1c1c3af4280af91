package codec

import (
	"math"
	"reflect"

	"go.uber.org/zap"

	"github.com/lk2023060901/bincodec-go/pkg/log"
	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
)

// decode 按 Shape 递归解码到可寻址的 v。每一层都先检查自定义解码。
func (d *Deserializer) decode(sh *Shape, v reflect.Value) error {
	if sh.dec != nil {
		return merr.WrapErrCustomHook(sh.Type.String(), sh.dec(d, v))
	}

	switch sh.Kind {
	case KindUint:
		x, err := d.readBits(sh.Bits)
		if err != nil {
			return err
		}
		v.SetUint(x)
		return nil
	case KindInt:
		x, err := d.readBits(sh.Bits)
		if err != nil {
			return err
		}
		v.SetInt(signExtend(x, sh.Bits))
		return nil
	case KindBool:
		b, err := d.readBool()
		if err != nil {
			return err
		}
		v.SetBool(b)
		return nil
	case KindFloat:
		return d.decodeFloat(v)
	case KindEnum:
		return d.decodeEnum(sh, v)
	case KindArray:
		for i := 0; i < sh.Len; i++ {
			if err := d.decode(sh.Elem, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case KindStruct:
		if sh.Packed {
			return d.withBitMode(func() error { return d.decodeFields(sh, v) })
		}
		return d.decodeFields(sh, v)
	case KindOptional:
		return d.decodeOptional(sh, v)
	case KindUnion:
		return d.decodeUnion(sh, v)
	default:
		return merr.WrapErrUnsupportedShape(sh.Type.String(), "no decoder for "+sh.Kind.String())
	}
}

func (d *Deserializer) decodeFields(sh *Shape, v reflect.Value) error {
	for i := range sh.Fields {
		f := &sh.Fields[i]
		if f.Skip {
			continue
		}
		if err := d.decode(f.Shape, v.Field(f.Index)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deserializer) decodeFloat(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Uint16: // float16.Float16
		x, err := d.readBits(16)
		if err != nil {
			return err
		}
		v.SetUint(x)
	case reflect.Float32:
		x, err := d.readBits(32)
		if err != nil {
			return err
		}
		setFloat32(v, 0, uint32(x))
	case reflect.Float64:
		x, err := d.readBits(64)
		if err != nil {
			return err
		}
		v.SetFloat(math.Float64frombits(x))
	case reflect.Complex64:
		re, err := d.readBits(32)
		if err != nil {
			return err
		}
		im, err := d.readBits(32)
		if err != nil {
			return err
		}
		setFloat32(v, 0, uint32(re))
		setFloat32(v, 1, uint32(im))
	case reflect.Complex128:
		re, err := d.readBits(64)
		if err != nil {
			return err
		}
		im, err := d.readBits(64)
		if err != nil {
			return err
		}
		v.SetComplex(complex(math.Float64frombits(re), math.Float64frombits(im)))
	default:
		return merr.WrapErrUnsupportedShape(v.Type().String(), "not a float")
	}
	return nil
}

func (d *Deserializer) decodeEnum(sh *Shape, v reflect.Value) error {
	x, err := d.readBits(sh.Bits)
	if err != nil {
		return err
	}
	signed := sh.Signed()
	if signed {
		x = uint64(signExtend(x, sh.Bits))
	}
	if !sh.members.Contain(x) {
		return d.invalidDiscriminant(sh, x, "value is not a declared enumerator")
	}
	if signed {
		v.SetInt(int64(x))
	} else {
		v.SetUint(x)
	}
	return nil
}

// decodeOptional 读取存在标志：缺失时把 v 重置为零值且不再读取；
// 存在时分配新的负载并解码到其中。
func (d *Deserializer) decodeOptional(sh *Shape, v reflect.Value) error {
	present, err := d.readBool()
	if err != nil {
		return err
	}
	if !present {
		v.SetZero()
		return nil
	}

	if sh.indirect {
		p := reflect.New(sh.Type.Elem())
		if err := d.decode(sh.Elem, p.Elem()); err != nil {
			return err
		}
		v.Set(p)
		return nil
	}
	v.SetZero()
	v.Field(optionalPresentIndex).SetBool(true)
	return d.decode(sh.Elem, v.Field(optionalValueIndex))
}

// decodeUnion 读取判别值并按注册顺序线性匹配变体。
func (d *Deserializer) decodeUnion(sh *Shape, v reflect.Value) error {
	tag, err := d.readBits(sh.Bits)
	if err != nil {
		return err
	}
	for _, variant := range sh.Variants {
		if variant.Tag != tag {
			continue
		}
		nv := reflect.New(variant.Shape.Type).Elem()
		if err := d.decode(variant.Shape, nv); err != nil {
			return err
		}
		v.Set(nv)
		return nil
	}
	return d.invalidDiscriminant(sh, tag, "no variant matches")
}

func (d *Deserializer) invalidDiscriminant(sh *Shape, x uint64, reason string) error {
	d.Logger().WithRateGroup("codec.invalid_discriminant", 1, 60).
		RatedWarn(1, "invalid discriminant",
			log.FieldType(sh.Type.String()),
			log.FieldKind(sh.Kind.String()),
			zap.Uint64("discriminant", x),
			zap.Int64("offset", d.BytesRead()))
	return merr.WrapErrInvalidDiscriminant(sh.Type.String(), x, reason)
}
