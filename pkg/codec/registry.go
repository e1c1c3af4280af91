package codec

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lk2023060901/bincodec-go/pkg/log"
	"github.com/lk2023060901/bincodec-go/pkg/metrics"
	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
	"github.com/lk2023060901/bincodec-go/pkg/util/typeutil"
)

type unionVariant struct {
	tag uint64
	typ reflect.Type
}

type unionDef struct {
	tagBits  int
	variants []unionVariant
}

type codecDef struct {
	enc encodeFunc
	dec decodeFunc
}

// Registry 保存联合类型与自定义编解码的注册信息，并缓存按类型构建的 Shape。
//
// 注册应当在程序启动阶段完成；每次注册都会清空 Shape 缓存。
// Registry 可以被多个会话并发使用。
type Registry struct {
	mu     sync.RWMutex
	unions map[reflect.Type]unionDef
	codecs map[reflect.Type]codecDef

	shapes sync.Map // reflect.Type -> *Shape
	group  singleflight.Group
	gen    atomic.Uint64
}

// NewRegistry 创建一个空的 Registry。
func NewRegistry() *Registry {
	return &Registry{
		unions: make(map[reflect.Type]unionDef),
		codecs: make(map[reflect.Type]codecDef),
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry 返回未指定 WithRegistry 时使用的全局 Registry。
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// ShapeOf 返回 t 的 Shape，首次调用时构建并缓存。
// 不受支持的类型返回 ErrUnsupportedShape，错误不会被缓存。
func (r *Registry) ShapeOf(t reflect.Type) (*Shape, error) {
	if t == nil {
		return nil, merr.WrapErrParameterInvalidMsg("nil type has no shape")
	}
	if s, ok := r.cached(t); ok {
		return s, nil
	}

	gen := r.gen.Load()
	v, err, _ := r.group.Do(fmt.Sprintf("%p", t), func() (any, error) {
		if s, ok := r.cached(t); ok {
			return s, nil
		}
		s, err := newBuilder(r).build(t)
		if err != nil {
			log.Warn("reject shape", log.FieldType(t.String()), zap.Error(err))
			return nil, err
		}
		if r.gen.Load() == gen {
			r.shapes.Store(t, s)
		}
		metrics.CodecShapesBuilt.Inc()
		log.Debug("shape built", log.FieldType(t.String()), log.FieldKind(s.Kind.String()), zap.Stringer("shape", s))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Shape), nil
}

// RegisterUnion 把接口类型 iface 注册为联合类型。
// 判别值以 tagBits 位无符号整数编码，变体的判别值与具体类型都必须唯一，
// 且变体不能是指针类型。注册时立即构建并校验整个联合类型的 Shape。
func (r *Registry) RegisterUnion(iface reflect.Type, tagBits int, variants ...Variant) error {
	if iface == nil || iface.Kind() != reflect.Interface {
		return merr.WrapErrParameterInvalidMsg("union type must be an interface, got %v", iface)
	}
	if tagBits < 1 || tagBits > 64 {
		return merr.WrapErrParameterInvalidRange(1, 64, tagBits, "union tag bits")
	}
	if len(variants) == 0 {
		return merr.WrapErrUnsupportedShape(iface.String(), "union declares no variants")
	}

	def := unionDef{tagBits: tagBits, variants: make([]unionVariant, 0, len(variants))}
	tags := typeutil.NewSet[uint64]()
	types := typeutil.NewSet[reflect.Type]()
	for _, v := range variants {
		if v.Value == nil {
			return merr.WrapErrUnsupportedShape(iface.String(), fmt.Sprintf("variant %d has no sample value", v.Tag))
		}
		vt := reflect.TypeOf(v.Value)
		switch {
		case vt.Kind() == reflect.Pointer:
			return merr.WrapErrUnsupportedShape(iface.String(), fmt.Sprintf("variant %d is the pointer type %s", v.Tag, vt))
		case !vt.Implements(iface):
			return merr.WrapErrUnsupportedShape(iface.String(), fmt.Sprintf("variant %d type %s does not implement the union", v.Tag, vt))
		case tagBits < 64 && v.Tag >= uint64(1)<<tagBits:
			return merr.WrapErrUnsupportedShape(iface.String(), fmt.Sprintf("discriminant %d does not fit in %d bits", v.Tag, tagBits))
		case !tags.TryInsert(v.Tag):
			return merr.WrapErrUnsupportedShape(iface.String(), fmt.Sprintf("duplicate discriminant %d", v.Tag))
		case !types.TryInsert(vt):
			return merr.WrapErrUnsupportedShape(iface.String(), fmt.Sprintf("duplicate variant type %s", vt))
		}
		def.variants = append(def.variants, unionVariant{tag: v.Tag, typ: vt})
	}

	r.mu.Lock()
	prev, existed := r.unions[iface]
	r.unions[iface] = def
	r.mu.Unlock()
	r.invalidate()

	if _, err := r.ShapeOf(iface); err != nil {
		r.mu.Lock()
		if existed {
			r.unions[iface] = prev
		} else {
			delete(r.unions, iface)
		}
		r.mu.Unlock()
		r.invalidate()
		return err
	}
	return nil
}

func (r *Registry) registerCodec(t reflect.Type, def codecDef) error {
	if def.enc == nil && def.dec == nil {
		return merr.WrapErrParameterInvalidMsg("codec for %s installs neither encoder nor decoder", t)
	}
	r.mu.Lock()
	r.codecs[t] = def
	r.mu.Unlock()
	r.invalidate()
	return nil
}

// Reset 清空所有注册信息和缓存。
func (r *Registry) Reset() {
	r.mu.Lock()
	r.unions = make(map[reflect.Type]unionDef)
	r.codecs = make(map[reflect.Type]codecDef)
	r.mu.Unlock()
	r.invalidate()
}

func (r *Registry) invalidate() {
	r.gen.Inc()
	r.shapes.Clear()
}

func (r *Registry) cached(t reflect.Type) (*Shape, bool) {
	v, ok := r.shapes.Load(t)
	if !ok {
		return nil, false
	}
	return v.(*Shape), true
}

func (r *Registry) union(t reflect.Type) (unionDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.unions[t]
	return def, ok
}

// hooksFor 返回 t 的自定义编码/解码函数。
// 注册的编解码优先于类型自身实现的 Encodable / Decodable，且按方向分别生效。
func (r *Registry) hooksFor(t reflect.Type) (encodeFunc, decodeFunc) {
	var enc encodeFunc
	var dec decodeFunc

	r.mu.RLock()
	def, ok := r.codecs[t]
	r.mu.RUnlock()
	if ok {
		enc, dec = def.enc, def.dec
	}

	if t.Kind() == reflect.Interface {
		return enc, dec
	}
	pt := reflect.PointerTo(t)
	if enc == nil && pt.Implements(encodableType) {
		enc = methodEncode
	}
	if dec == nil && pt.Implements(decodableType) {
		dec = methodDecode
	}
	return enc, dec
}

func (r *Registry) hasHooks(t reflect.Type) bool {
	enc, dec := r.hooksFor(t)
	return enc != nil || dec != nil
}

// RegisterUnion 在默认 Registry 中把接口类型 U 注册为联合类型。
func RegisterUnion[U any](tagBits int, variants ...Variant) error {
	return RegisterUnionIn[U](defaultRegistry, tagBits, variants...)
}

// RegisterUnionIn 在 r 中把接口类型 U 注册为联合类型。
func RegisterUnionIn[U any](r *Registry, tagBits int, variants ...Variant) error {
	return r.RegisterUnion(reflect.TypeFor[U](), tagBits, variants...)
}

// RegisterCodec 在默认 Registry 中为 T 安装自定义编解码，enc 与 dec 可以有一个为 nil。
func RegisterCodec[T any](enc func(*Serializer, *T) error, dec func(*Deserializer, *T) error) error {
	return RegisterCodecIn(defaultRegistry, enc, dec)
}

// RegisterCodecIn 在 r 中为 T 安装自定义编解码。
func RegisterCodecIn[T any](r *Registry, enc func(*Serializer, *T) error, dec func(*Deserializer, *T) error) error {
	var def codecDef
	if enc != nil {
		def.enc = func(s *Serializer, v reflect.Value) error {
			return enc(s, addressable(v).Interface().(*T))
		}
	}
	if dec != nil {
		def.dec = func(d *Deserializer, v reflect.Value) error {
			return dec(d, v.Addr().Interface().(*T))
		}
	}
	return r.registerCodec(reflect.TypeFor[T](), def)
}

func methodEncode(s *Serializer, v reflect.Value) error {
	return addressable(v).Interface().(Encodable).EncodeBinary(s)
}

func methodDecode(d *Deserializer, v reflect.Value) error {
	return v.Addr().Interface().(Decodable).DecodeBinary(d)
}

// addressable 返回指向 v 的指针；v 不可寻址时指向它的一个副本。
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}
