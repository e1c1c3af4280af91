package codec

import (
	"io"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/bincodec-go/pkg/bitio"
	"github.com/lk2023060901/bincodec-go/pkg/log"
	"github.com/lk2023060901/bincodec-go/pkg/metrics"
	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
)

// Deserializer 从一个 io.Reader 解码值，与 Serializer 对称。
//
// 解码失败时目标值可能已被部分覆盖，调用方应当丢弃它。
// Deserializer 不能并发使用。
type Deserializer struct {
	log.Binder

	cfg    Config
	cfgErr error
	reg    *Registry

	source *countingReader
	bits   *bitio.Reader
	mode   Packing

	depth int
	buf   [8]byte
}

// NewDeserializer 创建读取 r 的 Deserializer。
func NewDeserializer(r io.Reader, cfg Config, opts ...Option) *Deserializer {
	o := newOptions(opts...)
	d := &Deserializer{
		cfg:    cfg,
		cfgErr: cfg.Validate(),
		reg:    o.registry,
		mode:   cfg.Packing,
		source: &countingReader{
			r:       r,
			counter: metrics.CodecBytes.WithLabelValues(metrics.OpDecode, cfg.Packing.String()),
		},
	}
	if cfg.Packing == PackBit {
		d.bits = bitio.NewReader(d.source, cfg.Endian.bitOrder())
	}
	d.Bind(log.FieldComponent("deserializer"), log.FieldEndian(cfg.Endian.String()), log.FieldPacking(cfg.Packing.String()))
	if o.logger != nil {
		d.SetLogger(o.logger)
	}
	return d
}

// Config 返回会话配置。
func (d *Deserializer) Config() Config {
	return d.cfg
}

// DeserializeInto 就地解码到 dst 指向的值，dst 必须是非 nil 指针。
// dst 指向的值本身是指针时，nil 会先被分配。
func (d *Deserializer) DeserializeInto(dst any) (err error) {
	if d.depth == 0 {
		defer func() {
			if err != nil {
				metrics.CodecErrors.WithLabelValues(metrics.OpDecode, merr.Kind(err)).Inc()
			}
		}()
	}
	if d.cfgErr != nil {
		return d.cfgErr
	}

	rv := reflect.ValueOf(dst)
	if dst == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return merr.WrapErrParameterInvalidMsg("decode destination must be a non-nil pointer, got %T", dst)
	}
	elem := rv.Elem()
	if elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			elem.Set(reflect.New(elem.Type().Elem()))
		}
		elem = elem.Elem()
	}

	sh, err := d.reg.ShapeOf(elem.Type())
	if err != nil {
		return err
	}

	d.depth++
	defer func() { d.depth-- }()
	return d.decode(sh, elem)
}

// Deserialize 解码并返回一个新的 T。
func Deserialize[T any](d *Deserializer) (T, error) {
	var out T
	err := d.DeserializeInto(&out)
	return out, err
}

// Align 丢弃位模式下当前字节中尚未读取的位，返回丢弃的位数。
func (d *Deserializer) Align() uint8 {
	if d.bits == nil {
		return 0
	}
	return d.bits.Align()
}

// BytesRead 返回已经从底层 Reader 消费的字节数。
func (d *Deserializer) BytesRead() int64 {
	return d.source.n
}

// readBits 是 writeBits 的镜像。
func (d *Deserializer) readBits(width int) (uint64, error) {
	if d.mode == PackBit {
		v, err := d.bits.ReadBits(uint8(width))
		if err != nil {
			return 0, merr.WrapErrStream("read", err)
		}
		return v, nil
	}

	size := (width + 7) / 8
	if _, err := io.ReadFull(d.source, d.buf[:size]); err != nil {
		return 0, merr.WrapErrStream("read", err)
	}
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(d.buf[i]) << byteShift(d.cfg.Endian, i, size)
	}
	return v & lowBits(width), nil
}

// readBool 按 1 位无符号整数读取；整字节模式下只取该字节的最低位。
func (d *Deserializer) readBool() (bool, error) {
	v, err := d.readBits(1)
	return v != 0, err
}

// withBitMode 在整字节会话中临时切换到位模式执行 fn，结束后丢弃当前字节剩余的填充位。
func (d *Deserializer) withBitMode(fn func() error) error {
	if d.mode == PackBit {
		return fn()
	}

	d.bits = bitio.NewReader(d.source, d.cfg.Endian.bitOrder())
	d.mode = PackBit
	defer func() {
		d.bits.Align()
		d.bits = nil
		d.mode = PackByte
	}()
	return fn()
}

type countingReader struct {
	r       io.Reader
	n       int64
	counter prometheus.Counter
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	c.counter.Add(float64(n))
	return n, err
}
