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

// Serializer 把值编码到一个 io.Writer。
//
// 一个 Serializer 只服务于一次编码会话，不能并发使用。位模式会话结束时
// 必须调用一次 Flush，否则最后不足一个字节的位会被丢弃。
type Serializer struct {
	log.Binder

	cfg    Config
	cfgErr error
	reg    *Registry

	sink *countingWriter
	bits *bitio.Writer // 位模式下非空，包括紧凑结构体的临时位模式
	mode Packing

	depth int
	buf   [8]byte
}

// NewSerializer 创建写入 w 的 Serializer。
func NewSerializer(w io.Writer, cfg Config, opts ...Option) *Serializer {
	o := newOptions(opts...)
	s := &Serializer{
		cfg:    cfg,
		cfgErr: cfg.Validate(),
		reg:    o.registry,
		mode:   cfg.Packing,
		sink: &countingWriter{
			w:       w,
			counter: metrics.CodecBytes.WithLabelValues(metrics.OpEncode, cfg.Packing.String()),
		},
	}
	if cfg.Packing == PackBit {
		s.bits = bitio.NewWriter(s.sink, cfg.Endian.bitOrder())
	}
	s.Bind(log.FieldComponent("serializer"), log.FieldEndian(cfg.Endian.String()), log.FieldPacking(cfg.Packing.String()))
	if o.logger != nil {
		s.SetLogger(o.logger)
	}
	return s
}

// Config 返回会话配置。
func (s *Serializer) Config() Config {
	return s.cfg
}

// Serialize 按会话配置编码 v。v 为指针时编码其指向的值。
// 自定义编码函数中可以递归调用 Serialize，此时沿用当前的打包模式。
func (s *Serializer) Serialize(v any) (err error) {
	if s.depth == 0 {
		defer func() {
			if err != nil {
				metrics.CodecErrors.WithLabelValues(metrics.OpEncode, merr.Kind(err)).Inc()
			}
		}()
	}
	if s.cfgErr != nil {
		return s.cfgErr
	}
	if v == nil {
		return merr.WrapErrParameterInvalidMsg("cannot serialize a nil value")
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return merr.WrapErrParameterInvalidMsg("cannot serialize a nil %s", rv.Type())
		}
		rv = rv.Elem()
	}

	sh, err := s.reg.ShapeOf(rv.Type())
	if err != nil {
		return err
	}

	s.depth++
	defer func() { s.depth-- }()
	return s.encode(sh, rv)
}

// Flush 补零输出位模式下缓存的不完整字节。整字节会话中不做任何事。
func (s *Serializer) Flush() error {
	if s.bits == nil {
		return nil
	}
	_, err := s.bits.Flush()
	return merr.WrapErrIoFailed("flush", err)
}

// Pending 返回尚未输出的位数（0..7）。
func (s *Serializer) Pending() uint8 {
	if s.bits == nil {
		return 0
	}
	return s.bits.Pending()
}

// BytesWritten 返回已经写入底层 Writer 的字节数。
func (s *Serializer) BytesWritten() int64 {
	return s.sink.n
}

// writeBits 是整数编码的唯一出口：位模式下恰好写 width 位，
// 整字节模式下写 ceil(width/8) 个字节，字节顺序由会话字节序决定。
func (s *Serializer) writeBits(v uint64, width int) error {
	if s.mode == PackBit {
		return merr.WrapErrIoFailed("write", s.bits.WriteBits(v, uint8(width)))
	}

	size := (width + 7) / 8
	v &= lowBits(width)
	for i := 0; i < size; i++ {
		s.buf[i] = byte(v >> byteShift(s.cfg.Endian, i, size))
	}
	_, err := s.sink.Write(s.buf[:size])
	return merr.WrapErrIoFailed("write", err)
}

func (s *Serializer) writeBool(b bool) error {
	if b {
		return s.writeBits(1, 1)
	}
	return s.writeBits(0, 1)
}

// withBitMode 在整字节会话中临时切换到位模式执行 fn，结束后补齐到字节边界。
func (s *Serializer) withBitMode(fn func() error) error {
	if s.mode == PackBit {
		return fn()
	}

	s.bits = bitio.NewWriter(s.sink, s.cfg.Endian.bitOrder())
	s.mode = PackBit
	defer func() {
		s.bits = nil
		s.mode = PackByte
	}()

	if err := fn(); err != nil {
		return err
	}
	_, err := s.bits.Flush()
	return merr.WrapErrIoFailed("flush", err)
}

type countingWriter struct {
	w       io.Writer
	n       int64
	counter prometheus.Counter
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.counter.Add(float64(n))
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}
