package codec

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/x448/float16"
)

var (
	bigByte    = Config{Endian: BigEndian, Packing: PackByte}
	littleByte = Config{Endian: LittleEndian, Packing: PackByte}
	bigBit     = Config{Endian: BigEndian, Packing: PackBit}
	littleBit  = Config{Endian: LittleEndian, Packing: PackBit}

	allConfigs = []Config{bigByte, littleByte, bigBit, littleBit}
)

// Color 是无符号枚举。
type Color uint8

const (
	ColorRed Color = iota + 1
	ColorGreen
	ColorBlue
)

func (Color) Enumerators() []uint64 {
	return []uint64{uint64(ColorRed), uint64(ColorGreen), uint64(ColorBlue)}
}

// Level 是有符号枚举。
type Level int8

var levels = []Level{-1, 0, 1}

func (Level) Enumerators() []uint64 {
	out := make([]uint64, 0, len(levels))
	for _, l := range levels {
		out = append(out, uint64(l))
	}
	return out
}

type Message interface {
	isMessage()
}

type Ping struct{}

type Pong struct {
	Seq uint16
}

func (Ping) isMessage() {}
func (Pong) isMessage() {}

type packedPair struct {
	Packed
	F int8  `bin:"bits=3"`
	U uint8 `bin:"bits=2"`
}

type pairThenByte struct {
	A packedPair
	B uint8
}

type bitFields struct {
	A uint8 `bin:"bits=3"`
	B uint8 `bin:"bits=5"`
}

type packedHeader struct {
	Packed
	Version uint8 `bin:"bits=3"`
	Kind    uint8 `bin:"bits=5"`
}

type telemetry struct {
	ID      uint32
	Delta   int16
	Small   int8 `bin:"bits=5"`
	Flags   [3]bool
	Temp    float32
	Precise float64
	Half    float16.Float16
	Phase   complex64
	Wave    complex128
	Mode    Color
	Trend   Level `bin:"bits=4"`
	Extra   Optional[uint16]
	Next    *uint8 `bin:"opt"`
	Header  packedHeader
	Msg     Message
	Wide    uint64
	Neg     int64
	Plain   int
	Grid    [2][2]uint8 `bin:"bits=4"`
}

type skipping struct {
	A       uint8
	Cache   uint32 `bin:"-"`
	Zero    uint8  `bin:"bits=0"`
	Empty   struct{}
	private uint8
	B       uint8
}

type Node struct {
	V    uint8
	Next *Node `bin:"opt"`
}

// Version 自定义了完整的编解码：主次版本号各占半个字节。
type Version struct {
	Major, Minor uint8
}

func (v Version) EncodeBinary(s *Serializer) error {
	return s.WriteUint(uint64(v.Major)<<4|uint64(v.Minor&0x0F), 8)
}

func (v *Version) DecodeBinary(d *Deserializer) error {
	x, err := d.ReadUint(8)
	if err != nil {
		return err
	}
	v.Major, v.Minor = uint8(x>>4), uint8(x&0x0F)
	return nil
}

type versioned struct {
	V    Version
	N    uint8
	Hist [2]Version
}

// Framed 写入魔数后回调通用编码器处理负载。
type Framed struct {
	Payload Pong
}

const frameMagic = 0xCAFE

func (f Framed) EncodeBinary(s *Serializer) error {
	if err := s.WriteUint(frameMagic, 16); err != nil {
		return err
	}
	return s.Serialize(f.Payload)
}

func (f *Framed) DecodeBinary(d *Deserializer) error {
	magic, err := d.ReadUint(16)
	if err != nil {
		return err
	}
	if magic != frameMagic {
		return errors.Newf("bad magic %#x", magic)
	}
	return d.DeserializeInto(&f.Payload)
}

// Lenient 只覆盖解码方向，编码走通用规则。
type Lenient uint8

func (l *Lenient) DecodeBinary(d *Deserializer) error {
	x, err := d.ReadUint(8)
	if err != nil {
		return err
	}
	*l = Lenient(min(x, 100))
	return nil
}

// Blob 含有切片，只能通过注册的编解码处理。
type Blob struct {
	Data []byte
}

func encodeBlob(s *Serializer, b *Blob) error {
	if err := s.WriteUint(uint64(len(b.Data)), 8); err != nil {
		return err
	}
	return s.WriteBytes(b.Data)
}

func decodeBlob(d *Deserializer, b *Blob) error {
	n, err := d.ReadUint(8)
	if err != nil {
		return err
	}
	b.Data = make([]byte, n)
	return d.ReadBytes(b.Data)
}

type withBlob struct {
	Tag  uint8
	Blob Blob
}

func newTestRegistry() *Registry {
	reg := NewRegistry()
	if err := reg.RegisterUnion(reflect.TypeFor[Message](), 8,
		Variant{Tag: 1, Value: Ping{}},
		Variant{Tag: 2, Value: Pong{}},
	); err != nil {
		panic(err)
	}
	return reg
}

// Pang 实现了 Message 但没有注册为变体。
type Pang struct{}

func (Pang) isMessage() {}

// Garbled 的负载无法编码。
type Garbled struct {
	Text string
}

func (Garbled) isMessage() {}

var errBoom = errors.New("boom")

// Broken 的自定义编码总是失败。
type Broken struct{}

func (Broken) EncodeBinary(*Serializer) error {
	return errBoom
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}
