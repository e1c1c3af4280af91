package codec

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
)

type HookSuite struct {
	suite.Suite
	reg *Registry
}

func (s *HookSuite) SetupTest() {
	s.reg = newTestRegistry()
}

func (s *HookSuite) marshal(v any, cfg Config) []byte {
	data, err := Marshal(v, cfg, WithRegistry(s.reg))
	s.Require().NoError(err)
	return data
}

func (s *HookSuite) TestMethodHooksAtEveryLevel() {
	in := versioned{V: Version{1, 2}, N: 3, Hist: [2]Version{{3, 4}, {5, 6}}}
	for _, cfg := range allConfigs {
		data := s.marshal(in, cfg)
		s.Equal([]byte{0x12, 0x03, 0x34, 0x56}, data, cfg.String())

		out, err := Unmarshal[versioned](data, cfg, WithRegistry(s.reg))
		s.Require().NoError(err)
		s.Equal(in, out)
	}

	sh, err := s.reg.ShapeOf(reflect.TypeFor[Version]())
	s.Require().NoError(err)
	s.Equal(KindCustom, sh.Kind)
	s.True(sh.HasHook())
	s.Equal(-1, sh.BitSize(PackByte))
}

func (s *HookSuite) TestHookCallsBackIntoEngine() {
	in := Framed{Payload: Pong{Seq: 7}}
	data := s.marshal(in, bigByte)
	s.Equal([]byte{0xCA, 0xFE, 0x00, 0x07}, data)

	out, err := Unmarshal[Framed](data, bigByte, WithRegistry(s.reg))
	s.Require().NoError(err)
	s.Equal(in, out)

	// 位模式下回调沿用当前打包模式
	data = s.marshal(in, littleBit)
	s.Equal([]byte{0xFE, 0xCA, 0x07, 0x00}, data)
}

func (s *HookSuite) TestHookErrorsPropagateUnchanged() {
	_, err := Unmarshal[Framed]([]byte{0xBE, 0xEF, 0x00, 0x07}, bigByte, WithRegistry(s.reg))
	s.ErrorIs(err, merr.ErrCustomHookFailure)
	s.Contains(err.Error(), "bad magic")

	// 钩子返回的分类错误保持原样
	_, err = Unmarshal[Framed]([]byte{0xCA}, bigByte, WithRegistry(s.reg))
	s.ErrorIs(err, merr.ErrEndOfStream)
	s.NotErrorIs(err, merr.ErrCustomHookFailure)

	_, err = Marshal(Broken{}, bigByte, WithRegistry(s.reg))
	s.ErrorIs(err, merr.ErrCustomHookFailure)
	s.ErrorIs(err, errBoom)
	s.Equal("boom", err.Error())
	s.Equal(int32(2200), merr.Code(err))

	// 嵌套在结构体中的钩子错误不附加路径信息
	type holder struct {
		A uint8
		B Broken
	}
	_, err = Marshal(holder{}, bigByte, WithRegistry(s.reg))
	s.ErrorIs(err, errBoom)
	s.Equal("boom", err.Error())
}

func (s *HookSuite) TestOneDirectionOverride() {
	data := s.marshal(Lenient(250), bigByte)
	s.Equal([]byte{0xFA}, data)

	out, err := Unmarshal[Lenient](data, bigByte, WithRegistry(s.reg))
	s.Require().NoError(err)
	s.Equal(Lenient(100), out)

	// Broken 只覆盖编码，解码走空结构体的通用规则
	b, err := Unmarshal[Broken](nil, bigByte, WithRegistry(s.reg))
	s.NoError(err)
	s.Equal(Broken{}, b)
}

func (s *HookSuite) TestRegisteredCodec() {
	s.ErrorIs(Validate[withBlob](WithRegistry(s.reg)), merr.ErrUnsupportedShape)

	s.Require().NoError(RegisterCodecIn(s.reg, encodeBlob, decodeBlob))
	in := withBlob{Tag: 1, Blob: Blob{Data: []byte("hi")}}
	for _, cfg := range allConfigs {
		data := s.marshal(in, cfg)
		s.Equal([]byte{0x01, 0x02, 'h', 'i'}, data)

		out, err := Unmarshal[withBlob](data, cfg, WithRegistry(s.reg))
		s.Require().NoError(err)
		s.Equal(in, out)
	}

	err := RegisterCodecIn[Blob](s.reg, nil, nil)
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *HookSuite) TestRegisteredCodecTakesPrecedence() {
	// 只注册编码方向，解码仍使用 Version 自身的方法
	s.Require().NoError(RegisterCodecIn(s.reg, func(ser *Serializer, v *Version) error {
		return ser.WriteUint(uint64(v.Major)<<8|uint64(v.Minor), 16)
	}, nil))

	data := s.marshal(Version{1, 2}, bigByte)
	s.Equal([]byte{0x01, 0x02}, data)

	out, err := Unmarshal[Version]([]byte{0x12}, bigByte, WithRegistry(s.reg))
	s.Require().NoError(err)
	s.Equal(Version{1, 2}, out)
}

func (s *HookSuite) TestHookWriterHelpers() {
	var buf bytes.Buffer
	ser := NewSerializer(&buf, littleByte, WithRegistry(s.reg))
	s.Require().NoError(PutSigned(ser, int16(-2)))
	s.Require().NoError(PutUnsigned(ser, uint32(0x01020304)))
	s.Require().NoError(ser.WriteInt(-1, 4))
	s.Require().NoError(ser.WriteBool(true))
	s.Require().NoError(ser.WriteFloat32(1))
	s.Require().NoError(ser.WriteBytes([]byte{0xAA, 0xBB}))
	s.ErrorIs(ser.WriteUint(1, 0), merr.ErrParameterInvalid)
	s.ErrorIs(ser.WriteInt(1, 65), merr.ErrParameterInvalid)
	s.Require().NoError(ser.Flush())
	s.Equal([]byte{
		0xFE, 0xFF,
		0x04, 0x03, 0x02, 0x01,
		0x0F,
		0x01,
		0x00, 0x00, 0x80, 0x3F,
		0xAA, 0xBB,
	}, buf.Bytes())

	d := NewDeserializer(bytes.NewReader(buf.Bytes()), littleByte, WithRegistry(s.reg))
	i16, err := GetSigned[int16](d)
	s.Require().NoError(err)
	s.Equal(int16(-2), i16)
	u32, err := GetUnsigned[uint32](d)
	s.Require().NoError(err)
	s.Equal(uint32(0x01020304), u32)
	i4, err := d.ReadInt(4)
	s.Require().NoError(err)
	s.Equal(int64(-1), i4)
	flag, err := d.ReadBool()
	s.Require().NoError(err)
	s.True(flag)
	f, err := d.ReadFloat32()
	s.Require().NoError(err)
	s.Equal(float32(1), f)
	tail := make([]byte, 2)
	s.Require().NoError(d.ReadBytes(tail))
	s.Equal([]byte{0xAA, 0xBB}, tail)

	_, err = d.ReadUint(0)
	s.ErrorIs(err, merr.ErrParameterInvalid)
	_, err = d.ReadFloat64()
	s.ErrorIs(err, merr.ErrEndOfStream)
}

func TestHookSuite(t *testing.T) {
	suite.Run(t, new(HookSuite))
}

func TestUnsupportedShapes(t *testing.T) {
	reg := NewRegistry()
	cases := []struct {
		name     string
		validate func(...Option) error
	}{
		{"slice", Validate[struct{ S []byte }]},
		{"string", Validate[struct{ S string }]},
		{"map", Validate[struct{ M map[string]int }]},
		{"untagged pointer", Validate[struct{ P *int }]},
		{"top-level pointer", Validate[*uint8]},
		{"unregistered interface", Validate[struct{ M Message }]},
		{"empty interface", Validate[any]},
		{"uintptr", Validate[struct{ U uintptr }]},
		{"chan", Validate[struct{ C chan int }]},
		{"func", Validate[struct{ F func() }]},
		{"opt on value", Validate[struct {
			X uint8 `bin:"opt"`
		}]},
		{"bits wider than type", Validate[struct {
			X uint8 `bin:"bits=9"`
		}]},
		{"bits on float", Validate[struct {
			X float32 `bin:"bits=8"`
		}]},
		{"bits on struct", Validate[struct {
			X Pong `bin:"bits=8"`
		}]},
		{"bits on hooked type", Validate[struct {
			X Lenient `bin:"bits=4"`
		}]},
		{"bits out of range", Validate[struct {
			X uint64 `bin:"bits=65"`
		}]},
		{"bits not a number", Validate[struct {
			X uint8 `bin:"bits=x"`
		}]},
		{"unknown option", Validate[struct {
			X uint8 `bin:"wide"`
		}]},
		{"nested slice", Validate[[2]struct{ S []int }]},
		{"optional of slice", Validate[Optional[[]byte]]},
		{"one direction without generic shape", Validate[struct{ B halfBlob }]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.validate(WithRegistry(reg))
			assert.ErrorIs(t, err, merr.ErrUnsupportedShape)
		})
	}
}

// halfBlob 只实现了解码，而编码方向没有通用规则可用。
type halfBlob struct {
	Data []byte
}

func (h *halfBlob) DecodeBinary(d *Deserializer) error {
	return d.ReadBytes(h.Data)
}

func TestUnsupportedShapeDiagnostics(t *testing.T) {
	type inner struct {
		Name string
	}
	type outer struct {
		ID    uint8
		Inner inner
	}
	err := Validate[outer](WithRegistry(NewRegistry()))
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrUnsupportedShape)
	assert.Contains(t, err.Error(), "Inner")
	assert.Contains(t, err.Error(), "string")

	// 失败不会被缓存
	_, err = Marshal(outer{}, bigByte, WithRegistry(NewRegistry()))
	assert.ErrorIs(t, err, merr.ErrUnsupportedShape)
	assert.True(t, merr.IsCodecError(err))
	assert.Equal(t, "unsupported_shape", merr.Kind(err))
}

func TestSizeOf(t *testing.T) {
	type mixed struct {
		A uint8 `bin:"bits=3"`
		B uint16
	}
	cases := []struct {
		name string
		size func(Config, ...Option) (int, error)
		byte int
		bit  int
	}{
		{"mixed", SizeOf[mixed], 3, 3},
		{"bool", SizeOf[bool], 1, 1},
		{"packed pair", SizeOf[packedPair], 1, 1},
		{"pair then byte", SizeOf[pairThenByte], 2, 2},
		{"bit fields", SizeOf[bitFields], 2, 1},
		{"array", SizeOf[[3]uint16], 6, 6},
		{"nibbles", SizeOf[struct {
			N [3]uint8 `bin:"bits=4"`
		}], 3, 2},
		{"complex64", SizeOf[complex64], 8, 8},
		{"skipping", SizeOf[skipping], 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := tc.size(bigByte)
			require.NoError(t, err)
			assert.Equal(t, tc.byte, n)

			n, err = tc.size(littleBit)
			require.NoError(t, err)
			assert.Equal(t, tc.bit, n)
		})
	}

	sh, err := ShapeOf(reflect.TypeFor[mixed]())
	require.NoError(t, err)
	assert.Equal(t, 24, sh.BitSize(PackByte))
	assert.Equal(t, 19, sh.BitSize(PackBit))

	_, err = SizeOf[Optional[uint8]](bigByte)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = SizeOf[Version](bigByte)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = SizeOf[uint8](Config{Endian: 5})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = SizeOf[[]byte](bigByte)
	assert.ErrorIs(t, err, merr.ErrUnsupportedShape)
}

func TestShapeString(t *testing.T) {
	reg := newTestRegistry()
	cases := []struct {
		typ  any
		want string
	}{
		{uint16(0), "uint16"},
		{int8(0), "int8"},
		{float32(0), "float32"},
		{complex128(0), "complex128"},
		{ColorRed, "enum codec.Color(8 bits)"},
		{packedPair{}, "packed struct codec.packedPair{F: int3, U: uint2}"},
		{Some[bool](true), "optional<bool>"},
		{[2]uint8{}, "[2]uint8"},
		{Version{}, "custom codec.Version"},
	}
	for _, tc := range cases {
		sh, err := reg.ShapeOf(reflect.TypeOf(tc.typ))
		require.NoError(t, err)
		assert.Equal(t, tc.want, sh.String())
	}

	sh, err := reg.ShapeOf(reflect.TypeFor[Message]())
	require.NoError(t, err)
	assert.Equal(t, "union codec.Message(tag 8 bits){1: struct codec.Ping{}, 2: struct codec.Pong{Seq: uint16}}", sh.String())
	assert.Equal(t, "union", sh.Kind.String())
}

func TestMarshalBatch(t *testing.T) {
	out, err := MarshalBatch([]any{uint16(1), Pong{Seq: 2}, [2]uint8{3, 4}, ColorBlue}, bigByte, WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x00, 0x01}, {0x00, 0x02}, {0x03, 0x04}, {0x03}}, out)

	_, err = MarshalBatch([]any{uint8(1), []int{1}}, bigByte)
	assert.ErrorIs(t, err, merr.ErrUnsupportedShape)

	_, err = MarshalBatch([]any{uint8(1)}, Config{Packing: 4})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	out, err = MarshalBatch(nil, bigByte)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestHookErrorKeepsCause(t *testing.T) {
	cause := errors.New("sensor offline")
	reg := NewRegistry()
	require.NoError(t, RegisterCodecIn(reg, func(*Serializer, *Pong) error { return cause }, nil))
	_, err := Marshal(Pong{}, bigByte, WithRegistry(reg))
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, merr.ErrCustomHookFailure)
	assert.Equal(t, "custom_hook_failure", merr.Kind(err))
}
