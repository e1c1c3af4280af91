package codec

import (
	"strings"

	"github.com/lk2023060901/bincodec-go/pkg/bitio"
	"github.com/lk2023060901/bincodec-go/pkg/util/merr"
	"github.com/lk2023060901/bincodec-go/pkg/util/viper"
)

// Endian 表示多字节整数的字节序，同时决定位模式下字节内部的位序。
type Endian uint8

const (
	BigEndian Endian = iota
	LittleEndian
)

func (e Endian) String() string {
	switch e {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	default:
		return "unknown"
	}
}

func (e Endian) MarshalText() ([]byte, error) {
	if e != BigEndian && e != LittleEndian {
		return nil, merr.WrapErrParameterInvalidMsg("unknown endian %d", uint8(e))
	}
	return []byte(e.String()), nil
}

func (e *Endian) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "big", "be":
		*e = BigEndian
	case "little", "le":
		*e = LittleEndian
	default:
		return merr.WrapErrParameterInvalidMsg("unknown endian %q", string(text))
	}
	return nil
}

func (e Endian) bitOrder() bitio.Order {
	if e == LittleEndian {
		return bitio.LSBFirst
	}
	return bitio.MSBFirst
}

// Packing 表示基本类型的打包粒度。
type Packing uint8

const (
	// PackByte 每个基本类型占用最少的整字节数。
	PackByte Packing = iota
	// PackBit 每个基本类型恰好占用声明的位宽。
	PackBit
)

func (p Packing) String() string {
	switch p {
	case PackByte:
		return "byte"
	case PackBit:
		return "bit"
	default:
		return "unknown"
	}
}

func (p Packing) MarshalText() ([]byte, error) {
	if p != PackByte && p != PackBit {
		return nil, merr.WrapErrParameterInvalidMsg("unknown packing %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Packing) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "byte", "bytes":
		*p = PackByte
	case "bit", "bits":
		*p = PackBit
	default:
		return merr.WrapErrParameterInvalidMsg("unknown packing %q", string(text))
	}
	return nil
}

// Config 是一次编解码会话的不可变配置。
type Config struct {
	Endian  Endian  `mapstructure:"endian" json:"endian"`
	Packing Packing `mapstructure:"packing" json:"packing"`
}

// DefaultConfig 返回大端、整字节打包的配置。
func DefaultConfig() Config {
	return Config{Endian: BigEndian, Packing: PackByte}
}

// Validate 检查配置取值是否合法。
func (c Config) Validate() error {
	if c.Endian != BigEndian && c.Endian != LittleEndian {
		return merr.WrapErrParameterInvalidMsg("unknown endian %d", uint8(c.Endian))
	}
	if c.Packing != PackByte && c.Packing != PackBit {
		return merr.WrapErrParameterInvalidMsg("unknown packing %d", uint8(c.Packing))
	}
	return nil
}

func (c Config) String() string {
	return c.Endian.String() + "/" + c.Packing.String()
}

// LoadConfig 从 YAML/JSON 文件中读取 key 对应的编解码配置。
// key 为空时读取整个文件；缺失的字段保持 DefaultConfig 的取值。
func LoadConfig(path string, key string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New(viper.WithTextUnmarshaler())
	if err := v.LoadFile(path); err != nil {
		return cfg, merr.WrapErrParameterInvalidMsg("load codec config %s: %s", path, err.Error())
	}

	var err error
	if key == "" {
		err = v.Unmarshal(&cfg)
	} else {
		if !v.IsSet(key) {
			return cfg, merr.WrapErrParameterInvalidMsg("codec config key %q not found in %s", key, path)
		}
		err = v.UnmarshalKey(key, &cfg)
	}
	if err != nil {
		return cfg, merr.WrapErrParameterInvalidMsg("decode codec config %s: %s", path, err.Error())
	}
	return cfg, cfg.Validate()
}
