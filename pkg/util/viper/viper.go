package viper

import (
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
type Config struct {
	v     *spfviper.Viper
	hooks []mapstructure.DecodeHookFunc
}

// Option 用于定制 Config 的解码行为。
type Option func(*Config)

// WithDecodeHooks 追加 mapstructure 解码钩子，
// 与 viper 默认的 string→time.Duration、string→slice 钩子组合使用。
func WithDecodeHooks(hooks ...mapstructure.DecodeHookFunc) Option {
	return func(c *Config) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// WithTextUnmarshaler 让实现了 encoding.TextUnmarshaler 的类型
// 可以直接从配置中的字符串解码。
func WithTextUnmarshaler() Option {
	return WithDecodeHooks(mapstructure.TextUnmarshallerHookFunc())
}

// New 创建一个空的 Config。
// 在调用 Unmarshal/UnmarshalKey 之前需要先调用 LoadFile 加载配置文件。
func New(opts ...Option) *Config {
	c := &Config{
		v: spfviper.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	if c.v == nil {
		c.v = spfviper.New()
	}

	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	default:
		// 让 viper 自行推断类型，或在读取时返回清晰的错误信息。
	}

	return c.v.ReadInConfig()
}

// IsSet 判断配置中是否存在 key。
func (c *Config) IsSet(key string) bool {
	return c.v != nil && c.v.IsSet(key)
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst interface{}) error {
	if c.v == nil {
		return nil
	}
	return c.v.Unmarshal(dst, c.decoderOptions()...)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) UnmarshalKey(key string, dst interface{}) error {
	if c.v == nil {
		return nil
	}
	return c.v.UnmarshalKey(key, dst, c.decoderOptions()...)
}

func (c *Config) decoderOptions() []spfviper.DecoderConfigOption {
	if len(c.hooks) == 0 {
		return nil
	}
	hooks := append([]mapstructure.DecodeHookFunc{
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	}, c.hooks...)
	return []spfviper.DecoderConfigOption{
		spfviper.DecodeHook(mapstructure.ComposeDecodeHookFunc(hooks...)),
	}
}
