package codec

import (
	"runtime"

	"github.com/lk2023060901/bincodec-go/pkg/log"
)

type options struct {
	registry *Registry
	logger   *log.MLogger
	workers  int
}

// Option 用于配置 Serializer、Deserializer 以及批量编码。
type Option func(*options)

func defaultOptions() *options {
	return &options{
		registry: defaultRegistry,
		workers:  runtime.GOMAXPROCS(0),
	}
}

func newOptions(opts ...Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithRegistry 使用指定的 Registry 解析 Shape，而不是默认 Registry。
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithLogger 为会话绑定 Logger。
func WithLogger(l *log.MLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithWorkers 设置 MarshalBatch 使用的并发度。
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}
