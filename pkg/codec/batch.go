package codec

import (
	"time"

	"github.com/samber/lo"

	"github.com/lk2023060901/bincodec-go/pkg/metrics"
	"github.com/lk2023060901/bincodec-go/pkg/util/conc"
)

// MarshalBatch 并发编码一组相互独立的值，每个值使用独立的会话，
// 返回结果与 values 一一对应。任意一个值失败时返回遇到的第一个错误。
func MarshalBatch(values []any, cfg Config, opts ...Option) ([][]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.CodecBatchDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	o := newOptions(opts...)
	pool, err := conc.NewPool[[]byte](min(o.workers, len(values)), conc.WithConcealPanic(true))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	futures := lo.Map(values, func(v any, _ int) *conc.Future[[]byte] {
		return pool.Submit(func() ([]byte, error) {
			return Marshal(v, cfg, opts...)
		})
	})
	if err := conc.AwaitAll(futures...); err != nil {
		return nil, err
	}
	return lo.Map(futures, func(f *conc.Future[[]byte], _ int) []byte {
		return f.Value()
	}), nil
}
