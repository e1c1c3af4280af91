package log

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var (
	_ WithLogger   = &Binder{}
	_ LoggerBinder = &Binder{}
)

// WithLogger 由持有本地 Logger 的组件实现。
type WithLogger interface {
	Logger() *MLogger
}

// LoggerBinder 由允许外部注入 Logger 的组件实现。
type LoggerBinder interface {
	SetLogger(logger *MLogger)
}

// Binder 嵌入到编解码会话等组件中，统一管理组件的 Logger。
//
// 未注入 Logger 时，第一次调用 Logger 会基于全局 Logger 和 Bind 登记的字段
// 创建一个，此后一直复用。
type Binder struct {
	logger atomic.Pointer[MLogger]

	mu     sync.Mutex
	fields []zap.Field
}

// SetLogger 注入 Logger，之前 Bind 的字段仍会附加在其上。
func (b *Binder) SetLogger(logger *MLogger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.fields) > 0 {
		logger = logger.With(b.fields...)
	}
	b.logger.Store(logger)
}

// Bind 登记组件级字段，只对之后取得的 Logger 生效。
func (b *Binder) Bind(fields ...zap.Field) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fields = append(b.fields, fields...)
	if l := b.logger.Load(); l != nil {
		b.logger.Store(l.With(fields...))
	}
}

// Logger 返回组件的 Logger。
func (b *Binder) Logger() *MLogger {
	if l := b.logger.Load(); l != nil {
		return l
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if l := b.logger.Load(); l != nil {
		return l
	}
	l := With(b.fields...)
	b.logger.Store(l)
	return l
}
