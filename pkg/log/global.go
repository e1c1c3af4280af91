// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxLogKeyType struct{}

// CtxLogKey 是上下文中保存 *MLogger 的键。
var CtxLogKey = ctxLogKeyType{}

// Debug 使用全局 Logger 输出 Debug 日志。
func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

// Info 使用全局 Logger 输出 Info 日志。
func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

// Warn 使用全局 Logger 输出 Warn 日志。
func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

// Error 使用全局 Logger 输出 Error 日志。
func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// With 基于全局 Logger 创建携带 fields 的子 Logger。
func With(fields ...zap.Field) *MLogger {
	return newMLogger(L().WithOptions(zap.AddCallerSkip(-1)).WithLazy(fields...))
}

// SetLevel 调整全局日志级别。
func SetLevel(l zapcore.Level) {
	Level().SetLevel(l)
}

// GetLevel 返回当前全局日志级别。
func GetLevel() zapcore.Level {
	return Level().Level()
}

// WithFields 返回附加了 fields 的上下文，ctx 中已有的 Logger 字段会被保留。
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	base := ctxL()
	if l, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
		base = l.Logger
	}
	return context.WithValue(ctx, CtxLogKey, newMLogger(base.With(fields...)))
}

// WithModule 为 ctx 中的 Logger 添加模块名。
func WithModule(ctx context.Context, module string) context.Context {
	return WithFields(ctx, FieldModule(module))
}

// WithTraceID 为 ctx 中的 Logger 添加 traceID。
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return WithFields(ctx, zap.String("traceID", traceID))
}

// NewIntentContext 以 name 为 tracer 名开启一个 span，并返回携带
// role、intent 和 traceID 字段的上下文。
func NewIntentContext(name string, intent string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(name).Start(context.Background(), intent)
	ctx = WithFields(ctx,
		zap.String("role", name),
		zap.String("intent", intent),
		zap.String("traceID", span.SpanContext().TraceID().String()))
	return ctx, span
}

// Ctx 返回 ctx 中的 Logger；ctx 中没有时返回全局 Logger。
func Ctx(ctx context.Context) *MLogger {
	if ctx != nil {
		if l, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
			return l
		}
	}
	return newMLogger(ctxL())
}
