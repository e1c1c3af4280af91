// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
// 错误链上不存在 codecError 时返回 errUnexpected 的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	var hookErr hookError
	if errors.As(err, &hookErr) {
		return ErrCustomHookFailure.code()
	}
	var specificErr codecError
	if errors.As(err, &specificErr) {
		return specificErr.code()
	}
	return errUnexpected.code()
}

func IsRetryableErr(err error) bool {
	var specificErr codecError
	if errors.As(err, &specificErr) {
		return specificErr.retriable
	}
	return false
}

// IsCodecError 判断 err 是否属于本包定义的错误分类。
func IsCodecError(err error) bool {
	var hookErr hookError
	var specificErr codecError
	return errors.As(err, &hookErr) || errors.As(err, &specificErr)
}

func GetErrorType(err error) ErrorType {
	var specificErr codecError
	if errors.As(err, &specificErr) {
		return specificErr.errType
	}
	return SystemError
}

// Kind 返回错误分类的稳定短名，主要用于指标标签。
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEndOfStream):
		return "end_of_stream"
	case errors.Is(err, ErrIoFailed):
		return "io_failure"
	case errors.Is(err, ErrInvalidDiscriminant):
		return "invalid_discriminant"
	case errors.Is(err, ErrUnsupportedShape):
		return "unsupported_shape"
	case errors.Is(err, ErrCustomHookFailure):
		return "custom_hook_failure"
	case errors.Is(err, ErrParameterInvalid):
		return "parameter_invalid"
	default:
		return "unexpected"
	}
}

// IO 相关错误封装。

// WrapErrIoFailed 将 sink/source 返回的错误包装为 IoFailure，原始错误仍可通过 errors.Is 命中。
func WrapErrIoFailed(op string, err error) error {
	if err == nil {
		return nil
	}
	return withCause(wrapFieldsWithDesc(ErrIoFailed, err.Error(), value("op", op)), err)
}

// WrapErrEndOfStream 表示数据源在一个值完整解码前已耗尽。
func WrapErrEndOfStream(op string, err error) error {
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return withCause(wrapFieldsWithDesc(ErrEndOfStream, err.Error(), value("op", op)), err)
}

// WrapErrStream 按 io 语义区分 EndOfStream 与 IoFailure。
func WrapErrStream(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return WrapErrEndOfStream(op, err)
	}
	return WrapErrIoFailed(op, err)
}

// Parameter related
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidRange[T any](lower, upper, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		bound("value", actual, lower, upper),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

// Discriminant related
func WrapErrInvalidDiscriminant(typeName string, discriminant any, msg ...string) error {
	err := wrapFields(ErrInvalidDiscriminant,
		value("type", typeName),
		value("discriminant", discriminant),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Shape related
func WrapErrUnsupportedShape(typeName string, reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrUnsupportedShape, reason, value("type", typeName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrCustomHook 标记自定义编解码函数返回的错误。
// 错误文本与错误链保持不变；若 err 已经属于本包的错误分类，则原样返回。
func WrapErrCustomHook(typeName string, err error) error {
	if err == nil {
		return nil
	}
	if IsCodecError(err) {
		return err
	}
	return hookError{cause: err, typeName: typeName}
}

type hookError struct {
	cause    error
	typeName string
}

func (e hookError) Error() string {
	return e.cause.Error()
}

func (e hookError) Unwrap() error {
	return e.cause
}

func (e hookError) Is(err error) bool {
	return ErrCustomHookFailure.Is(err)
}

// TypeName 返回安装该自定义编解码函数的类型名。
func (e hookError) TypeName() string {
	return e.typeName
}

func withCause(err error, cause error) error {
	specificErr, ok := err.(codecError)
	if !ok {
		return err
	}
	specificErr.cause = cause
	return specificErr
}

func wrapFields(err codecError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err codecError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
