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
	"io"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrInvalidDiscriminant("Message", 3)
	err = errors.Wrap(err, "failed to decode payload")
	s.ErrorIs(err, ErrInvalidDiscriminant)
	s.Equal(Code(ErrInvalidDiscriminant), Code(err))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newCodecError("new error", ErrInvalidDiscriminant.errCode, false)
	s.True(sameCodeErr.Is(ErrInvalidDiscriminant))
}

func (s *ErrSuite) TestWrap() {
	// IO 相关错误。
	s.ErrorIs(WrapErrIoFailed("write", os.ErrClosed), ErrIoFailed)
	s.ErrorIs(WrapErrEndOfStream("read", io.ErrUnexpectedEOF), ErrEndOfStream)

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid(8, 9, "bit width"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidRange(1, 64, 65, "bit width"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("unknown endian %q", "middle"), ErrParameterInvalid)

	// Shape 相关错误。
	s.ErrorIs(WrapErrUnsupportedShape("map[string]int", "maps carry no static length"), ErrUnsupportedShape)
	s.ErrorIs(WrapErrInvalidDiscriminant("Color", 7, "enum"), ErrInvalidDiscriminant)
}

func (s *ErrSuite) TestStreamErrorsKeepCause() {
	err := WrapErrStream("read", io.ErrUnexpectedEOF)
	s.ErrorIs(err, ErrEndOfStream)
	s.ErrorIs(err, io.ErrUnexpectedEOF)
	s.NotErrorIs(err, ErrIoFailed)

	err = WrapErrStream("read", io.EOF)
	s.ErrorIs(err, ErrEndOfStream)
	s.ErrorIs(err, io.EOF)

	err = WrapErrStream("write", os.ErrPermission)
	s.ErrorIs(err, ErrIoFailed)
	s.ErrorIs(err, os.ErrPermission)
	s.NotErrorIs(err, ErrEndOfStream)

	s.Nil(WrapErrStream("noop", nil))
	s.Nil(WrapErrIoFailed("noop", nil))
}

func (s *ErrSuite) TestCustomHook() {
	cause := errors.New("checksum mismatch")
	err := WrapErrCustomHook("Frame", cause)
	s.Equal("checksum mismatch", err.Error())
	s.ErrorIs(err, cause)
	s.ErrorIs(err, ErrCustomHookFailure)
	s.Equal(Code(ErrCustomHookFailure), Code(err))
	s.Equal("custom_hook_failure", Kind(err))

	// 已经属于错误分类的错误保持原样。
	eos := WrapErrEndOfStream("read", nil)
	s.Equal(eos, WrapErrCustomHook("Frame", eos))
	s.Equal(err, WrapErrCustomHook("Outer", err))
	s.Nil(WrapErrCustomHook("Frame", nil))
}

func (s *ErrSuite) TestKind() {
	s.Equal("", Kind(nil))
	s.Equal("end_of_stream", Kind(WrapErrEndOfStream("read", nil)))
	s.Equal("io_failure", Kind(WrapErrIoFailed("write", os.ErrClosed)))
	s.Equal("invalid_discriminant", Kind(WrapErrInvalidDiscriminant("U", 1)))
	s.Equal("unsupported_shape", Kind(WrapErrUnsupportedShape("T", "reason")))
	s.Equal("parameter_invalid", Kind(WrapErrParameterInvalidMsg("x")))
	s.Equal("unexpected", Kind(errors.New("other")))
}

func (s *ErrSuite) TestErrorType() {
	s.Equal(InputError, GetErrorType(ErrUnsupportedShape))
	s.Equal(SystemError, GetErrorType(ErrIoFailed))
	s.Equal(SystemError, GetErrorType(errors.New("plain")))
	s.False(IsRetryableErr(ErrIoFailed))
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrUnsupportedShape("A", "slice"), WrapErrInvalidDiscriminant("B", 1))
	s.Equal(Code(ErrInvalidDiscriminant), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
