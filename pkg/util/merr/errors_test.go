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
	"context"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrUnsupportedType("chan int", "Events", "channels cannot be encoded")
	err = errors.Wrap(err, "failed to build pipeline")
	s.ErrorIs(err, ErrUnsupportedType)
	s.Equal(Code(ErrUnsupportedType), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))

	sameCodeErr := newCodecError("new error", ErrSchemaMismatch.errCode, false)
	s.True(sameCodeErr.Is(ErrSchemaMismatch))
	s.False(sameCodeErr.Is(ErrInstantiation))
}

func (s *ErrSuite) TestWrap() {
	s.ErrorIs(WrapErrServiceInternal("never throw out"), ErrServiceInternal)
	s.ErrorIs(WrapErrParameterInvalid(1, 2, "mismatch"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("bad %s", "value"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("target"), ErrParameterMissing)
	s.ErrorIs(WrapErrParameterTooLarge("payload"), ErrParameterTooLarge)

	s.ErrorIs(WrapErrSchemaMismatch("Color", "bad"), ErrSchemaMismatch)
	s.ErrorIs(WrapErrEnumOrdinal("Color", 7, 3), ErrSchemaMismatch)
	s.ErrorIs(WrapErrLengthTooLarge("string", 1<<40, 1<<20), ErrSchemaMismatch)
	s.ErrorIs(WrapErrInstantiation("Node", nil), ErrInstantiation)
	s.ErrorIs(WrapErrUnsupportedType("func()", "Callback", "functions cannot be encoded"), ErrUnsupportedType)

	s.ErrorIs(WrapErrFrameInvalid("short header"), ErrFrameInvalid)
	s.ErrorIs(WrapErrFrameVersionMismatch("1.x", "2.0"), ErrFrameVersionMismatch)
	s.ErrorIs(WrapErrFrameTooLarge(10, 5), ErrFrameTooLarge)
	s.ErrorIs(WrapErrDecodedTooLarge(5), ErrFrameTooLarge)
	s.ErrorIs(WrapErrOperationNotSupported("skip"), ErrOperationNotSupported)
}

func (s *ErrSuite) TestWrapKeepsContext() {
	err := WrapErrUnsupportedType("chan int", "Events", "channels cannot be encoded")
	s.Contains(err.Error(), "type=chan int")
	s.Contains(err.Error(), "field=Events")
	s.Contains(err.Error(), "channels cannot be encoded")

	err = WrapErrEnumOrdinal("Color", 7, 3)
	s.Contains(err.Error(), "7 out of range 0 <= ordinal <= 2")
}

func (s *ErrSuite) TestStreamError() {
	err := WrapErrStream(io.ErrClosedPipe, "write")
	s.ErrorIs(err, ErrStream)
	s.ErrorIs(err, io.ErrClosedPipe)
	s.True(IsRetryableErr(err))
	s.Equal(Code(ErrStream), Code(err))

	// 已经标记过的错误不会被重复包装。
	s.Equal(err, WrapErrStream(err, "flush"))
	s.Nil(WrapErrStream(nil, "write"))
}

func (s *ErrSuite) TestUnexpectedEOF() {
	err := WrapErrUnexpectedEOF("read int32")
	s.ErrorIs(err, ErrSchemaMismatch)
	s.ErrorIs(err, io.ErrUnexpectedEOF)
	s.False(IsRetryableErr(err))
}

func (s *ErrSuite) TestInstantiationCause() {
	cause := errors.New("factory exploded")
	err := WrapErrInstantiation("Node", cause)
	s.ErrorIs(err, ErrInstantiation)
	s.ErrorIs(err, cause)
}

func (s *ErrSuite) TestErrorType() {
	err := WrapErrAsInputError(ErrParameterInvalid)
	s.Equal(InputError, GetErrorType(err))
	s.Equal(SystemError, GetErrorType(errors.New("plain")))

	err = WrapErrAsInputErrorWhen(ErrSchemaMismatch, ErrSchemaMismatch)
	s.Equal(InputError, GetErrorType(err))
	err = WrapErrAsInputErrorWhen(ErrSchemaMismatch, ErrStream)
	s.Equal(SystemError, GetErrorType(err))
	s.Equal("input_error", InputError.String())
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
	err := Combine(WrapErrSchemaMismatch("A", "first"), WrapErrInstantiation("B", nil))
	s.Equal(Code(ErrInstantiation), Code(err))
}

func (s *ErrSuite) TestCanceledOrTimeout() {
	s.True(IsCanceledOrTimeout(errors.Wrap(context.Canceled, "wrapped")))
	s.False(IsCanceledOrTimeout(ErrStream))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
