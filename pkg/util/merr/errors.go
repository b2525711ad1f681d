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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Service related
	ErrServiceInternal      = newCodecError("service internal error", 5, false)
	ErrServiceUnimplemented = newCodecError("service unimplemented", 10, false)

	// Parameter related
	ErrParameterInvalid  = newCodecError("invalid parameter", 1100, false)
	ErrParameterMissing  = newCodecError("missing parameter", 1101, false)
	ErrParameterTooLarge = newCodecError("parameter too large", 1102, false)

	// Codec related
	// ErrStream 表示底层 sink/source 的 I/O 失败，原始错误会被保留，调用方可以继续用 errors.Is 判断。
	ErrStream = newCodecError("stream failure", 2000, true)
	// ErrSchemaMismatch 表示解码数据与当前 Pipeline 不一致：越界的枚举序号、非法长度、字段中途 EOF 等。
	ErrSchemaMismatch = newCodecError("schema mismatch", 2001, false)
	// ErrInstantiation 表示无法为解码创建目标实例（工厂失败、panic 或返回了错误的类型）。
	ErrInstantiation = newCodecError("instantiation failure", 2002, false)
	// ErrUnsupportedType 表示字段的声明类型无法匹配任何编码策略，在构建 Pipeline 时立即返回。
	ErrUnsupportedType = newCodecError("unsupported type", 2003, false)

	// Frame related
	ErrFrameInvalid         = newCodecError("invalid frame", 2100, false)
	ErrFrameVersionMismatch = newCodecError("frame version mismatch", 2101, false)
	ErrFrameTooLarge        = newCodecError("frame too large", 2102, false)

	// General
	ErrOperationNotSupported = newCodecError("unsupported operation", 3000, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to codecError
	errUnexpected = newCodecError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*codecError)

func WithDetail(detail string) errorOption {
	return func(err *codecError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *codecError) {
		err.errType = etype
	}
}

type codecError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newCodecError(msg string, code int32, retriable bool, options ...errorOption) codecError {
	err := codecError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e codecError) code() int32 {
	return e.errCode
}

func (e codecError) Error() string {
	return e.msg
}

func (e codecError) Detail() string {
	return e.detail
}

func (e codecError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(codecError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
