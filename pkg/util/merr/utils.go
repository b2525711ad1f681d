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
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/externalizor-go/pkg/log"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case codecError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := errors.Cause(err).(codecError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func WrapErrAsInputError(err error) error {
	if merr, ok := err.(codecError); ok {
		WithErrorType(InputError)(&merr)
		return merr
	}
	return err
}

func WrapErrAsInputErrorWhen(err error, targets ...codecError) error {
	if merr, ok := err.(codecError); ok {
		for _, target := range targets {
			if target.errCode == merr.errCode {
				log.Info("mark error as input error", zap.Error(err))
				WithErrorType(InputError)(&merr)
				return merr
			}
		}
	}
	return err
}

func GetErrorType(err error) ErrorType {
	if merr, ok := err.(codecError); ok {
		return merr.errType
	}

	return SystemError
}

func WrapErrServiceInternal(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrServiceInternal, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Parameter 相关错误封装。
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

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	err := wrapFields(ErrParameterMissing,
		value("missing_param", param),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterTooLarge(name string, msg ...string) error {
	err := wrapFields(ErrParameterTooLarge, value("message", name))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Codec 相关错误封装。

// WrapErrStream 标记一个来自底层流的 I/O 错误。
// 返回的错误同时满足 errors.Is(err, ErrStream) 与 errors.Is(err, cause)。
func WrapErrStream(cause error, op string) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, ErrStream) {
		return cause
	}
	return Combine(cause, wrapFields(ErrStream, value("op", op)))
}

// WrapErrUnexpectedEOF 将字段中途读到的 EOF 转换为 SchemaMismatch，同时保留 io.ErrUnexpectedEOF。
func WrapErrUnexpectedEOF(op string) error {
	return Combine(io.ErrUnexpectedEOF, wrapFieldsWithDesc(ErrSchemaMismatch, "unexpected end of stream", value("op", op)))
}

func WrapErrSchemaMismatch(typ any, reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrSchemaMismatch, reason, value("type", typ))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrEnumOrdinal 报告越界的枚举值，ordinal 为有符号或无符号整数。
func WrapErrEnumOrdinal(typ any, ordinal any, size int) error {
	return wrapFieldsWithDesc(ErrSchemaMismatch, "enum ordinal out of range",
		value("type", typ),
		bound("ordinal", ordinal, 0, size-1),
	)
}

func WrapErrLengthTooLarge(what string, length uint64, limit uint64) error {
	return wrapFieldsWithDesc(ErrSchemaMismatch, "length exceeds limit",
		value("what", what),
		bound("length", length, 0, limit),
	)
}

// WrapErrInstantiation 构造实例化失败错误，cause 可以为 nil。
func WrapErrInstantiation(typ any, cause error) error {
	err := wrapFields(ErrInstantiation, value("type", typ))
	if cause != nil {
		return Combine(cause, err)
	}
	return err
}

func WrapErrUnsupportedType(typ any, field string, reason string) error {
	fields := []errorField{value("type", typ)}
	if field != "" {
		fields = append(fields, value("field", field))
	}
	return wrapFieldsWithDesc(ErrUnsupportedType, reason, fields...)
}

// Frame 相关错误封装。
func WrapErrFrameInvalid(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrFrameInvalid, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrFrameVersionMismatch(expected, actual any) error {
	return wrapFields(ErrFrameVersionMismatch,
		value("expected", expected),
		value("actual", actual),
	)
}

func WrapErrFrameTooLarge(size, limit uint32) error {
	return wrapFields(ErrFrameTooLarge, bound("size", size, 0, limit))
}

// WrapErrDecodedTooLarge 用于解压阶段在产出完整数据前就发现超限的情况。
func WrapErrDecodedTooLarge(limit uint32) error {
	return wrapFields(ErrFrameTooLarge, value("decoded_limit", limit))
}

func WrapErrOperationNotSupported(op string, msg ...string) error {
	err := wrapFields(ErrOperationNotSupported, value("op", op))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
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
