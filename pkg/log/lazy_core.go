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

package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// lazyCore 推迟 core.With(fields) 的编码，直到第一次真正需要输出。
// 大量只在出错时才打日志的 logger 因此几乎没有构造开销。Enabled 直接使用内嵌的原始 core。
type lazyCore struct {
	zapcore.Core
	fields []zapcore.Field

	once sync.Once
	with zapcore.Core
}

var _ zapcore.Core = (*lazyCore)(nil)

func wrapLazy(fields []zapcore.Field) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		if len(fields) == 0 {
			return core
		}
		return &lazyCore{Core: core, fields: fields}
	})
}

func (c *lazyCore) materialize() zapcore.Core {
	c.once.Do(func() {
		c.with = c.Core.With(c.fields)
	})
	return c.with
}

func (c *lazyCore) With(fields []zapcore.Field) zapcore.Core {
	return c.materialize().With(fields)
}

func (c *lazyCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return c.materialize().Check(e, ce)
}

func (c *lazyCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return c.materialize().Write(e, fields)
}

func (c *lazyCore) Sync() error {
	return c.materialize().Sync()
}
