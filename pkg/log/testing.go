package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// NewTestLogger 返回输出到 t.Log 的 MLogger，低于 level 的日志被丢弃。
// zap 内部错误会让测试失败。
func NewTestLogger(t zaptest.TestingT, level zapcore.Level) *MLogger {
	return &MLogger{
		Logger: zaptest.NewLogger(t, zaptest.Level(level), zaptest.WrapOptions(zap.AddCaller())),
	}
}
