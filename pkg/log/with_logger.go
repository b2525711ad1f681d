package log

import "go.uber.org/atomic"

// Binder 可以嵌入到组件中，为组件提供一个可替换的 logger。
// 未设置时 Logger 返回基于全局 logger 的 MLogger。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

func (w *Binder) SetLogger(logger *MLogger) {
	w.logger.Store(logger)
}

func (w *Binder) Logger() *MLogger {
	if l := w.logger.Load(); l != nil {
		return l
	}
	return With()
}
