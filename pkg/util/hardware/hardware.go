package hardware

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"

	"github.com/lk2023060901/externalizor-go/pkg/log"
)

// GetCPUNum 返回可用的逻辑 CPU 核数。
// gopsutil 获取失败时退回 runtime.NumCPU。
func GetCPUNum() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Warn("failed to get cpu counts, fallback to runtime.NumCPU", zap.Error(err))
		return runtime.NumCPU()
	}
	if limit := runtime.GOMAXPROCS(0); limit < n {
		return limit
	}
	return n
}
