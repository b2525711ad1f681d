package log

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/atomic"
)

// RateLimiter 是限流输出所需的最小接口，utils.ReconfigurableRateLimiter 满足该接口。
type RateLimiter interface {
	CheckCredit(cost float64) bool
}

type nopRateLimiter struct{}

func (nopRateLimiter) CheckCredit(float64) bool { return true }

var (
	_globalR    atomic.Value // rateLimiterHolder
	_rateGroups sync.Map     // string -> *utils.ReconfigurableRateLimiter
)

type rateLimiterHolder struct {
	RateLimiter
}

// R 返回全局限流器，未开启限流时返回永不丢弃的实现。
func R() RateLimiter {
	if h, ok := _globalR.Load().(rateLimiterHolder); ok && h.RateLimiter != nil {
		return h.RateLimiter
	}
	return nopRateLimiter{}
}

func rateGroup(name string, creditPerSecond, maxBalance float64) *utils.ReconfigurableRateLimiter {
	rl := utils.NewRateLimiter(creditPerSecond, maxBalance)
	if actual, loaded := _rateGroups.LoadOrStore(name, rl); loaded {
		rl = actual.(*utils.ReconfigurableRateLimiter)
		rl.Update(creditPerSecond, maxBalance)
	}
	return rl
}

// configureRateLimiterFromEnv 根据环境变量配置全局限流器，默认不限流：
//
//   - EXTERNALIZOR_LOG_RATE_ENABLE: 1/true/yes/on 开启；
//   - EXTERNALIZOR_LOG_RATE_CREDIT_PER_SECOND: 每秒补充的额度，默认 1；
//   - EXTERNALIZOR_LOG_RATE_MAX_BALANCE: 最大余额，默认 60。
func configureRateLimiterFromEnv() {
	if !envBool("EXTERNALIZOR_LOG_RATE_ENABLE") {
		_globalR.Store(rateLimiterHolder{nopRateLimiter{}})
		return
	}
	credit := envFloat("EXTERNALIZOR_LOG_RATE_CREDIT_PER_SECOND", 1)
	maxBalance := envFloat("EXTERNALIZOR_LOG_RATE_MAX_BALANCE", 60)
	_globalR.Store(rateLimiterHolder{utils.NewRateLimiter(credit, maxBalance)})
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func envFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return f
}
