package externalizer

import (
	"reflect"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/externalizor-go/pkg/log"
	"github.com/lk2023060901/externalizor-go/pkg/metrics"
	"github.com/lk2023060901/externalizor-go/pkg/util/conc"
	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
	"github.com/lk2023060901/externalizor-go/pkg/util/typeutil"
)

// Registry 按声明类型解析并缓存 Strategy 与 Pipeline。
//
// 已发布的结果通过无锁的 ConcurrentMap 读取；首次构建在 mu 下串行进行，
// 保证每个类型在同一个 Registry 中至多构建一次。构建失败不会发布任何结果。
type Registry struct {
	log.Binder

	cfg       Config
	factories map[reflect.Type]*factory

	mu         sync.Mutex
	strategies *typeutil.ConcurrentMap[reflect.Type, *strategy]
	pipelines  *typeutil.ConcurrentMap[reflect.Type, *Pipeline]

	poolOnce sync.Once
	pool     *conc.Pool[[]byte]
}

// NewRegistry 创建一个空的 Registry。
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		cfg:        DefaultConfig(),
		factories:  make(map[reflect.Type]*factory),
		strategies: typeutil.NewConcurrentMap[reflect.Type, *strategy](),
		pipelines:  typeutil.NewConcurrentMap[reflect.Type, *Pipeline](),
	}
	r.SetLogger(log.With(log.FieldComponent("registry")).WithRateGroup("externalizer.registry", 1, 60))
	for _, opt := range opts {
		opt(r)
	}
	r.cfg.normalize()
	return r
}

// Config 返回 Registry 的运行参数。
func (r *Registry) Config() Config {
	return r.cfg
}

// Strategy 返回类型 t 对应的 Strategy，必要时先构建 t 及其依赖的所有类型。
func (r *Registry) Strategy(t reflect.Type) (Strategy, error) {
	if t == nil {
		return nil, merr.WrapErrParameterMissing("type")
	}
	if s, ok := r.strategies.Get(t); ok {
		return s, nil
	}
	var s *strategy
	err := r.build(t, func(b *builder) (err error) {
		s, err = b.resolve(t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Pipeline 返回结构体类型 t（或 *t）的 Pipeline。自描述类型没有字段级 Pipeline，返回 ErrUnsupportedType。
func (r *Registry) Pipeline(t reflect.Type) (*Pipeline, error) {
	if t == nil {
		return nil, merr.WrapErrParameterMissing("type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, merr.WrapErrUnsupportedType(t, "", "pipeline requires a struct type")
	}
	if isSelfDescribing(t) {
		return nil, merr.WrapErrUnsupportedType(t, "", "self-describing type has no field pipeline, use Strategy")
	}
	if p, ok := r.pipelines.Get(t); ok {
		return p, nil
	}
	var p *Pipeline
	err := r.build(t, func(b *builder) (err error) {
		p, err = b.pipeline(t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PipelineOf 返回 obj 的动态类型对应的 Pipeline。
func (r *Registry) PipelineOf(obj any) (*Pipeline, error) {
	return r.Pipeline(reflect.TypeOf(obj))
}

func (r *Registry) build(t reflect.Type, fn func(b *builder) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	b := newBuilder(r)
	if err := fn(b); err != nil {
		metrics.ExternalizerBuildTotal.WithLabelValues(metrics.FailLabel).Inc()
		r.Logger().RatedWarn(1, "reject type", log.FieldType(t), zap.Error(err))
		return errors.Wrapf(err, "build %s", t)
	}

	n := b.publish()
	elapsed := time.Since(start)
	metrics.ExternalizerBuildTotal.WithLabelValues(metrics.SuccessLabel).Inc()
	metrics.ExternalizerBuildLatency.Observe(float64(elapsed.Microseconds()) / 1000)
	metrics.ExternalizerCachedStrategies.Add(float64(n))
	if n > 0 {
		r.Logger().Debug("strategies built",
			log.FieldType(t),
			zap.Int("published", n),
			zap.Duration("elapsed", elapsed))
	}
	return nil
}

func (r *Registry) workerPool() *conc.Pool[[]byte] {
	r.poolOnce.Do(func() {
		r.pool = conc.NewPool[[]byte](r.cfg.Workers,
			conc.WithName("externalizer.marshal"),
			conc.WithConcealPanic(true))
	})
	return r.pool
}

// Close 释放 Registry 持有的协程池。已缓存的 Strategy 与 Pipeline 仍可使用。
func (r *Registry) Close() {
	r.poolOnce.Do(func() {})
	if r.pool != nil {
		r.pool.Release()
	}
}
