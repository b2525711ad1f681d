package externalizer

import (
	"bytes"
	"context"
	"reflect"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/externalizor-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/externalizor-go/pkg/metrics"
	"github.com/lk2023060901/externalizor-go/pkg/util/conc"
	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
	"github.com/lk2023060901/externalizor-go/pkg/util/typeutil"
	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// Encode 将 v 写入 out。
//
// 普通结构体（T 或 *T）使用其 Pipeline，顶层没有存在标记；
// 其他受支持的类型（包括自描述类型）使用对应的 Strategy。
func (r *Registry) Encode(out wire.Sink, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return merr.WrapErrParameterMissing("value")
	}
	if rv.Kind() == reflect.Pointer && reflective(rv.Type().Elem()) {
		if rv.IsNil() {
			return merr.WrapErrParameterMissing("value", "nil pointer")
		}
		rv = rv.Elem()
	}
	if reflective(rv.Type()) {
		p, err := r.Pipeline(rv.Type())
		if err != nil {
			return err
		}
		return p.encodeFields(out, rv)
	}
	s, err := r.Strategy(rv.Type())
	if err != nil {
		return err
	}
	return s.Encode(out, rv)
}

// Decode 从 in 中读出一个值写入 ptr 指向的对象。ptr 必须是非 nil 指针。
func (r *Registry) Decode(in wire.Source, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return merr.WrapErrParameterInvalidMsg("decode target must be a non-nil pointer, got %T", ptr)
	}
	target := rv.Elem()
	if reflective(target.Type()) {
		p, err := r.Pipeline(target.Type())
		if err != nil {
			return err
		}
		return p.decodeFields(in, target)
	}
	s, err := r.Strategy(target.Type())
	if err != nil {
		return err
	}
	return s.Decode(in, target)
}

// reflective 判断 t 在顶层是否直接使用 Pipeline。
func reflective(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && !isSelfDescribing(t)
}

// Marshal 返回 v 的编码结果。
func (r *Registry) Marshal(v any) ([]byte, error) {
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)

	if err := r.Encode(wire.NewWriter(buf), v); err != nil {
		metrics.ExternalizerErrors.WithLabelValues(metrics.EncodeLabel).Inc()
		return nil, err
	}
	metrics.ExternalizerBytes.WithLabelValues(metrics.EncodeLabel).Add(float64(buf.Len()))
	return bytebuffer.Clone(buf), nil
}

// Unmarshal 将 data 解码到 ptr。data 必须被完整消费，多余的字节视为数据不匹配。
func (r *Registry) Unmarshal(data []byte, ptr any) error {
	br := bytes.NewReader(data)
	if err := r.Decode(wire.NewReader(br, wire.WithMaxLength(r.cfg.MaxLength)), ptr); err != nil {
		metrics.ExternalizerErrors.WithLabelValues(metrics.DecodeLabel).Inc()
		return err
	}
	if br.Len() > 0 {
		metrics.ExternalizerErrors.WithLabelValues(metrics.DecodeLabel).Inc()
		return merr.WrapErrSchemaMismatch(reflect.TypeOf(ptr), "trailing bytes after value")
	}
	metrics.ExternalizerBytes.WithLabelValues(metrics.DecodeLabel).Add(float64(len(data)))
	return nil
}

// Size 返回 v 编码后的字节数，不产生实际输出。
func (r *Registry) Size(v any) (int64, error) {
	var c wire.Counter
	if err := r.Encode(&c, v); err != nil {
		return 0, err
	}
	return c.Len(), nil
}

// MarshalAll 在协程池中并行编码多个相互独立的值，结果与 values 一一对应。
// 任一值编码失败时返回第一个错误。
func (r *Registry) MarshalAll(ctx context.Context, values ...any) ([][]byte, error) {
	pool := r.workerPool()
	if pool == nil {
		return nil, merr.WrapErrOperationNotSupported("MarshalAll", "registry closed")
	}

	futures := make([]*conc.Future[[]byte], 0, len(values))
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			// 已提交的任务仍需等待结束，避免其在返回后继续写入。
			_ = conc.AwaitAll(futures...)
			return nil, err
		}
		futures = append(futures, pool.Submit(func() ([]byte, error) {
			return r.Marshal(v)
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		return nil, err
	}

	out := make([][]byte, len(futures))
	for i, f := range futures {
		out[i] = f.Value()
	}
	return out, nil
}

// Warmup 并发构建 types 中所有类型的 Strategy（结构体同时构建 Pipeline），
// 让类型错误在启动阶段暴露。重复的类型只构建一次。
func (r *Registry) Warmup(ctx context.Context, types ...reflect.Type) error {
	g, ctx := errgroup.WithContext(ctx)
	if r.cfg.WarmupParallelism > 0 {
		g.SetLimit(r.cfg.WarmupParallelism)
	}
	seen := typeutil.NewSet[reflect.Type]()
	for _, t := range types {
		if !seen.Add(t) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := r.Strategy(t); err != nil {
				return errors.Wrapf(err, "warmup %s", t)
			}
			return nil
		})
	}
	return g.Wait()
}
