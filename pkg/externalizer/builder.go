package externalizer

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

// builder 在 Registry.mu 下完成一次构建。
//
// 构建中的 Strategy/Pipeline 先登记为占位，递归遇到同一类型时直接复用占位，
// 从而支持自引用类型。所有结果在构建全部成功后才由 publish 发布。
type builder struct {
	r          *Registry
	strategies map[reflect.Type]*strategy
	pipelines  map[reflect.Type]*Pipeline
}

func newBuilder(r *Registry) *builder {
	return &builder{
		r:          r,
		strategies: make(map[reflect.Type]*strategy),
		pipelines:  make(map[reflect.Type]*Pipeline),
	}
}

// publish 发布本次构建的全部结果，返回新发布的 Strategy 数量。
func (b *builder) publish() int {
	for t, p := range b.pipelines {
		b.r.pipelines.Insert(t, p)
	}
	for t, s := range b.strategies {
		b.r.strategies.Insert(t, s)
	}
	return len(b.strategies)
}

func (b *builder) allocator(t reflect.Type) allocator {
	return newAllocator(t, b.r.factories[t])
}

func (b *builder) resolve(t reflect.Type) (*strategy, error) {
	if s, ok := b.r.strategies.Get(t); ok {
		return s, nil
	}
	if s, ok := b.strategies[t]; ok {
		return s, nil
	}
	s := &strategy{typ: t}
	b.strategies[t] = s
	if err := b.fill(s, t); err != nil {
		return nil, err
	}
	return s, nil
}

// fill 按优先级为 t 选择编码方式。每个分支在递归解析依赖类型之前先写好 kind 与 nullable。
func (b *builder) fill(s *strategy, t reflect.Type) error {
	// *E 的方法集包含 E 的方法，指针必须交给 fillPointer。
	if t.Kind() != reflect.Pointer && isEnum(t) {
		s.header(KindEnum, true)
		c, err := newEnumCodec(t)
		if err != nil {
			return err
		}
		s.body = c
		return nil
	}

	if c := primitiveCodec(t.Kind()); c != nil {
		s.header(KindPrimitive, false)
		s.body = c
		return nil
	}

	switch t.Kind() {
	case reflect.String:
		s.header(KindNullable, true)
		s.body = stringCodec{}
		return nil

	case reflect.Pointer:
		return b.fillPointer(s, t)

	case reflect.Array:
		s.header(KindArray, true)
		elem, err := b.resolve(t.Elem())
		if err != nil {
			return errors.Wrapf(err, "element of %s", t)
		}
		s.body = &arrayCodec{typ: t, elem: elem}
		return nil

	case reflect.Slice:
		s.header(KindCollection, true)
		s.isNil = isNilValue
		elem, err := b.resolve(t.Elem())
		if err != nil {
			return errors.Wrapf(err, "element of %s", t)
		}
		if t.Elem().Kind() == reflect.Uint8 && elem.kind == KindPrimitive {
			s.body = bytesCodec{}
		} else {
			s.body = &sliceCodec{typ: t, elem: elem}
		}
		return nil

	case reflect.Map:
		s.header(KindMap, true)
		s.isNil = isNilValue
		key, err := b.resolve(t.Key())
		if err != nil {
			return errors.Wrapf(err, "key of %s", t)
		}
		elem, err := b.resolve(t.Elem())
		if err != nil {
			return errors.Wrapf(err, "value of %s", t)
		}
		s.body = &mapCodec{typ: t, key: key, elem: elem}
		return nil

	case reflect.Struct:
		switch {
		case isExternalizable(t):
			s.header(KindExternalizable, true)
			s.body = &externalizableCodec{typ: t, alloc: b.allocator(t)}
		case isBinaryMarshaler(t):
			s.header(KindExternalizable, true)
			s.body = &binaryCodec{typ: t, alloc: b.allocator(t)}
		default:
			s.header(KindObject, true)
			p, err := b.pipeline(t)
			if err != nil {
				return err
			}
			s.body = &objectCodec{pipeline: p}
		}
		return nil

	default:
		return merr.WrapErrUnsupportedType(t, "", "unsupported kind "+t.Kind().String())
	}
}

// fillPointer 处理 *T：T 本身可缺失时复用 T 的存在标记，否则（基本类型）补上一个存在标记。
func (b *builder) fillPointer(s *strategy, t reflect.Type) error {
	elemType := t.Elem()
	if elemType.Kind() == reflect.Pointer {
		return merr.WrapErrUnsupportedType(t, "", "pointer to pointer")
	}
	elem, err := b.resolve(elemType)
	if err != nil {
		return err
	}
	kind := elem.kind
	if !elem.nullable {
		kind = KindNullable
	}
	s.header(kind, true)
	s.isNil = isNilValue
	s.body = &pointerCodec{elem: elem, alloc: b.allocator(elemType)}
	return nil
}

// pipeline 返回结构体 t 的 Pipeline，必要时构建。
func (b *builder) pipeline(t reflect.Type) (*Pipeline, error) {
	if p, ok := b.r.pipelines.Get(t); ok {
		return p, nil
	}
	if p, ok := b.pipelines[t]; ok {
		return p, nil
	}
	p := &Pipeline{typ: t, alloc: b.allocator(t)}
	b.pipelines[t] = p

	fields := make([]Field, 0, t.NumField())
	for i := range t.NumField() {
		sf := t.Field(i)
		f, ok, err := b.field(sf)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s.%s", t, sf.Name)
		}
		if ok {
			fields = append(fields, f)
		}
	}
	p.fields = fields
	return p, nil
}

func (b *builder) field(sf reflect.StructField) (Field, bool, error) {
	f := Field{Name: sf.Name, Type: sf.Type, Index: sf.Index[0]}
	switch classify(sf) {
	case fieldSkip:
		return f, false, nil

	case fieldLayer:
		p, err := b.pipeline(sf.Type)
		if err != nil {
			return f, false, err
		}
		f.Embedded = true
		f.strategy = &strategy{kind: KindObject, typ: sf.Type, body: &objectCodec{pipeline: p}}
		return f, true, nil

	default:
		s, err := b.resolve(sf.Type)
		if err != nil {
			return f, false, err
		}
		f.strategy = s
		return f, true, nil
	}
}
