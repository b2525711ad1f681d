package externalizer

import (
	"fmt"
	"reflect"

	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

// allocator 返回一个指向新实例的指针（reflect.Value 的 Kind 为 Pointer）。
type allocator func() (reflect.Value, error)

// factory 是去掉类型参数后的 Factory。
type factory struct {
	typ reflect.Type
	fn  func() (any, error)
}

func newAllocator(t reflect.Type, f *factory) allocator {
	if f == nil {
		return func() (reflect.Value, error) {
			return reflect.New(t), nil
		}
	}
	return func() (p reflect.Value, err error) {
		defer func() {
			if x := recover(); x != nil {
				err = merr.WrapErrInstantiation(t, fmt.Errorf("factory panicked: %v", x))
			}
		}()
		obj, err := f.fn()
		if err != nil {
			return reflect.Value{}, merr.WrapErrInstantiation(t, err)
		}
		p = reflect.ValueOf(obj)
		if p.IsNil() {
			return reflect.Value{}, merr.WrapErrInstantiation(t, fmt.Errorf("factory returned nil"))
		}
		return p, nil
	}
}
