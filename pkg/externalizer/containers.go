package externalizer

import (
	"bytes"
	"fmt"
	"reflect"
	"slices"

	"github.com/lk2023060901/externalizor-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

// maxPrealloc 是解码切片与 map 时按输入长度预分配的元素上限。
const maxPrealloc = 1024

// arrayCodec 编码 [N]T：元素个数 + 逐个元素。解码时个数必须等于 N。
type arrayCodec struct {
	typ  reflect.Type
	elem *strategy
}

func (c *arrayCodec) encode(out wire.Sink, v reflect.Value) error {
	n := v.Len()
	if err := out.WriteLen(n); err != nil {
		return err
	}
	for i := range n {
		if err := c.elem.Encode(out, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *arrayCodec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadLen()
	if err != nil {
		return err
	}
	if n != c.typ.Len() {
		return merr.WrapErrSchemaMismatch(c.typ, fmt.Sprintf("array length %d, expected %d", n, c.typ.Len()))
	}
	for i := range n {
		if err := c.elem.Decode(in, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// sliceCodec 编码 []T：元素个数 + 逐个元素。
type sliceCodec struct {
	typ  reflect.Type
	elem *strategy
}

func (c *sliceCodec) encode(out wire.Sink, v reflect.Value) error {
	n := v.Len()
	if err := out.WriteLen(n); err != nil {
		return err
	}
	for i := range n {
		if err := c.elem.Encode(out, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *sliceCodec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadLen()
	if err != nil {
		return err
	}
	// 元素个数来自输入，只预分配有限的容量，其余随实际读出的元素增长。
	s := reflect.MakeSlice(c.typ, 0, min(n, maxPrealloc))
	zero := reflect.Zero(c.typ.Elem())
	for i := range n {
		s = reflect.Append(s, zero)
		if err := c.elem.Decode(in, s.Index(i)); err != nil {
			return err
		}
	}
	v.Set(s)
	return nil
}

// bytesCodec 是元素为基本 byte 类型的切片的快速路径，编码结果与 sliceCodec 相同。
type bytesCodec struct{}

func (bytesCodec) encode(out wire.Sink, v reflect.Value) error {
	return out.WriteBytes(v.Bytes())
}

func (bytesCodec) decode(in wire.Source, v reflect.Value) error {
	b, err := in.ReadBytes()
	if err != nil {
		return err
	}
	v.SetBytes(b)
	return nil
}

// mapCodec 编码 map[K]V：条目个数 + (key, value) 序列。
// 条目按 key 的编码字节排序后写出，保证相同内容的 map 产生相同的字节。
type mapCodec struct {
	typ  reflect.Type
	key  *strategy
	elem *strategy
}

type mapEntry struct {
	start, end int
	value      reflect.Value
}

func (c *mapCodec) encode(out wire.Sink, v reflect.Value) error {
	n := v.Len()
	if err := out.WriteLen(n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	keys := wire.NewWriter(buf)

	entries := make([]mapEntry, 0, n)
	iter := v.MapRange()
	for iter.Next() {
		start := buf.Len()
		if err := c.key.Encode(keys, iter.Key()); err != nil {
			return err
		}
		entries = append(entries, mapEntry{start: start, end: buf.Len(), value: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b mapEntry) int {
		return bytes.Compare(buf.B[a.start:a.end], buf.B[b.start:b.end])
	})

	for _, e := range entries {
		if err := out.WriteRaw(buf.B[e.start:e.end]); err != nil {
			return err
		}
		if err := c.elem.Encode(out, e.value); err != nil {
			return err
		}
	}
	return nil
}

func (c *mapCodec) decode(in wire.Source, v reflect.Value) error {
	n, err := in.ReadLen()
	if err != nil {
		return err
	}
	m := reflect.MakeMapWithSize(c.typ, min(n, maxPrealloc))
	key := reflect.New(c.typ.Key()).Elem()
	elem := reflect.New(c.typ.Elem()).Elem()
	for range n {
		key.SetZero()
		elem.SetZero()
		if err := c.key.Decode(in, key); err != nil {
			return err
		}
		if err := c.elem.Decode(in, elem); err != nil {
			return err
		}
		if m.MapIndex(key).IsValid() {
			return merr.WrapErrSchemaMismatch(c.typ, "duplicate map key")
		}
		m.SetMapIndex(key, elem)
	}
	v.Set(m)
	return nil
}
