package externalizer

import (
	"reflect"
	"strings"
)

const tagName = "extern"

// Field 描述一个参与编解码的结构体字段。字段名只用于诊断，不会被编码。
type Field struct {
	Name string
	Type reflect.Type
	// Index 为字段在所属结构体中的下标（reflect.Value.Field 的参数）。
	Index int
	// Embedded 表示该字段是匿名嵌入的结构体，作为独立的一层编码，没有存在标记。
	Embedded bool

	strategy *strategy
}

// Strategy 返回字段绑定的 Strategy。
func (f *Field) Strategy() Strategy {
	return f.strategy
}

// Get 返回 obj（结构体值）中该字段的当前值。
func (f *Field) Get(obj reflect.Value) reflect.Value {
	return obj.Field(f.Index)
}

// Set 将 value 写入 obj（可设置的结构体值）的该字段。
func (f *Field) Set(obj reflect.Value, value reflect.Value) {
	obj.Field(f.Index).Set(value)
}

// fieldRule 是字段的筛选结果。
type fieldRule int

const (
	fieldSkip fieldRule = iota
	fieldValue
	fieldLayer
)

// classify 决定字段是否参与编解码，以及是否作为嵌入层处理。
func classify(sf reflect.StructField) fieldRule {
	if isTransient(sf.Tag) {
		return fieldSkip
	}
	if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !isSelfDescribing(sf.Type) && !isEnum(sf.Type) {
		// 未导出的嵌入结构体也可以作为一层，其导出字段仍然可以访问。
		return fieldLayer
	}
	if !sf.IsExported() {
		return fieldSkip
	}
	return fieldValue
}

func isTransient(tag reflect.StructTag) bool {
	value, ok := tag.Lookup(tagName)
	if !ok {
		return false
	}
	name, _, _ := strings.Cut(value, ",")
	return name == "-"
}
