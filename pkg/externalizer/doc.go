// Package externalizer 通过反射为任意结构体生成二进制编解码流水线（Pipeline）。
//
// 一个 Pipeline 由结构体按声明顺序排列的可持久化字段组成，每个字段绑定一个
// 由 Registry 按声明类型解析出的 Strategy。写出与读入严格按同一顺序遍历字段，
// 编码中不包含字段名或类型信息，双方必须使用相同的结构体定义。
//
// 字段筛选规则：
//   - 未导出字段不参与编解码；
//   - 带有 `extern:"-"` 标签的字段不参与编解码；
//   - 匿名嵌入的结构体作为独立的一层，由该类型自己的 Pipeline 处理。
//
// 除基本类型外，每个字段都以 1 字节的存在标记开头：0 表示值缺失（nil），
// 1 表示后面跟随值的编码。
package externalizer
