// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package typeutil

import "github.com/samber/lo"

// Set 是以 map 实现的集合，零值不可写入，非并发安全。
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](elements ...T) Set[T] {
	set := make(Set[T], len(elements))
	set.Insert(elements...)
	return set
}

func (set Set[T]) Insert(elements ...T) {
	for _, e := range elements {
		set[e] = struct{}{}
	}
}

// Add 插入 e，返回 e 在插入前是否不存在。
func (set Set[T]) Add(e T) bool {
	if _, ok := set[e]; ok {
		return false
	}
	set[e] = struct{}{}
	return true
}

// Contain 判断 elements 是否全部在集合中。
func (set Set[T]) Contain(elements ...T) bool {
	return lo.EveryBy(elements, func(e T) bool {
		_, ok := set[e]
		return ok
	})
}

func (set Set[T]) Remove(elements ...T) {
	for _, e := range elements {
		delete(set, e)
	}
}

// Collect 以任意顺序返回全部元素。
func (set Set[T]) Collect() []T {
	return lo.Keys(set)
}

func (set Set[T]) Len() int {
	return len(set)
}
