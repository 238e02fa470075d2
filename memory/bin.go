// Copyright 2021 ecodeclub
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"sync"

	"github.com/ecodeclub/ekit/list"
)

// Bin 表示一个箱子 是并发安全的
const (
	defaultBinCap = 64
)

type Bin[T any] struct {
	locker sync.RWMutex
	items  *list.ArrayList[T]
}

func NewBin[T any]() *Bin[T] {
	return &Bin[T]{
		items: list.NewArrayList[T](defaultBinCap),
	}
}

func (b *Bin[T]) Size() int64 {
	b.locker.RLock()
	defer b.locker.RUnlock()
	return int64(b.items.Len())
}

// Contains 用调用方给的相等判定检查条目是否已经在箱子里
func (b *Bin[T]) Contains(item T, equals func(src, dst T) bool) bool {
	b.locker.RLock()
	defer b.locker.RUnlock()
	for _, it := range b.items.AsSlice() {
		if equals(it, item) {
			return true
		}
	}
	return false
}

func (b *Bin[T]) Append(item T) {
	b.locker.Lock()
	defer b.locker.Unlock()
	_ = b.items.Append(item)
}

// removeAny 取走箱子里的某一个条目，具体取哪一个没有保证
func (b *Bin[T]) removeAny() (T, bool) {
	b.locker.Lock()
	defer b.locker.Unlock()
	length := b.items.Len()
	if length == 0 {
		var zero T
		return zero, false
	}
	item, err := b.items.Delete(length - 1)
	if err != nil {
		var zero T
		return zero, false
	}
	return item, true
}

func (b *Bin[T]) AsSlice() []T {
	b.locker.RLock()
	defer b.locker.RUnlock()
	return b.items.AsSlice()
}
