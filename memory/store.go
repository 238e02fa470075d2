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
	"context"
	"fmt"
	"sync"

	"github.com/ecodeclub/balance-api"
	"github.com/ecodeclub/balance-api/balanceerr"
	"github.com/ecodeclub/balance-api/memory/binpicker/leastfill"
	"github.com/ecodeclub/ekit/syncx"
)

// Store 把条目保存在内存箱子里的集合，是并发安全的。
// selector 从条目推导它归属的箱子标识，equals 用来在补录阶段去重。
type Store[K comparable, T any] struct {
	locker sync.RWMutex
	closed bool
	bins   syncx.Map[K, *Bin[T]]
	// 保持箱子的创建顺序，让快照在多次调用之间保持稳定
	ids      []K
	selector func(item T) K
	equals   func(src, dst T) bool
	picker   BinPicker[K]
}

// Displaced 记录重平衡之后物理位置和自身归属不一致的条目。
// 调用方需要把条目自己的归属字段改成 BinID，后续按 selector
// 重新推导箱子成员时结果才是一致的。
type Displaced[K comparable, T any] struct {
	Item  T
	BinID K
}

type StoreOption[K comparable, T any] func(s *Store[K, T])

// WithBinPicker 替换找不到归属箱子时的落点策略，默认落进数量最少的箱子。
func WithBinPicker[K comparable, T any](picker BinPicker[K]) StoreOption[K, T] {
	return func(s *Store[K, T]) {
		s.picker = picker
	}
}

func NewStore[K comparable, T any](selector func(item T) K, equals func(src, dst T) bool, opts ...StoreOption[K, T]) *Store[K, T] {
	s := &Store[K, T]{
		bins:     syncx.Map[K, *Bin[T]]{},
		selector: selector,
		equals:   equals,
		picker:   leastfill.NewPicker[K](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store[K, T]) CreateBin(ctx context.Context, id K) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.closed {
		return balanceerr.ErrStoreIsClosed
	}
	if _, ok := s.bins.Load(id); ok {
		return fmt.Errorf("%w: %v", balanceerr.ErrBinExists, id)
	}
	s.bins.Store(id, NewBin[T]())
	s.ids = append(s.ids, id)
	return nil
}

func (s *Store[K, T]) Bin(id K) (*Bin[T], bool) {
	return s.bins.Load(id)
}

// BinCounts 实现 balance.CountSource，按箱子的创建顺序返回快照。
func (s *Store[K, T]) BinCounts(ctx context.Context) ([]balance.BinCount[K], error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.locker.RLock()
	defer s.locker.RUnlock()
	if s.closed {
		return nil, balanceerr.ErrStoreIsClosed
	}
	records := make([]balance.BinCount[K], 0, len(s.ids))
	for _, id := range s.ids {
		bin, ok := s.bins.Load(id)
		if !ok {
			continue
		}
		records = append(records, balance.BinCount[K]{ID: id, Count: bin.Size()})
	}
	return records, nil
}

// Transfer 在两个箱子之间搬运至多 amount 个条目，返回实际搬运的数量。
// 具体搬运哪些条目没有保证，来源箱子不够的时候能搬多少算多少。
func (s *Store[K, T]) Transfer(ctx context.Context, amount int64, from K, to K) (int64, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	src, dst, err := s.pair(from, to)
	if err != nil {
		return 0, err
	}
	var moved int64
	for moved < amount {
		item, ok := src.removeAny()
		if !ok {
			break
		}
		dst.Append(item)
		moved++
	}
	return moved, nil
}

func (s *Store[K, T]) pair(from K, to K) (*Bin[T], *Bin[T], error) {
	s.locker.RLock()
	defer s.locker.RUnlock()
	if s.closed {
		return nil, nil, balanceerr.ErrStoreIsClosed
	}
	src, ok := s.bins.Load(from)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", balanceerr.ErrUnknownBin, from)
	}
	dst, ok := s.bins.Load(to)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", balanceerr.ErrUnknownBin, to)
	}
	return src, dst, nil
}

// AssignMissing 把 items 里还没有落进箱子的条目补进来：
// 归属箱子存在的条目直接插入，已经有相等条目的跳过，所以重跑是安全的；
// 归属箱子不存在的交给 picker 挑落点，每插入一个重新计算一次数量。
// 这个阶段只会添加，不会移动或者删除任何已有条目。
func (s *Store[K, T]) AssignMissing(ctx context.Context, items []T) error {
	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		id := s.selector(item)
		bin, ok := s.Bin(id)
		if ok {
			if !bin.Contains(item, s.equals) {
				bin.Append(item)
			}
			continue
		}
		// 找不到归属箱子的条目可能在上一次补录时被放进了任意箱子，
		// 先全量查一遍再挑落点，保证重跑安全
		if s.containsAnywhere(item) {
			continue
		}
		records, err := s.BinCounts(ctx)
		if err != nil {
			return err
		}
		target, err := s.picker.Pick(records)
		if err != nil {
			return err
		}
		bin, ok = s.Bin(target)
		if !ok {
			return fmt.Errorf("%w: %v", balanceerr.ErrUnknownBin, target)
		}
		bin.Append(item)
	}
	return nil
}

// Rebalance 以当前箱子大小做快照驱动重平衡，然后返回所有
// 所在箱子与 selector 推导结果不一致的条目，没有重复：
// 被搬走又搬回来的条目不会出现在结果里。
func (s *Store[K, T]) Rebalance(ctx context.Context) ([]Displaced[K, T], error) {
	records, err := s.BinCounts(ctx)
	if err != nil {
		return nil, err
	}
	_, err = balance.Rebalance(ctx, records, s.Transfer)
	if err != nil {
		return nil, err
	}
	return s.displaced(), nil
}

func (s *Store[K, T]) containsAnywhere(item T) bool {
	s.locker.RLock()
	defer s.locker.RUnlock()
	for _, id := range s.ids {
		bin, ok := s.bins.Load(id)
		if !ok {
			continue
		}
		if bin.Contains(item, s.equals) {
			return true
		}
	}
	return false
}

func (s *Store[K, T]) displaced() []Displaced[K, T] {
	s.locker.RLock()
	defer s.locker.RUnlock()
	res := make([]Displaced[K, T], 0, 16)
	for _, id := range s.ids {
		bin, ok := s.bins.Load(id)
		if !ok {
			continue
		}
		for _, item := range bin.AsSlice() {
			if s.selector(item) != id {
				res = append(res, Displaced[K, T]{Item: item, BinID: id})
			}
		}
	}
	return res
}

func (s *Store[K, T]) Close() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	s.closed = true
	return nil
}
