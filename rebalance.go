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

package balance

import (
	"context"
	"fmt"

	"github.com/ecodeclub/balance-api/balanceerr"
)

// Rebalance 在一次调用内把 records 描述的箱子搬运到均衡状态：
// transfer 配合的情况下，结束之后每个箱子的数量要么是 Low 要么是 High。
// Low 和 High 以传入时的快照计算一次，整个过程中不再变化。
//
// records 的 Count 会被原地修改，始终反映 transfer 实际上报的搬运量，
// 即使中途出错也不会回滚。返回值为实际搬运的总量。
//
// transfer 的调用是严格串行的：每一次搬运的结果都会先记账，
// 再用更新后的数量挑选下一对箱子。
func Rebalance[K comparable](ctx context.Context, records []BinCount[K], transfer TransferFunc[K]) (int64, error) {
	if err := checkRecords(records); err != nil {
		return 0, err
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	low := Low(records)
	high := High(records)
	var moved int64
	for i := range records {
		// 先把超过 high 的部分搬给当前数量最少的箱子
		for records[i].Count > high {
			t := minIndex(records)
			if t == i {
				break
			}
			amount := min(high-records[t].Count, records[i].Count-low)
			if amount <= 0 {
				return moved, fmt.Errorf("%w: 箱子 %v 还有 %d 个条目",
					balanceerr.ErrNoHeadroom, records[i].ID, records[i].Count)
			}
			n, err := transfer(ctx, amount, records[i].ID, records[t].ID)
			if err != nil {
				return moved, err
			}
			if n <= 0 {
				break
			}
			records[i].Count -= n
			records[t].Count += n
			moved += n
		}
		// 再从当前数量最多的箱子补齐低于 low 的部分
		for records[i].Count < low {
			s := maxIndex(records)
			if s == i {
				break
			}
			amount := min(low-records[i].Count, records[s].Count-low)
			if amount <= 0 {
				return moved, fmt.Errorf("%w: 箱子 %v 只有 %d 个条目",
					balanceerr.ErrNoHeadroom, records[i].ID, records[i].Count)
			}
			n, err := transfer(ctx, amount, records[s].ID, records[i].ID)
			if err != nil {
				return moved, err
			}
			if n <= 0 {
				break
			}
			records[s].Count -= n
			records[i].Count += n
			moved += n
		}
	}
	return moved, nil
}

func checkRecords[K comparable](records []BinCount[K]) error {
	if len(records) == 0 {
		return balanceerr.ErrNoBins
	}
	ids := make(map[K]struct{}, len(records))
	for _, r := range records {
		if r.Count < 0 {
			return fmt.Errorf("%w: %v", balanceerr.ErrNegativeCount, r.ID)
		}
		if _, ok := ids[r.ID]; ok {
			return fmt.Errorf("%w: %v", balanceerr.ErrDuplicateBin, r.ID)
		}
		ids[r.ID] = struct{}{}
	}
	return nil
}

// minIndex 返回当前数量最少的箱子下标，数量相同取靠前的。
func minIndex[K comparable](records []BinCount[K]) int {
	idx := 0
	for i, r := range records {
		if r.Count < records[idx].Count {
			idx = i
		}
	}
	return idx
}

// maxIndex 返回当前数量最多的箱子下标，数量相同取靠前的。
func maxIndex[K comparable](records []BinCount[K]) int {
	idx := 0
	for i, r := range records {
		if r.Count > records[idx].Count {
			idx = i
		}
	}
	return idx
}
