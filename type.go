package balance

import "context"

// BinCount 一个箱子的计数快照。
// ID 在创建之后不再变化，Count 会在重平衡过程中被原地修改。
type BinCount[K comparable] struct {
	ID    K
	Count int64
}

// TransferFunc 把至多 amount 个条目从 from 搬运到 to，返回实际搬运的数量。
// 返回值小于等于 0 且 error 为 nil 表示外部环境暂时搬不动了，
// 引擎会接受当前的不均衡而不是报错。
type TransferFunc[K comparable] func(ctx context.Context, amount int64, from K, to K) (int64, error)

// CountSource 枚举当前每个箱子的条目数量。
// 来源可以是内存集合、数据库的 GROUP BY，也可以是消息队列的堆积量。
type CountSource[K comparable] interface {
	BinCounts(ctx context.Context) ([]BinCount[K], error)
}
