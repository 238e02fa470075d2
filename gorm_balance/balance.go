package gorm_balance

import (
	"context"
	"fmt"
	"log"

	"github.com/ecodeclub/balance-api"
	"github.com/ecodeclub/balance-api/balanceerr"
	"github.com/ecodeclub/balance-api/gorm_balance/domain"
	"github.com/ecodeclub/balance-api/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const defaultBatchLimit = 100

// Balancer 把条目保存在数据库表里，bin_id 列表示归属的箱子。
// 箱子本身只是登记在内存里的名字，空箱子也会出现在数量快照里。
type Balancer struct {
	Db    *gorm.DB
	table string
	// 登记过的箱子，保持登记顺序
	bins []string
	// 单次 SQL 至多处理多少行
	limit int
}

type BalancerOption func(b *Balancer)

func WithBatchLimit(limit int) BalancerOption {
	return func(b *Balancer) {
		b.limit = limit
	}
}

func NewBalancer(db *gorm.DB, table string, opts ...BalancerOption) (*Balancer, error) {
	if !validator.IsValidBinName(table) {
		return nil, fmt.Errorf("%w: %s", balanceerr.ErrInvalidBinName, table)
	}
	err := db.Table(table).AutoMigrate(&domain.Item{})
	if err != nil {
		return nil, errors.Wrap(err, "gorm_balance: 建表失败")
	}
	b := &Balancer{
		Db:    db,
		table: table,
		bins:  make([]string, 0, 16),
		limit: defaultBatchLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Table 返回条目所在的表名。
func (b *Balancer) Table() string {
	return b.table
}

func (b *Balancer) CreateBin(ctx context.Context, id string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !validator.IsValidBinName(id) {
		return fmt.Errorf("%w: %s", balanceerr.ErrInvalidBinName, id)
	}
	for _, bin := range b.bins {
		if bin == id {
			return fmt.Errorf("%w: %s", balanceerr.ErrBinExists, id)
		}
	}
	b.bins = append(b.bins, id)
	return nil
}

// BinCounts 实现 balance.CountSource，用 GROUP BY 统计每个箱子的行数。
// 登记过但还没有任何行的箱子也会出现在快照里，数量为 0。
func (b *Balancer) BinCounts(ctx context.Context) ([]balance.BinCount[string], error) {
	var rows []struct {
		BinID string
		Total int64
	}
	err := b.Db.WithContext(ctx).Table(b.table).
		Select("bin_id AS bin_id, COUNT(*) AS total").
		Group("bin_id").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm_balance: 统计箱子数量失败")
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.BinID] = row.Total
	}
	records := make([]balance.BinCount[string], 0, len(b.bins))
	for _, id := range b.bins {
		records = append(records, balance.BinCount[string]{ID: id, Count: counts[id]})
	}
	return records, nil
}

// Transfer 在一个事务里把 from 箱子的至多 amount 行改挂到 to 箱子，
// 返回实际改动的行数。挑选哪些行没有保证，不够的时候能搬多少算多少。
func (b *Balancer) Transfer(ctx context.Context, amount int64, from string, to string) (int64, error) {
	var moved int64
	err := b.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for moved < amount {
			batch := min(int64(b.limit), amount-moved)
			var ids []uint
			err := tx.Table(b.table).
				Where("bin_id = ?", from).
				Limit(int(batch)).
				Pluck("id", &ids).Error
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return nil
			}
			res := tx.Table(b.table).
				Where("id IN ?", ids).
				Update("bin_id", to)
			if res.Error != nil {
				return res.Error
			}
			moved += res.RowsAffected
			if int64(len(ids)) < batch {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "gorm_balance: 搬运失败")
	}
	return moved, nil
}

// AssignMissing 把 bin_id 不在登记箱子里的行补挂到当前数量最少的箱子，
// 一批一批处理，每一批重新统计一次数量。返回补挂的行数。
func (b *Balancer) AssignMissing(ctx context.Context) (int64, error) {
	if len(b.bins) == 0 {
		return 0, balanceerr.ErrNoBins
	}
	var assigned int64
	for {
		var ids []uint
		err := b.Db.WithContext(ctx).Table(b.table).
			Where("bin_id NOT IN ?", b.bins).
			Limit(b.limit).
			Pluck("id", &ids).Error
		if err != nil {
			return assigned, errors.Wrap(err, "gorm_balance: 查找待补挂的行失败")
		}
		if len(ids) == 0 {
			return assigned, nil
		}
		records, err := b.BinCounts(ctx)
		if err != nil {
			return assigned, err
		}
		target := records[0]
		for _, r := range records[1:] {
			if r.Count < target.Count {
				target = r
			}
		}
		res := b.Db.WithContext(ctx).Table(b.table).
			Where("id IN ?", ids).
			Update("bin_id", target.ID)
		if res.Error != nil {
			return assigned, errors.Wrap(res.Error, "gorm_balance: 补挂失败")
		}
		assigned += res.RowsAffected
	}
}

// Rebalance 以当前数据库里的数量为快照做一次重平衡，返回实际搬运的行数。
// 快照和搬运之间没有全局锁，调用方需要保证同一张表上
// 不会有两个重平衡同时跑。
func (b *Balancer) Rebalance(ctx context.Context) (int64, error) {
	runID := uuid.New().String()
	records, err := b.BinCounts(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("重平衡 %s 开始, 箱子数 %d, 条目总数 %d", runID, len(records), balance.Total(records))
	moved, err := balance.Rebalance(ctx, records, b.Transfer)
	if err != nil {
		return moved, errors.Wrapf(err, "gorm_balance: 重平衡 %s 失败", runID)
	}
	log.Printf("重平衡 %s 结束, 实际搬运 %d", runID, moved)
	return moved, nil
}
