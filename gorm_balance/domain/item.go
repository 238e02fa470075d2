package domain

import (
	"gorm.io/gorm"
)

// Item 一条待处理的工作项，BinID 表示它归属的箱子
type Item struct {
	gorm.Model
	BinID string `gorm:"column:bin_id;index;not null"`
	Key   string `gorm:"column:item_key;not null"`
	Value string `gorm:"column:value;not null"`
}
