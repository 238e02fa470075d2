package balanceerr

import "errors"

var (
	ErrNoBins         = errors.New("没有任何箱子")
	ErrDuplicateBin   = errors.New("箱子标识重复")
	ErrNegativeCount  = errors.New("箱子数量为负数")
	ErrNoHeadroom     = errors.New("箱子仍然越界但已经没有可搬运的余量")
	ErrUnknownBin     = errors.New("箱子不存在")
	ErrBinExists      = errors.New("箱子已经存在")
	ErrInvalidBinName = errors.New("非法的箱子名称")
	ErrStoreIsClosed  = errors.New("存储已经关闭")
)
