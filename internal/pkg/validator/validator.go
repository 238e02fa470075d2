package validator

import (
	"regexp"
	"strings"
)

const (
	maxBinNameLength = 50
)

// IsValidBinName 校验字符串形式的箱子名称。
// 名称会出现在 SQL 的数据和表名里，所以字符集故意收得很紧。
func IsValidBinName(name string) bool {
	// 检查名称长度
	if !(0 < len(name) && len(name) <= maxBinNameLength) {
		return false
	}

	// 检查特殊字符是否作为开头
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return false
	}

	// 使用正则表达式检查名称格式
	regex := regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-.]*[a-zA-Z0-9]$`)
	return regex.MatchString(name)
}
