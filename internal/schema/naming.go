package schema

import (
	"fmt"
	"strings"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"gorm.io/gorm"
)

// TablePrefix 动态巡检表的统一前缀
const TablePrefix = "user_"

// maxArchiveAttempts 归档名搜索的硬上限
const maxArchiveAttempts = 9999

// Canonicalize 把用户提供的表单标识符规范化为物理表名：
// 去除首尾空白，没有 user_ 前缀则补上。纯函数，幂等
func Canonicalize(identifier string) string {
	name := strings.TrimSpace(identifier)
	if strings.HasPrefix(name, TablePrefix) {
		return name
	}
	return TablePrefix + name
}

// SanitizeIdentifier 校验标识符只含字母、数字、下划线。
// DDL 中的标识符无法参数化，这里是防注入的唯一关口
func SanitizeIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty identifier", ErrValidation)
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			continue
		}
		return fmt.Errorf("%w: identifier %q contains illegal character %q", ErrValidation, name, r)
	}
	return nil
}

// ArchiveName 为要归档的表生成 <name>_oldN，N 取最小的可用正整数。
// 目录表和物理表都要检查：部分失败后两边可能不一致。
// 超过上限返回 ErrExhausted
func ArchiveName(tx *gorm.DB, tableName string) (string, error) {
	for n := 1; n <= maxArchiveAttempts; n++ {
		candidate := fmt.Sprintf("%s_old%d", tableName, n)

		var count int64
		if err := tx.Model(&model.TableManager{}).
			Where("table_name = ?", candidate).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check catalog for %s: %w", candidate, err)
		}
		if count > 0 {
			continue
		}

		if tx.Migrator().HasTable(candidate) {
			continue
		}

		return candidate, nil
	}
	return "", fmt.Errorf("%w: no free archive name for %s within %d attempts", ErrExhausted, tableName, maxArchiveAttempts)
}
