package model

import (
	"time"

	"gorm.io/datatypes"
)

// 表单运行模式
const (
	TestModeNormal   = 0 // 正常
	TestModeTest     = 1 // 测试
	TestModeArchived = 3 // 已归档（软删除）
)

// TableManager 表单定义目录，每行对应一张动态巡检表
// 注意：TableName 是数据列，所以本模型不能再定义 TableName() 方法，
// 实际表名使用 GORM 默认的 table_managers
type TableManager struct {
	ID            int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	TableName     string         `json:"tableName" gorm:"type:varchar(200);uniqueIndex;not null"` // 规范化后的物理表名（user_ 前缀）
	DisplayName   string         `json:"displayName" gorm:"type:varchar(200);not null"`
	SchemaContent datatypes.JSON `json:"schemaContent" gorm:"type:json"` // 表单 JSON 定义原文
	ItemsCnt      int            `json:"itemsCnt" gorm:"default:0"`
	TestMode      int            `json:"testMode" gorm:"default:0;index"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

// IsArchived 是否已归档
func (t *TableManager) IsArchived() bool {
	return t.TestMode == TestModeArchived
}
