package schema

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ddlBuilder 按方言拼接 DDL 语句。
// 表名和列名无法参数化，所有标识符必须先过 SanitizeIdentifier
type ddlBuilder struct {
	dialect string // mysql, postgres, sqlite
}

func newDDLBuilder(tx *gorm.DB) ddlBuilder {
	return ddlBuilder{dialect: tx.Dialector.Name()}
}

// quote 标识符加引号（MySQL 反引号，其余双引号）
func (b ddlBuilder) quote(name string) string {
	if b.dialect == "mysql" {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// textType 动态项目列的文本类型
func (b ddlBuilder) textType() string {
	if b.dialect == "mysql" {
		return "LONGTEXT"
	}
	return "TEXT"
}

func (b ddlBuilder) intType() string {
	if b.dialect == "sqlite" {
		return "INTEGER"
	}
	return "BIGINT"
}

func (b ddlBuilder) datetimeType() string {
	switch b.dialect {
	case "postgres":
		return "TIMESTAMP"
	case "sqlite":
		return "DATETIME"
	default:
		return "DATETIME"
	}
}

// surrogatePKColumn 代理主键列定义（自增，列名 <table>Id）
func (b ddlBuilder) surrogatePKColumn(table string) string {
	col := b.quote(table + "Id")
	switch b.dialect {
	case "postgres":
		return col + " BIGSERIAL NOT NULL"
	case "sqlite":
		// INTEGER 主键在 SQLite 中是 rowid 别名，天然自增
		return col + " INTEGER NOT NULL"
	default:
		return col + " BIGINT NOT NULL AUTO_INCREMENT"
	}
}

// CreateTableSQL 整表建表语句：固定基础列 + 每个项目两列 + 命名主键约束。
// 单条语句执行，保证建表和主键约束原子
func (b ddlBuilder) CreateTableSQL(table string, itemIDs []int) string {
	cols := []string{
		b.surrogatePKColumn(table),
		b.quote("UserId") + " " + b.intType() + " NULL",
		b.quote("PointInfoId") + " " + b.intType() + " NULL",
		b.quote("TableName") + " VARCHAR(64) NULL",
		b.quote("ReviewerId") + " " + b.intType() + " NULL",
		b.quote("ReviewerComment") + " VARCHAR(255) NULL",
		b.quote("CheckDate") + " " + b.datetimeType() + " NULL",
	}

	for _, id := range itemIDs {
		cols = append(cols,
			fmt.Sprintf("%s %s NULL", b.quote(fmt.Sprintf("Item%d", id)), b.textType()),
			fmt.Sprintf("%s %s NULL", b.quote(fmt.Sprintf("Item%d_Remark", id)), b.textType()),
		)
	}

	pk := fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", b.quote("PK_"+table), b.quote(table+"Id"))

	return fmt.Sprintf("CREATE TABLE %s (\n  %s,\n  %s\n)",
		b.quote(table), strings.Join(cols, ",\n  "), pk)
}

// DropTableSQL DROP TABLE IF EXISTS 在三种方言下语法一致
func (b ddlBuilder) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + b.quote(table)
}

// AddColumnsSQL 增量加列。MySQL/PostgreSQL 一条 ALTER 加全部列，
// SQLite 每条 ALTER 只能加一列
func (b ddlBuilder) AddColumnsSQL(table string, columns []string) []string {
	if len(columns) == 0 {
		return nil
	}

	if b.dialect == "sqlite" {
		stmts := make([]string, 0, len(columns))
		for _, col := range columns {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s NULL",
				b.quote(table), b.quote(col), b.textType()))
		}
		return stmts
	}

	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("ADD %s %s NULL", b.quote(col), b.textType()))
	}
	return []string{fmt.Sprintf("ALTER TABLE %s %s", b.quote(table), strings.Join(parts, ", "))}
}

// RenameTableSQL ALTER TABLE ... RENAME TO 在三种方言下语法一致
func (b ddlBuilder) RenameTableSQL(oldTable, newTable string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", b.quote(oldTable), b.quote(newTable))
}

// RenamePKConstraintSQL 重命名主键约束。只有 PostgreSQL 支持；
// MySQL 的主键约束名固定为 PRIMARY，SQLite 不支持改约束名
func (b ddlBuilder) RenamePKConstraintSQL(newTable, oldPK, newPK string) (string, bool) {
	if b.dialect != "postgres" {
		return "", false
	}
	return fmt.Sprintf("ALTER TABLE %s RENAME CONSTRAINT %s TO %s",
		b.quote(newTable), b.quote(oldPK), b.quote(newPK)), true
}
