package schema

import (
	"errors"
	"fmt"
)

// 错误分类哨兵，handler 层据此映射 HTTP 状态码
var (
	// ErrValidation 输入不合法（缺少标识符、schema 不是对象、JSON 解析失败）
	ErrValidation = errors.New("schema: validation error")

	// ErrNotFound 目录行或物理表不存在
	ErrNotFound = errors.New("schema: not found")

	// ErrConflict 重命名目标表已存在
	ErrConflict = errors.New("schema: table name conflict")

	// ErrExhausted 归档名搜索超出上限
	ErrExhausted = errors.New("schema: archive name search exhausted")
)

// OperationError DDL 执行失败，携带表名、阶段和底层原因
type OperationError struct {
	Table string
	Op    string // create, sync, rename, archive
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("schema operation %s on table %s failed: %v", e.Op, e.Table, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// RenamedButSyncFailedError 物理表已改名成功，但随后的列同步失败。
// 与普通失败区分开，调用方可以准确上报“部分成功”
type RenamedButSyncFailedError struct {
	OldTable string
	NewTable string
	Err      error
}

func (e *RenamedButSyncFailedError) Error() string {
	return fmt.Sprintf("table renamed %s -> %s but column sync failed: %v", e.OldTable, e.NewTable, e.Err)
}

func (e *RenamedButSyncFailedError) Unwrap() error {
	return e.Err
}

func newOpError(op, table string, err error) *OperationError {
	return &OperationError{Table: table, Op: op, Err: err}
}
