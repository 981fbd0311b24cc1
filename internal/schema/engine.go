package schema

import (
	"fmt"
	"regexp"
	"time"

	"github.com/IkNhayatk/RoutinInspection-backend/pkg/logger"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/metrics"
	"gorm.io/gorm"
)

// itemColumnPattern 识别动态项目列（不含 _Remark 备注列）
var itemColumnPattern = regexp.MustCompile(`^Item([0-9]+)$`)

// SyncResult 增量同步结果
type SyncResult struct {
	TableName    string   `json:"tableName"`
	AddedColumns []string `json:"addedColumns"`
}

// RenameResult 重命名结果
type RenameResult struct {
	TableName string     `json:"tableName"`
	Renamed   bool       `json:"renamed"` // false 表示退化为纯同步
	Sync      SyncResult `json:"sync"`
}

// Engine 动态表引擎：创建、增量加列、重命名、归档物理巡检表。
// 所有方法接收调用方的 *gorm.DB（可能是事务），绝不自行 Commit，
// 事务边界由 FormService 持有
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Create 按表单 JSON 建表。同名旧表先删再建（幂等，最新定义为准）。
// 返回规范化后的物理表名
func (e *Engine) Create(tx *gorm.DB, identifier string, form interface{}) (string, error) {
	start := time.Now()

	table := Canonicalize(identifier)
	if err := SanitizeIdentifier(table); err != nil {
		return "", err
	}

	itemIDs := CollectItems(form)
	if len(itemIDs) == 0 {
		logger.Warnf("no items found in form schema for %s, creating table with base columns only", table)
	}

	b := newDDLBuilder(tx)

	if err := tx.Exec(b.DropTableSQL(table)).Error; err != nil {
		observeOp("create", start, err)
		return "", newOpError("create", table, fmt.Errorf("drop existing table: %w", err))
	}

	if err := tx.Exec(b.CreateTableSQL(table, itemIDs)).Error; err != nil {
		observeOp("create", start, err)
		return "", newOpError("create", table, fmt.Errorf("create table: %w", err))
	}

	logger.Infof("created table %s with %d item columns", table, len(itemIDs))
	observeOp("create", start, nil)
	return table, nil
}

// SyncSchema 增量同步：表单新增的项目补成对的 Item{id}/Item{id}_Remark 列。
// 只加列不删列，历史数据永不丢失。表不存在返回 ErrNotFound，绝不自动建表
func (e *Engine) SyncSchema(tx *gorm.DB, identifier string, form interface{}) (SyncResult, error) {
	start := time.Now()

	table := Canonicalize(identifier)
	if err := SanitizeIdentifier(table); err != nil {
		return SyncResult{}, err
	}
	result := SyncResult{TableName: table, AddedColumns: []string{}}

	if !tx.Migrator().HasTable(table) {
		return result, fmt.Errorf("%w: table %s does not exist", ErrNotFound, table)
	}

	present, err := e.existingItemIDs(tx, table)
	if err != nil {
		observeOp("sync", start, err)
		return result, newOpError("sync", table, fmt.Errorf("query existing columns: %w", err))
	}

	for _, id := range CollectItems(form) {
		if _, ok := present[id]; ok {
			continue
		}
		result.AddedColumns = append(result.AddedColumns,
			fmt.Sprintf("Item%d", id), fmt.Sprintf("Item%d_Remark", id))
	}

	if len(result.AddedColumns) == 0 {
		observeOp("sync", start, nil)
		return result, nil
	}

	b := newDDLBuilder(tx)
	for _, stmt := range b.AddColumnsSQL(table, result.AddedColumns) {
		if err := tx.Exec(stmt).Error; err != nil {
			observeOp("sync", start, err)
			return SyncResult{TableName: table, AddedColumns: []string{}},
				newOpError("sync", table, fmt.Errorf("add columns: %w", err))
		}
	}

	metrics.SchemaColumnsAdded.Add(float64(len(result.AddedColumns)))
	logger.Infof("synced table %s, added columns: %v", table, result.AddedColumns)
	observeOp("sync", start, nil)
	return result, nil
}

// Rename 物理表改名并同步列。
// 同名调用退化为纯同步；旧表不存在时也退化为同步（从上次部分失败中恢复）；
// 目标表已存在返回 ErrConflict，绝不覆盖。
// 主键约束和代理主键列的改名是尽力而为，失败只记警告；
// 同步失败但改名已成功时返回 RenamedButSyncFailedError
func (e *Engine) Rename(tx *gorm.DB, oldIdentifier, newIdentifier string, form interface{}) (RenameResult, error) {
	start := time.Now()

	oldTable := Canonicalize(oldIdentifier)
	newTable := Canonicalize(newIdentifier)
	if err := SanitizeIdentifier(oldTable); err != nil {
		return RenameResult{}, err
	}
	if err := SanitizeIdentifier(newTable); err != nil {
		return RenameResult{}, err
	}

	// 同名“重命名”就是一次同步请求
	if oldTable == newTable {
		sync, err := e.SyncSchema(tx, newIdentifier, form)
		return RenameResult{TableName: newTable, Renamed: false, Sync: sync}, err
	}

	// 旧表不在了（上次重命名部分完成），只做同步
	if !tx.Migrator().HasTable(oldTable) {
		logger.Warnf("table %s not found during rename, falling back to sync on %s", oldTable, newTable)
		sync, err := e.SyncSchema(tx, newIdentifier, form)
		return RenameResult{TableName: newTable, Renamed: false, Sync: sync}, err
	}

	if tx.Migrator().HasTable(newTable) {
		return RenameResult{}, fmt.Errorf("%w: table %s already exists", ErrConflict, newTable)
	}

	b := newDDLBuilder(tx)

	if err := tx.Exec(b.RenameTableSQL(oldTable, newTable)).Error; err != nil {
		observeOp("rename", start, err)
		return RenameResult{}, newOpError("rename", oldTable, fmt.Errorf("rename to %s: %w", newTable, err))
	}

	// 以下两步失败不回滚，表改名成功即算成功
	if stmt, ok := b.RenamePKConstraintSQL(newTable, "PK_"+oldTable, "PK_"+newTable); ok {
		if err := tx.Exec(stmt).Error; err != nil {
			logger.Warnf("failed to rename primary key constraint for %s: %v", newTable, err)
		}
	}

	renameCol := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		b.quote(newTable), b.quote(oldTable+"Id"), b.quote(newTable+"Id"))
	if err := tx.Exec(renameCol).Error; err != nil {
		logger.Warnf("failed to rename surrogate id column for %s: %v", newTable, err)
	}

	sync, err := e.SyncSchema(tx, newIdentifier, form)
	if err != nil {
		observeOp("rename", start, err)
		return RenameResult{TableName: newTable, Renamed: true, Sync: sync},
			&RenamedButSyncFailedError{OldTable: oldTable, NewTable: newTable, Err: err}
	}

	logger.Infof("renamed table %s -> %s", oldTable, newTable)
	observeOp("rename", start, nil)
	return RenameResult{TableName: newTable, Renamed: true, Sync: sync}, nil
}

// Archive 把物理表改名为归档名。调用方已经把目录行标记为归档，
// 这里失败与否不影响逻辑删除的结果
func (e *Engine) Archive(tx *gorm.DB, tableName, archiveName string) error {
	start := time.Now()

	if err := SanitizeIdentifier(tableName); err != nil {
		return err
	}
	if err := SanitizeIdentifier(archiveName); err != nil {
		return err
	}

	if !tx.Migrator().HasTable(tableName) {
		return fmt.Errorf("%w: table %s does not exist", ErrNotFound, tableName)
	}

	b := newDDLBuilder(tx)
	if err := tx.Exec(b.RenameTableSQL(tableName, archiveName)).Error; err != nil {
		observeOp("archive", start, err)
		return newOpError("archive", tableName, fmt.Errorf("rename to %s: %w", archiveName, err))
	}

	observeOp("archive", start, nil)
	return nil
}

// existingItemIDs 查出物理表中已有的动态项目列编号（排除 _Remark 列）
func (e *Engine) existingItemIDs(tx *gorm.DB, table string) (map[int]struct{}, error) {
	columns, err := tx.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, err
	}

	present := make(map[int]struct{})
	for _, col := range columns {
		m := itemColumnPattern.FindStringSubmatch(col.Name())
		if m == nil {
			continue
		}
		var id int
		if _, err := fmt.Sscanf(m[1], "%d", &id); err == nil {
			present[id] = struct{}{}
		}
	}
	return present, nil
}

func observeOp(op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.SchemaOperationsTotal.WithLabelValues(op, result).Inc()
	metrics.SchemaOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
