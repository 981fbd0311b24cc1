package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/repository"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/schema"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/distributed"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/logger"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/metrics"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/redis"
	"gorm.io/gorm"
)

// ddlLockExpiry 分布式 DDL 锁的过期时间
const ddlLockExpiry = 30 * time.Second

// Summary 表单定义摘要，字段名沿用前端既有约定
type Summary struct {
	ID        int64       `json:"id"`
	DBName    string      `json:"dbName"`
	EFormName string      `json:"eFormName"`
	Mode      int         `json:"mode"`
	FormJSON  interface{} `json:"formJson,omitempty"`
	ItemsCnt  int         `json:"itemsCnt"`
}

// ListResult 分页列表结果
type ListResult struct {
	Forms []Summary `json:"forms"`
	Total int64     `json:"total"`
}

// Service 组合目录仓库和动态表引擎，实现表单的增删改查。
// 目录写入和 DDL 放在同一事务里，事务边界在这一层
type Service struct {
	db      *gorm.DB
	catalog *repository.CatalogRepository
	engine  *schema.Engine
	locks   *schema.NameLocker
}

func NewService(db *gorm.DB, catalog *repository.CatalogRepository) *Service {
	return &Service{
		db:      db,
		catalog: catalog,
		engine:  schema.NewEngine(),
		locks:   schema.NewNameLocker(),
	}
}

// AddForm 新建表单：先插目录行拿到稳定 id，再建物理表。
// 建表失败时整个事务回滚，目录和物理表不会分叉
func (s *Service) AddForm(req *model.FormCreateRequest) (*Summary, error) {
	formValue, err := parseFormJSON(req.FormJSON)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.FormIdentifier) == "" {
		return nil, fmt.Errorf("%w: formIdentifier is required", schema.ErrValidation)
	}

	table := schema.Canonicalize(req.FormIdentifier)
	if err := schema.SanitizeIdentifier(table); err != nil {
		return nil, err
	}

	unlock, err := s.lockTable(table)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entry := &model.TableManager{
		TableName:     table,
		DisplayName:   req.FormDisplayName,
		SchemaContent: normalizeSchemaContent(req.FormJSON),
		ItemsCnt:      req.ItemsCnt,
		TestMode:      model.TestModeNormal,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.catalog.Create(tx, entry); err != nil {
			return fmt.Errorf("insert catalog entry for %s: %w", table, err)
		}
		if _, err := s.engine.Create(tx, req.FormIdentifier, formValue); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.refreshGauges()
	logger.Infof("added form %s (id=%d)", table, entry.ID)
	return s.toSummary(entry), nil
}

// UpdateForm 更新表单定义。
// 标识符变了走物理表重命名，没变只做增量列同步；
// 已归档的表单视为不存在
func (s *Service) UpdateForm(id int64, req *model.FormUpdateRequest) (*Summary, error) {
	formValue, err := parseFormJSON(req.FormJSON)
	if err != nil {
		return nil, err
	}

	entry, err := s.catalog.FindActiveByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: form %d", schema.ErrNotFound, id)
		}
		return nil, err
	}

	oldTable := entry.TableName
	newTable := schema.Canonicalize(req.FormIdentifier)
	if err := schema.SanitizeIdentifier(newTable); err != nil {
		return nil, err
	}

	unlock, err := s.lockTables(oldTable, newTable)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var renameErr error
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if oldTable != newTable {
			_, err := s.engine.Rename(tx, oldTable, newTable, formValue)
			if err != nil {
				var partial *schema.RenamedButSyncFailedError
				if errors.As(err, &partial) {
					// 表已改名但同步失败：目录按新名落库，错误单独带出
					renameErr = err
				} else {
					return err
				}
			}
		} else {
			if _, err := s.engine.SyncSchema(tx, req.FormIdentifier, formValue); err != nil {
				return err
			}
		}

		entry.TableName = newTable
		entry.DisplayName = req.FormDisplayName
		entry.SchemaContent = normalizeSchemaContent(req.FormJSON)
		entry.ItemsCnt = req.ItemsCnt
		return s.catalog.Update(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	if renameErr != nil {
		return s.toSummary(entry), renameErr
	}

	logger.Infof("updated form %d (%s -> %s)", id, oldTable, newTable)
	return s.toSummary(entry), nil
}

// DeleteForm 逻辑删除：目录行标记归档并改名，物理表改名是尽力而为。
// 目录状态是“表单是否已删除”的唯一权威
func (s *Service) DeleteForm(id int64) (bool, error) {
	entry, err := s.catalog.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: form %d", schema.ErrNotFound, id)
		}
		return false, err
	}
	if entry.IsArchived() {
		return false, fmt.Errorf("%w: form %d already archived", schema.ErrNotFound, id)
	}

	oldTable := entry.TableName

	unlock, err := s.lockTable(oldTable)
	if err != nil {
		return false, err
	}
	defer unlock()

	archiveName, err := schema.ArchiveName(s.db, oldTable)
	if err != nil {
		return false, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.catalog.UpdateFields(tx, id, map[string]interface{}{
			"test_mode":  model.TestModeArchived,
			"table_name": archiveName,
		})
	})
	if err != nil {
		return false, err
	}

	// 物理表跟着改名；失败只记警告，不影响逻辑删除的结果
	if err := s.engine.Archive(s.db, oldTable, archiveName); err != nil {
		logger.Warnf("failed to archive physical table %s -> %s: %v", oldTable, archiveName, err)
	}

	s.refreshGauges()
	logger.Infof("deleted form %d, table archived as %s", id, archiveName)
	return true, nil
}

// ListForms 分页列出未归档的表单
func (s *Service) ListForms(page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	entries, total, err := s.catalog.ListActive(page, limit)
	if err != nil {
		return nil, err
	}

	forms := make([]Summary, 0, len(entries))
	for i := range entries {
		forms = append(forms, *s.toSummary(&entries[i]))
	}
	return &ListResult{Forms: forms, Total: total}, nil
}

// GetForm 按 id 查单个表单，已归档的视为不存在
func (s *Service) GetForm(id int64) (*Summary, error) {
	entry, err := s.catalog.FindActiveByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: form %d", schema.ErrNotFound, id)
		}
		return nil, err
	}
	return s.toSummary(entry), nil
}

// UpdateFormMode 切换表单模式，仅允许 0 和 1
func (s *Service) UpdateFormMode(id int64, mode int) error {
	if mode != model.TestModeNormal && mode != model.TestModeTest {
		return fmt.Errorf("%w: invalid mode %d", schema.ErrValidation, mode)
	}

	entry, err := s.catalog.FindActiveByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: form %d", schema.ErrNotFound, id)
		}
		return err
	}

	return s.catalog.UpdateFields(s.db, entry.ID, map[string]interface{}{"test_mode": mode})
}

// SearchDepartment 按部门代码（DisplayName 前四码）搜索表单
func (s *Service) SearchDepartment(code string) ([]Summary, error) {
	if len(code) != 4 {
		return nil, fmt.Errorf("%w: department code must be 4 characters", schema.ErrValidation)
	}

	entries, err := s.catalog.SearchByDisplayNamePrefix(code)
	if err != nil {
		return nil, err
	}

	forms := make([]Summary, 0, len(entries))
	for i := range entries {
		sum := s.toSummary(&entries[i])
		sum.FormJSON = nil // 部门检索只返回摘要
		forms = append(forms, *sum)
	}
	return forms, nil
}

// lockTable 串行化单表临界区：进程内按名互斥，Redis 可用时叠加分布式锁
func (s *Service) lockTable(table string) (func(), error) {
	unlockLocal := s.locks.Lock(table)

	if !redis.IsEnabled() {
		return unlockLocal, nil
	}

	dlock := distributed.NewTableLock(redis.GetClient(), table, ddlLockExpiry)
	acquired, err := dlock.TryLock()
	if err != nil {
		unlockLocal()
		return nil, fmt.Errorf("acquire distributed lock for %s: %w", table, err)
	}
	if !acquired {
		unlockLocal()
		return nil, fmt.Errorf("%w: table %s is locked by another instance", schema.ErrConflict, table)
	}

	return func() {
		if err := dlock.Unlock(); err != nil {
			logger.Warnf("failed to release distributed lock for %s: %v", table, err)
		}
		unlockLocal()
	}, nil
}

// lockTables 固定顺序锁多个表名，避免交叉死锁
func (s *Service) lockTables(tables ...string) (func(), error) {
	uniq := make([]string, 0, len(tables))
	seen := make(map[string]struct{})
	for _, t := range tables {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			uniq = append(uniq, t)
		}
	}
	sort.Strings(uniq)

	unlocks := make([]func(), 0, len(uniq))
	for _, t := range uniq {
		unlock, err := s.lockTable(t)
		if err != nil {
			for i := len(unlocks) - 1; i >= 0; i-- {
				unlocks[i]()
			}
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}

	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}, nil
}

// toSummary 目录行转 API 摘要；存储的 JSON 损坏时退化为空对象并告警
func (s *Service) toSummary(entry *model.TableManager) *Summary {
	var formValue interface{}
	if len(entry.SchemaContent) > 0 {
		if err := json.Unmarshal(entry.SchemaContent, &formValue); err != nil {
			logger.Warnf("could not parse stored schema for form %d: %v", entry.ID, err)
			formValue = map[string]interface{}{}
		}
	} else {
		formValue = map[string]interface{}{}
	}

	return &Summary{
		ID:        entry.ID,
		DBName:    entry.TableName,
		EFormName: entry.DisplayName,
		Mode:      entry.TestMode,
		FormJSON:  formValue,
		ItemsCnt:  entry.ItemsCnt,
	}
}

func (s *Service) refreshGauges() {
	active, archived, err := s.catalog.CountByMode()
	if err != nil {
		return
	}
	metrics.ManagedTables.Set(float64(active))
	metrics.ArchivedTables.Set(float64(archived))
}

// parseFormJSON 解析请求里的表单 JSON。
// 前端可能传对象、数组，也可能把 JSON 再包一层字符串
func parseFormJSON(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: formJson is required", schema.ErrValidation)
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: formJson is not valid JSON: %v", schema.ErrValidation, err)
	}

	// 双重编码的字符串再解一层
	if str, ok := value.(string); ok {
		var inner interface{}
		if err := json.Unmarshal([]byte(str), &inner); err != nil {
			return nil, fmt.Errorf("%w: formJson string is not valid JSON: %v", schema.ErrValidation, err)
		}
		value = inner
	}

	switch value.(type) {
	case map[string]interface{}, []interface{}:
		return value, nil
	default:
		return nil, fmt.Errorf("%w: formJson must be an object or array", schema.ErrValidation)
	}
}

// normalizeSchemaContent 把双重编码的表单 JSON 展开后再入库
func normalizeSchemaContent(raw json.RawMessage) []byte {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return raw
	}
	if str, ok := value.(string); ok {
		var inner interface{}
		if err := json.Unmarshal([]byte(str), &inner); err == nil {
			return []byte(str)
		}
	}
	return raw
}
