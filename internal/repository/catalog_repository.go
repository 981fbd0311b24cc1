package repository

import (
	"unicode/utf8"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"gorm.io/gorm"
)

// CatalogRepository 表单目录（TableManager）的读写。
// 写操作接收调用方的 *gorm.DB，以便与 DDL 落在同一事务里
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Create(tx *gorm.DB, entry *model.TableManager) error {
	return tx.Create(entry).Error
}

// FindActiveByID 查找未归档的目录行
func (r *CatalogRepository) FindActiveByID(id int64) (*model.TableManager, error) {
	var entry model.TableManager
	err := r.db.Where("id = ? AND test_mode != ?", id, model.TestModeArchived).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *CatalogRepository) FindByID(id int64) (*model.TableManager, error) {
	var entry model.TableManager
	err := r.db.Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *CatalogRepository) FindByTableName(tableName string) (*model.TableManager, error) {
	var entries []model.TableManager
	result := r.db.Where("table_name = ?", tableName).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(entries) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &entries[0], nil
}

// ListActive 分页列出未归档的目录行
func (r *CatalogRepository) ListActive(page, limit int) ([]model.TableManager, int64, error) {
	var entries []model.TableManager
	var total int64

	base := r.db.Model(&model.TableManager{}).Where("test_mode != ?", model.TestModeArchived)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := base.Order("id").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// SearchByDisplayNamePrefix 按 DisplayName 前缀搜索未归档的表单（部门代码检索）。
// 用 SUBSTR 精确比较，部门代码里的 % 和 _ 不作通配符解释
func (r *CatalogRepository) SearchByDisplayNamePrefix(prefix string) ([]model.TableManager, error) {
	var entries []model.TableManager
	err := r.db.
		Where("SUBSTR(display_name, 1, ?) = ? AND test_mode != ?",
			utf8.RuneCountInString(prefix), prefix, model.TestModeArchived).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *CatalogRepository) Update(tx *gorm.DB, entry *model.TableManager) error {
	return tx.Save(entry).Error
}

// UpdateFields 只更新给定字段
func (r *CatalogRepository) UpdateFields(tx *gorm.DB, id int64, fields map[string]interface{}) error {
	return tx.Model(&model.TableManager{}).Where("id = ?", id).Updates(fields).Error
}

// CountByMode 统计各生命周期状态的行数（供指标上报）
func (r *CatalogRepository) CountByMode() (active int64, archived int64, err error) {
	if err = r.db.Model(&model.TableManager{}).
		Where("test_mode != ?", model.TestModeArchived).Count(&active).Error; err != nil {
		return
	}
	err = r.db.Model(&model.TableManager{}).
		Where("test_mode = ?", model.TestModeArchived).Count(&archived).Error
	return
}
