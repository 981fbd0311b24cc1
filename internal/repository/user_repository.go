package repository

import (
	"unicode/utf8"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(user *model.SysUser) error {
	return r.db.Create(user).Error
}

// FindUserByUserID 按工号查找
func (r *UserRepository) FindUserByUserID(userID string) (*model.SysUser, error) {
	var users []model.SysUser
	result := r.db.Where("user_id = ?", userID).Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(users) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &users[0], nil
}

func (r *UserRepository) FindUserByID(id int64) (*model.SysUser, error) {
	var user model.SysUser
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateUser(user *model.SysUser) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) DeleteUser(id int64) error {
	return r.db.Delete(&model.SysUser{}, id).Error
}

// ListUsers 分页列出用户，search 同时匹配工号和姓名
func (r *UserRepository) ListUsers(page, limit int, search string) ([]model.SysUser, int64, error) {
	return r.pageUsers(r.listQuery(search), page, limit)
}

// ListUsersScoped 在 ListUsers 基础上限定部门前三码（selfID 本人除外）。
// 过滤必须落在查询里，Count 和分页切片才是同一个可见集合
func (r *UserRepository) ListUsersScoped(page, limit int, search, deptPrefix string, selfID int64) ([]model.SysUser, int64, error) {
	query := r.listQuery(search)
	if deptPrefix == "" {
		query = query.Where("department = '' OR id = ?", selfID)
	} else {
		// SUBSTR 按字符计数，对多字节部门名在三种方言下行为一致
		query = query.Where("SUBSTR(department, 1, ?) = ? OR id = ?",
			utf8.RuneCountInString(deptPrefix), deptPrefix, selfID)
	}
	return r.pageUsers(query, page, limit)
}

func (r *UserRepository) listQuery(search string) *gorm.DB {
	query := r.db.Model(&model.SysUser{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("user_id LIKE ? OR user_name LIKE ?", like, like)
	}
	return query
}

func (r *UserRepository) pageUsers(query *gorm.DB, page, limit int) ([]model.SysUser, int64, error) {
	var users []model.SysUser
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("id").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) CreateLoginRecord(record *model.LoginRecord) error {
	return r.db.Create(record).Error
}
