package repository

import (
	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"gorm.io/gorm"
)

type RouteRepository struct {
	db *gorm.DB
}

func NewRouteRepository(db *gorm.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

func (r *RouteRepository) CreateRoute(route *model.Route) error {
	return r.db.Create(route).Error
}

func (r *RouteRepository) FindRouteByID(id int64) (*model.Route, error) {
	var route model.Route
	err := r.db.Where("route_id = ?", id).First(&route).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// ListRoutes 分页列出路线。
// search 模糊匹配路线名和绑定表名；mode=1 只要已绑定的，mode=0 只要未绑定的
func (r *RouteRepository) ListRoutes(page, limit int, search, mode string) ([]model.Route, int64, error) {
	var routes []model.Route
	var total int64

	query := r.db.Model(&model.Route{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("route_name LIKE ? OR binding_table_name LIKE ?", like, like)
	}
	switch mode {
	case "1":
		query = query.Where("binding_table_id IS NOT NULL")
	case "0":
		query = query.Where("binding_table_id IS NULL")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("route_id").Offset(offset).Limit(limit).Find(&routes).Error
	if err != nil {
		return nil, 0, err
	}
	return routes, total, nil
}

func (r *RouteRepository) UpdateRoute(route *model.Route) error {
	return r.db.Save(route).Error
}

func (r *RouteRepository) DeleteRoute(id int64) error {
	return r.db.Where("route_id = ?", id).Delete(&model.Route{}).Error
}
