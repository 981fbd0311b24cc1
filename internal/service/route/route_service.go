package route

import (
	"errors"
	"fmt"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/repository"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/schema"
	"gorm.io/gorm"
)

// ListResult 分页列表结果
type ListResult struct {
	Routes []model.Route `json:"routes"`
	Total  int64         `json:"total"`
}

// Service 巡检路线管理。路线可绑定一张已登记的巡检表
type Service struct {
	repo    *repository.RouteRepository
	catalog *repository.CatalogRepository
}

func NewService(repo *repository.RouteRepository, catalog *repository.CatalogRepository) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// CreateRoute 新建路线。指定绑定表时校验目录里确实有这张表
func (s *Service) CreateRoute(req *model.RouteRequest) (*model.Route, error) {
	route := &model.Route{
		RouteName:        req.RouteName,
		BindingTableID:   req.BindingTableID,
		BindingTableName: req.BindingTableName,
	}

	if err := s.resolveBinding(route); err != nil {
		return nil, err
	}

	if err := s.repo.CreateRoute(route); err != nil {
		return nil, err
	}
	return route, nil
}

// GetRoute 按 id 查路线
func (s *Service) GetRoute(id int64) (*model.Route, error) {
	route, err := s.repo.FindRouteByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: route %d", schema.ErrNotFound, id)
		}
		return nil, err
	}
	return route, nil
}

// ListRoutes 分页列出路线，支持搜索和绑定状态过滤
func (s *Service) ListRoutes(page, limit int, search, mode string) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	routes, total, err := s.repo.ListRoutes(page, limit, search, mode)
	if err != nil {
		return nil, err
	}
	return &ListResult{Routes: routes, Total: total}, nil
}

// UpdateRoute 更新路线
func (s *Service) UpdateRoute(id int64, req *model.RouteRequest) (*model.Route, error) {
	route, err := s.repo.FindRouteByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: route %d", schema.ErrNotFound, id)
		}
		return nil, err
	}

	route.RouteName = req.RouteName
	route.BindingTableID = req.BindingTableID
	route.BindingTableName = req.BindingTableName

	if err := s.resolveBinding(route); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRoute(route); err != nil {
		return nil, err
	}
	return route, nil
}

// DeleteRoute 删除路线
func (s *Service) DeleteRoute(id int64) error {
	if _, err := s.repo.FindRouteByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: route %d", schema.ErrNotFound, id)
		}
		return err
	}
	return s.repo.DeleteRoute(id)
}

// resolveBinding 校验绑定目标并补全绑定表名。
// 绑定到已归档的表单视为无效绑定
func (s *Service) resolveBinding(route *model.Route) error {
	if route.BindingTableID == nil {
		route.BindingTableName = nil
		return nil
	}

	entry, err := s.catalog.FindActiveByID(*route.BindingTableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: binding table %d", schema.ErrNotFound, *route.BindingTableID)
		}
		return err
	}

	name := entry.TableName
	route.BindingTableName = &name
	return nil
}
