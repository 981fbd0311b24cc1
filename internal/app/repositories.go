package app

import (
	"github.com/IkNhayatk/RoutinInspection-backend/internal/repository"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/database"
)

// Repositories 包含所有 Repository 实例
type Repositories struct {
	Catalog *repository.CatalogRepository
	User    *repository.UserRepository
	Route   *repository.RouteRepository
}

// InitializeRepositories 初始化所有 Repository
func InitializeRepositories() *Repositories {
	return &Repositories{
		Catalog: repository.NewCatalogRepository(database.DB),
		User:    repository.NewUserRepository(database.DB),
		Route:   repository.NewRouteRepository(database.DB),
	}
}
