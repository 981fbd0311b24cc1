package app

import (
	"github.com/IkNhayatk/RoutinInspection-backend/internal/service/auth"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/service/form"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/service/route"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/config"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/database"
)

// Services 包含所有业务服务实例
type Services struct {
	Form  *form.Service
	Auth  *auth.AuthService
	Route *route.Service
}

// InitializeServices 初始化所有业务服务
func InitializeServices(repos *Repositories, cfg *config.Config) *Services {
	return &Services{
		Form:  form.NewService(database.DB, repos.Catalog),
		Auth:  auth.NewAuthService(repos.User, cfg.Security.JWTSecret, cfg.Security.TokenExpirationHours),
		Route: route.NewService(repos.Route, repos.Catalog),
	}
}
