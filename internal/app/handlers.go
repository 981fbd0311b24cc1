package app

import (
	"github.com/IkNhayatk/RoutinInspection-backend/internal/api/handler"
)

// Handlers 包含所有 HTTP Handler 实例
type Handlers struct {
	Form  *handler.FormHandler
	Route *handler.RouteHandler
	Auth  *handler.AuthHandler
	User  *handler.UserHandler
}

// InitializeHandlers 初始化所有 Handler
func InitializeHandlers(services *Services) *Handlers {
	return &Handlers{
		Form:  handler.NewFormHandler(services.Form),
		Route: handler.NewRouteHandler(services.Route),
		Auth:  handler.NewAuthHandler(services.Auth),
		User:  handler.NewUserHandler(services.Auth),
	}
}
