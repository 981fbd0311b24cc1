package router

import (
	"net/http"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/api/handler"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/api/middleware"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	formHandler *handler.FormHandler,
	routeHandler *handler.RouteHandler,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	authService *auth.AuthService,
) *gin.Engine {
	r := gin.New()

	// 批量导入的 CSV 不会太大，限制在 32MB
	r.MaxMultipartMemory = 32 << 20

	// 使用自定义的 recovery 中间件（打印详细错误信息）
	r.Use(middleware.RecoveryMiddleware())
	// 使用 Gin 的 Logger 中间件（记录请求日志）
	r.Use(gin.Logger())

	// 中间件
	r.Use(middleware.CORS())
	r.Use(middleware.MetricsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 公开API（不需要认证）
	api := r.Group("/api")
	{
		api.POST("/login", authHandler.Login)
		api.POST("/register", authHandler.Register)
	}

	// 需要认证的API
	authenticated := r.Group("/api")
	authenticated.Use(middleware.AuthMiddleware(authService))
	{
		authenticated.POST("/logout", authHandler.Logout)
		authenticated.GET("/me", authHandler.Me)
		authenticated.GET("/profile", authHandler.Me)
		authenticated.POST("/change_password", authHandler.ChangePassword)

		// 表单定义（动态巡检表）
		forms := authenticated.Group("/forms")
		{
			forms.POST("", formHandler.CreateForm)
			forms.GET("", formHandler.GetForms)
			forms.GET("/:id", formHandler.GetForm)
			forms.PUT("/:id", formHandler.UpdateForm)
			forms.DELETE("/:id", formHandler.DeleteForm)
			forms.PUT("/:id/mode", formHandler.UpdateFormMode)
		}
		authenticated.GET("/search-department", formHandler.SearchDepartment)

		// 巡检路线
		routes := authenticated.Group("/routes")
		{
			routes.POST("", routeHandler.CreateRoute)
			routes.GET("", routeHandler.GetRoutes)
			routes.GET("/:id", routeHandler.GetRoute)
			routes.PUT("/:id", routeHandler.UpdateRoute)
			routes.DELETE("/:id", routeHandler.DeleteRoute)
		}

		// 用户管理，要求优先级别 1 以上
		users := authenticated.Group("/users")
		users.Use(middleware.PriorityMiddleware(1))
		{
			users.GET("", userHandler.GetUsers)
			users.POST("", userHandler.CreateUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
			users.POST("/bulk-import", userHandler.BulkImport)
		}
	}

	return r
}
