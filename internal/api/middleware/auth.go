package middleware

import (
	"net/http"
	"strings"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/service/auth"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, model.Error(401, "缺少 Authorization header"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, model.Error(401, "Authorization header 必须以 'Bearer ' 开头"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, model.Error(401, "无效的令牌或令牌已过期"))
			c.Abort()
			return
		}

		// 用户信息放进上下文供 handler 使用
		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.UserName)
		c.Set("priority_level", claims.PriorityLevel)
		c.Next()
	}
}

// PriorityMiddleware 优先级门槛：用户级别低于 required 时拒绝。
// 必须挂在 AuthMiddleware 之后
func PriorityMiddleware(required int) gin.HandlerFunc {
	return func(c *gin.Context) {
		level, exists := c.Get("priority_level")
		if !exists {
			c.JSON(http.StatusUnauthorized, model.Error(401, "未认证"))
			c.Abort()
			return
		}

		if lv, ok := level.(int); !ok || lv < required {
			c.JSON(http.StatusForbidden, model.Error(403, "优先级别不足"))
			c.Abort()
			return
		}
		c.Next()
	}
}
