package handler

import (
	"errors"
	"net/http"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/service/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *auth.AuthService
}

func NewAuthHandler(authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func statusFromAuthErr(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Register POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "注册失败")
		return
	}

	c.JSON(http.StatusCreated, model.Success(user))
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	token, user, err := h.authService.Login(req.UserID, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "登录失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{
		"token": token,
		"user": gin.H{
			"id":             user.ID,
			"user_id":        user.UserID,
			"user_name":      user.UserName,
			"priority_level": user.PriorityLevel,
			"department":     user.Department,
		},
	}))
}

// Logout POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	operator, err := h.currentUser(c)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "获取当前用户失败")
		return
	}

	if err := h.authService.Logout(operator.ID); err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "登出失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(nil))
}

// Me GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	operator, err := h.currentUser(c)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "获取当前用户失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(operator))
}

// ChangePassword POST /api/change_password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	operator, err := h.currentUser(c)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "获取当前用户失败")
		return
	}

	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	if err := h.authService.ChangePassword(operator, req.OldPassword, req.NewPassword); err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "修改密码失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(nil))
}

// currentUser 从上下文取操作者完整信息
func (h *AuthHandler) currentUser(c *gin.Context) (*model.SysUser, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return nil, auth.ErrUserNotFound
	}
	return h.authService.GetUserByUserID(userID.(string))
}
