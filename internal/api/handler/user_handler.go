package handler

import (
	"net/http"
	"strconv"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/service/auth"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService *auth.AuthService
}

func NewUserHandler(authService *auth.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// GetUsers GET /api/users?page&limit&search
func (h *UserHandler) GetUsers(c *gin.Context) {
	operator, err := h.operator(c)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "获取当前用户失败")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	search := c.Query("search")

	users, total, err := h.authService.ListUsers(operator, page, limit, search)
	if err != nil {
		model.HandleError(c, http.StatusInternalServerError, err, "查询用户列表失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{"users": users, "total": total}))
}

// CreateUser POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	operator, err := h.operator(c)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "获取当前用户失败")
		return
	}

	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	user, err := h.authService.CreateUser(operator, &req)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "新建用户失败")
		return
	}

	c.JSON(http.StatusCreated, model.Success(user))
}

// UpdateUser PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	operator, err := h.operator(c)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "获取当前用户失败")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "用户 ID 必须是整数")
		return
	}

	var req model.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	user, err := h.authService.UpdateUser(operator, id, &req)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "更新用户失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(user))
}

// DeleteUser DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "用户 ID 必须是整数")
		return
	}

	if err := h.authService.DeleteUser(id); err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "删除用户失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{"deleted": true}))
}

// BulkImport POST /api/users/bulk-import（multipart 的 file 字段是 CSV）
func (h *UserHandler) BulkImport(c *gin.Context) {
	operator, err := h.operator(c)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "获取当前用户失败")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "未找到上传文件")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "打开上传文件失败")
		return
	}
	defer f.Close()

	result, err := h.authService.BulkImportUsers(operator, f)
	if err != nil {
		model.HandleError(c, statusFromAuthErr(err), err, "批量导入失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(result))
}

func (h *UserHandler) operator(c *gin.Context) (*model.SysUser, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return nil, auth.ErrUserNotFound
	}
	return h.authService.GetUserByUserID(userID.(string))
}
