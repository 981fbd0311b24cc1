package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/schema"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/service/form"
	"github.com/gin-gonic/gin"
)

type FormHandler struct {
	formService *form.Service
}

func NewFormHandler(formService *form.Service) *FormHandler {
	return &FormHandler{formService: formService}
}

// statusFromSchemaErr 错误分类映射 HTTP 状态码
func statusFromSchemaErr(err error) int {
	switch {
	case errors.Is(err, schema.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CreateForm POST /api/forms
func (h *FormHandler) CreateForm(c *gin.Context) {
	var req model.FormCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	summary, err := h.formService.AddForm(&req)
	if err != nil {
		model.HandleError(c, statusFromSchemaErr(err), err, "新建表单失败")
		return
	}

	c.JSON(http.StatusCreated, model.Success(summary))
}

// GetForms GET /api/forms
func (h *FormHandler) GetForms(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.formService.ListForms(page, limit)
	if err != nil {
		model.HandleError(c, http.StatusInternalServerError, err, "查询表单列表失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(result))
}

// GetForm GET /api/forms/:id
func (h *FormHandler) GetForm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "表单 ID 必须是整数")
		return
	}

	summary, err := h.formService.GetForm(id)
	if err != nil {
		model.HandleError(c, statusFromSchemaErr(err), err, "查询表单失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(summary))
}

// UpdateForm PUT /api/forms/:id
func (h *FormHandler) UpdateForm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "表单 ID 必须是整数")
		return
	}

	var req model.FormUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	summary, err := h.formService.UpdateForm(id, &req)
	if err != nil {
		var partial *schema.RenamedButSyncFailedError
		if errors.As(err, &partial) {
			// 表已改名但列同步失败，如实上报部分成功
			model.HandleError(c, http.StatusInternalServerError, err, "表已重命名但列同步失败")
			return
		}
		model.HandleError(c, statusFromSchemaErr(err), err, "更新表单失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(summary))
}

// DeleteForm DELETE /api/forms/:id
func (h *FormHandler) DeleteForm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "表单 ID 必须是整数")
		return
	}

	ok, err := h.formService.DeleteForm(id)
	if err != nil {
		model.HandleError(c, statusFromSchemaErr(err), err, "删除表单失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{"deleted": ok}))
}

// UpdateFormMode PUT /api/forms/:id/mode
func (h *FormHandler) UpdateFormMode(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "表单 ID 必须是整数")
		return
	}

	var req model.FormModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	if err := h.formService.UpdateFormMode(id, *req.TestMode); err != nil {
		model.HandleError(c, statusFromSchemaErr(err), err, "切换表单模式失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{"id": id, "testMode": *req.TestMode}))
}

// SearchDepartment GET /api/forms/search-department?code=XXXX
func (h *FormHandler) SearchDepartment(c *gin.Context) {
	code := c.Query("code")

	forms, err := h.formService.SearchDepartment(code)
	if err != nil {
		model.HandleError(c, statusFromSchemaErr(err), err, "按部门检索表单失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(forms))
}
