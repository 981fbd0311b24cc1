package handler

import (
	"net/http"
	"strconv"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/service/route"
	"github.com/gin-gonic/gin"
)

type RouteHandler struct {
	routeService *route.Service
}

func NewRouteHandler(routeService *route.Service) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// CreateRoute POST /api/routes
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req model.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	created, err := h.routeService.CreateRoute(&req)
	if err != nil {
		model.HandleError(c, statusFromSchemaErr(err), err, "新建路线失败")
		return
	}

	c.JSON(http.StatusCreated, model.Success(created))
}

// GetRoutes GET /api/routes?page&limit&search&mode
func (h *RouteHandler) GetRoutes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	search := c.Query("search")
	mode := c.Query("mode")

	result, err := h.routeService.ListRoutes(page, limit, search, mode)
	if err != nil {
		model.HandleError(c, http.StatusInternalServerError, err, "查询路线列表失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(result))
}

// GetRoute GET /api/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "路线 ID 必须是整数")
		return
	}

	got, err := h.routeService.GetRoute(id)
	if err != nil {
		model.HandleError(c, statusFromSchemaErr(err), err, "查询路线失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(got))
}

// UpdateRoute PUT /api/routes/:id
func (h *RouteHandler) UpdateRoute(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "路线 ID 必须是整数")
		return
	}

	var req model.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "请求体解析失败")
		return
	}

	updated, err := h.routeService.UpdateRoute(id, &req)
	if err != nil {
		model.HandleError(c, statusFromSchemaErr(err), err, "更新路线失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(updated))
}

// DeleteRoute DELETE /api/routes/:id
func (h *RouteHandler) DeleteRoute(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		model.HandleError(c, http.StatusBadRequest, err, "路线 ID 必须是整数")
		return
	}

	if err := h.routeService.DeleteRoute(id); err != nil {
		model.HandleError(c, statusFromSchemaErr(err), err, "删除路线失败")
		return
	}

	c.JSON(http.StatusOK, model.Success(gin.H{"deleted": true}))
}
