package handler

import (
	"github.com/gin-gonic/gin"

	"cleanbook/backend/internal/dto"
	"cleanbook/backend/internal/service"
	"cleanbook/backend/pkg/response"
)

// AvailabilityHandler 可用时段模块 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// ListForStaff 获取保洁员的每周可用时段
// GET /api/v1/staff/:id/availability
func (h *AvailabilityHandler) ListForStaff(c *gin.Context) {
	staffID := c.Param("id")
	if staffID == "" {
		response.BadRequest(c, 10001, "保洁员ID不能为空")
		return
	}

	slots, err := h.availabilitySvc.ListForStaff(c.Request.Context(), staffID)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}

// CreateSlot 创建可用时段
// POST /api/v1/availability
func (h *AvailabilityHandler) CreateSlot(c *gin.Context) {
	var req dto.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slot, err := h.availabilitySvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.Created(c, slot)
}

// UpdateSlot 更新可用时段
// PUT /api/v1/availability/:id
func (h *AvailabilityHandler) UpdateSlot(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "时段ID不能为空")
		return
	}

	var req dto.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slot, err := h.availabilitySvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, slot)
}

// DeleteSlot 删除可用时段
// DELETE /api/v1/availability/:id
func (h *AvailabilityHandler) DeleteSlot(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "时段ID不能为空")
		return
	}

	if err := h.availabilitySvc.Delete(c.Request.Context(), id); err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleAvailabilityError 统一处理可用时段模块业务错误
func (h *AvailabilityHandler) handleAvailabilityError(c *gin.Context, err error) {
	if respondBusinessError(c, err, 21000) {
		return
	}
	response.InternalError(c)
}
