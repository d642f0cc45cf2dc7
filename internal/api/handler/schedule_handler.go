package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"cleanbook/backend/internal/dto"
	"cleanbook/backend/internal/service"
	"cleanbook/backend/pkg/response"
)

// ScheduleHandler 排班模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ListSchedules 排班列表（按开始时间升序）
// GET /api/v1/schedules?staff_id=&booking_id=&from=&to=&page=&page_size=
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	// 保洁员只能查看自己的排班
	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	if role == "staff" {
		userID, ok := MustGetUserID(c)
		if !ok {
			return
		}
		req.StaffID = userID
	}

	list, total, err := h.scheduleSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	page, pageSize := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	response.OKPage(c, list, total, page, pageSize)
}

// GetSchedule 排班详情
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	// 保洁员只能查看自己的排班
	if role == "staff" {
		userID, ok := MustGetUserID(c)
		if !ok {
			return
		}
		if schedule.StaffID != userID {
			h.handleScheduleError(c, service.ErrScheduleForbidden)
			return
		}
	}

	response.OK(c, schedule)
}

// CreateSchedule 创建排班
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, schedule)
}

// UpdateSchedule 更新排班
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// DeleteSchedule 删除排班
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// StartSchedule 标记开始服务
// POST /api/v1/schedules/:id/start
func (h *ScheduleHandler) StartSchedule(c *gin.Context) {
	h.mark(c, h.scheduleSvc.MarkStarted)
}

// CompleteSchedule 标记完成服务
// POST /api/v1/schedules/:id/complete
func (h *ScheduleHandler) CompleteSchedule(c *gin.Context) {
	h.mark(c, h.scheduleSvc.MarkCompleted)
}

type markFunc func(ctx context.Context, id string, req *dto.ScheduleMarkRequest, callerID, callerRole string) (*dto.ScheduleResponse, error)

func (h *ScheduleHandler) mark(c *gin.Context, fn markFunc) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	// 请求体可省略
	var req dto.ScheduleMarkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	schedule, err := fn(c.Request.Context(), id, &req, callerID, role)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// UpdateScheduleStatus 取消 / 改期 / 跳过
// PUT /api/v1/schedules/:id/status
func (h *ScheduleHandler) UpdateScheduleStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "排班ID不能为空")
		return
	}

	var req dto.UpdateScheduleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.UpdateStatus(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// GetPrimarySchedule 预约的主排班
// GET /api/v1/bookings/:id/primary-schedule
func (h *ScheduleHandler) GetPrimarySchedule(c *gin.Context) {
	bookingID := c.Param("id")
	if bookingID == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	schedule, err := h.scheduleSvc.GetPrimaryForBooking(c.Request.Context(), bookingID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// handleScheduleError 统一处理排班模块业务错误
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrScheduleForbidden) {
		response.Forbidden(c, 22003, "只能操作自己的排班")
		return
	}
	if respondBusinessError(c, err, 22000) {
		return
	}
	response.InternalError(c)
}
