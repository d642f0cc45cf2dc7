package handler

import (
	"github.com/gin-gonic/gin"

	"cleanbook/backend/internal/dto"
	"cleanbook/backend/internal/service"
	"cleanbook/backend/pkg/response"
)

// RecurrenceHandler 循环排班模块 HTTP 处理器
type RecurrenceHandler struct {
	recurrenceSvc service.RecurrenceService
}

// NewRecurrenceHandler 创建 RecurrenceHandler
func NewRecurrenceHandler(recurrenceSvc service.RecurrenceService) *RecurrenceHandler {
	return &RecurrenceHandler{recurrenceSvc: recurrenceSvc}
}

// NextOccurrence 推算"每月第 N 个星期 X"的下一次日期
// GET /api/v1/recurrence/next?week_of_month=2&day_of_week=3&reference=2024-01-01
func (h *RecurrenceHandler) NextOccurrence(c *gin.Context) {
	var req dto.NextOccurrenceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.recurrenceSvc.NextOccurrence(c.Request.Context(), &req)
	if err != nil {
		h.handleRecurrenceError(c, err)
		return
	}

	response.OK(c, result)
}

// CreateMonthSchedules 为预约批量创建每月循环规则
// POST /api/v1/bookings/:id/month-schedules
func (h *RecurrenceHandler) CreateMonthSchedules(c *gin.Context) {
	bookingID := c.Param("id")
	if bookingID == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	var req dto.CreateMonthSchedulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.recurrenceSvc.CreateMonthSchedules(c.Request.Context(), bookingID, &req, callerID)
	if err != nil {
		h.handleRecurrenceError(c, err)
		return
	}

	response.Created(c, gin.H{"list": list})
}

// ListMonthSchedules 预约的循环规则列表
// GET /api/v1/bookings/:id/month-schedules
func (h *RecurrenceHandler) ListMonthSchedules(c *gin.Context) {
	bookingID := c.Param("id")
	if bookingID == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	list, err := h.recurrenceSvc.ListMonthSchedules(c.Request.Context(), bookingID)
	if err != nil {
		h.handleRecurrenceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// SkipMonthSchedule 跳过 / 恢复某条循环规则
// PUT /api/v1/month-schedules/:id/skip
func (h *RecurrenceHandler) SkipMonthSchedule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "规则ID不能为空")
		return
	}

	var req dto.SkipMonthScheduleRequest
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

	result, err := h.recurrenceSvc.SkipMonthSchedule(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRecurrenceError(c, err)
		return
	}

	response.OK(c, result)
}

// NextOccurrenceForBooking 预约的下一次服务时间（取所有未跳过规则的最早者）
// GET /api/v1/bookings/:id/next-occurrence
func (h *RecurrenceHandler) NextOccurrenceForBooking(c *gin.Context) {
	bookingID := c.Param("id")
	if bookingID == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	result, err := h.recurrenceSvc.NextOccurrenceForBooking(c.Request.Context(), bookingID)
	if err != nil {
		h.handleRecurrenceError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *RecurrenceHandler) handleRecurrenceError(c *gin.Context, err error) {
	if respondBusinessError(c, err, 23000) {
		return
	}
	response.InternalError(c)
}
