package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"cleanbook/backend/internal/dto"
	"cleanbook/backend/internal/service"
	"cleanbook/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc   service.ExportService
	calendarSvc service.CalendarService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, calendarSvc service.CalendarService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, calendarSvc: calendarSvc}
}

// ExportSchedules 导出排班表
// GET /api/v1/export/schedules?from=...&to=...&staff_id=
func (h *ExportHandler) ExportSchedules(c *gin.Context) {
	var req dto.ScheduleExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportSchedules(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, xlsxContentType, filename, buf.Bytes())
}

// StaffCalendar 保洁员排班日历订阅
// GET /api/v1/staff/:id/calendar.ics?from=&to=
func (h *ExportHandler) StaffCalendar(c *gin.Context) {
	staffID := c.Param("id")
	if staffID == "" {
		response.BadRequest(c, 10001, "保洁员ID不能为空")
		return
	}

	// 保洁员只能订阅自己的日历
	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	if role == "staff" {
		userID, ok := MustGetUserID(c)
		if !ok {
			return
		}
		if userID != staffID {
			response.Forbidden(c, 25003, "只能查看自己的日历")
			return
		}
	}

	from, ok := optionalTime(c, "from")
	if !ok {
		return
	}
	to, ok := optionalTime(c, "to")
	if !ok {
		return
	}

	out, err := h.calendarSvc.StaffCalendar(c.Request.Context(), staffID, from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, icsContentType, staffID+".ics", []byte(out))
}

// optionalTime 解析可选的 RFC3339 查询参数
func optionalTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.BadRequest(c, 10001, key+" 须为 RFC3339 时间")
		return nil, false
	}
	return &t, true
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSchedules):
		response.NotFound(c, 25101, "所选范围内暂无排班")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		if respondBusinessError(c, err, 25000) {
			return
		}
		response.InternalError(c)
	}
}
