package handler

import (
	"github.com/gin-gonic/gin"

	"cleanbook/backend/internal/dto"
	"cleanbook/backend/internal/service"
	"cleanbook/backend/pkg/response"
)

// StaffHandler 可接单保洁员查询
type StaffHandler struct {
	staffQuerySvc service.StaffQueryService
}

// NewStaffHandler 创建 StaffHandler
func NewStaffHandler(staffQuerySvc service.StaffQueryService) *StaffHandler {
	return &StaffHandler{staffQuerySvc: staffQuerySvc}
}

// GetAvailableStaff 查询某时刻可承接指定服务的保洁员
// GET /api/v1/staff/available?date=2024-01-08T10:00:00Z&service_id=xxx
func (h *StaffHandler) GetAvailableStaff(c *gin.Context) {
	var req dto.AvailableStaffRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.staffQuerySvc.GetAvailableStaff(c.Request.Context(), &req)
	if err != nil {
		if respondBusinessError(c, err, 24000) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}
