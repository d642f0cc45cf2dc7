package handler

import "cleanbook/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Availability *AvailabilityHandler
	Schedule     *ScheduleHandler
	Recurrence   *RecurrenceHandler
	Staff        *StaffHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Availability: NewAvailabilityHandler(svc.Availability),
		Schedule:     NewScheduleHandler(svc.Schedule),
		Recurrence:   NewRecurrenceHandler(svc.Recurrence),
		Staff:        NewStaffHandler(svc.StaffQuery),
		Export:       NewExportHandler(svc.Export, svc.Calendar),
	}
}
