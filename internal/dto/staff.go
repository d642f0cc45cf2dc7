package dto

import "time"

// ── 空闲保洁员查询 / 导出 DTO ──

// AvailableStaffRequest 查询某时刻可接单的保洁员
type AvailableStaffRequest struct {
	Date      time.Time `form:"date"       binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	ServiceID string    `form:"service_id" binding:"required"`
}

// StaffSummary 保洁员公开信息
type StaffSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ScheduleExportRequest 导出排班的时间范围
type ScheduleExportRequest struct {
	StaffID string    `form:"staff_id"`
	From    time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To      time.Time `form:"to"   binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}
