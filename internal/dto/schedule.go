package dto

import "time"

// ── 排班模块 DTO ──

// CreateScheduleRequest 创建排班请求
type CreateScheduleRequest struct {
	StaffID   string    `json:"staff_id"   binding:"required"`
	BookingID *string   `json:"booking_id"`
	StartTime time.Time `json:"start_time" binding:"required"` // RFC3339
	EndTime   time.Time `json:"end_time"   binding:"required"`
}

// UpdateScheduleRequest 更新排班请求（仅覆盖非空字段）
type UpdateScheduleRequest struct {
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	ActualStartTime *time.Time `json:"actual_start_time"`
	ActualEndTime   *time.Time `json:"actual_end_time"`
	StaffID         *string    `json:"staff_id"`
	BookingID       *string    `json:"booking_id"`
}

// ScheduleListRequest 排班列表查询参数
type ScheduleListRequest struct {
	StaffID   string     `form:"staff_id"`
	BookingID string     `form:"booking_id"`
	From      *time.Time `form:"from"      time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to"        time_format:"2006-01-02T15:04:05Z07:00"`
	Page      int        `form:"page"      binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// ScheduleMarkRequest 标记开始/完成请求，At 缺省为当前时间
type ScheduleMarkRequest struct {
	At *time.Time `json:"at"`
}

// UpdateScheduleStatusRequest 变更排班状态请求
type UpdateScheduleStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=canceled rescheduled skipped"`
}

// ScheduleResponse 排班响应
type ScheduleResponse struct {
	ID              string      `json:"id"`
	StaffID         string      `json:"staff_id"`
	Staff           *StaffBrief `json:"staff,omitempty"`
	BookingID       *string     `json:"booking_id,omitempty"`
	StartTime       string      `json:"start_time"`
	EndTime         string      `json:"end_time"`
	Status          string      `json:"status"`
	ActualStartTime *string     `json:"actual_start_time,omitempty"`
	ActualEndTime   *string     `json:"actual_end_time,omitempty"`
	IsSkipped       bool        `json:"is_skipped"`
	Version         int         `json:"version"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       string      `json:"updated_at"`
}

// StaffBrief 保洁员简要信息（嵌入排班响应）
type StaffBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
