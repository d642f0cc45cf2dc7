package dto

// ── 可用时段模块 DTO ──

// CreateAvailabilityRequest 创建可用时段请求
type CreateAvailabilityRequest struct {
	StaffID     string `json:"staff_id"     binding:"required"`
	DayOfWeek   *int   `json:"day_of_week"  binding:"required"` // 0=周日 … 6=周六
	StartTime   string `json:"start_time"   binding:"required"` // "09:00"
	EndTime     string `json:"end_time"     binding:"required"` // "17:00"
	IsAvailable *bool  `json:"is_available"`                    // 缺省为 true
}

// UpdateAvailabilityRequest 更新可用时段请求（仅覆盖非空字段）
type UpdateAvailabilityRequest struct {
	DayOfWeek   *int    `json:"day_of_week"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	IsAvailable *bool   `json:"is_available"`
}

// AvailabilityResponse 可用时段响应
type AvailabilityResponse struct {
	ID          string `json:"id"`
	StaffID     string `json:"staff_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
