package dto

import "time"

// ── 按月循环模块 DTO ──

// NextOccurrenceRequest 推算下一次出现日期
type NextOccurrenceRequest struct {
	WeekOfMonth int        `form:"week_of_month" binding:"required"`
	DayOfWeek   *int       `form:"day_of_week"   binding:"required"`
	Reference   *time.Time `form:"reference"     time_format:"2006-01-02"` // 缺省为今天
}

// NextOccurrenceResponse 推算结果；该序数在本月与下月均不存在时 Date 为空
type NextOccurrenceResponse struct {
	Found bool    `json:"found"`
	Date  *string `json:"date"`
}

// MonthScheduleRule 单条按月循环规则
type MonthScheduleRule struct {
	WeekOfMonth int    `json:"week_of_month" binding:"required"`
	DayOfWeek   *int   `json:"day_of_week"   binding:"required"`
	Time        string `json:"time"          binding:"required"` // "HH:MM"
}

// CreateMonthSchedulesRequest 批量创建规则（全部成功或全部失败）
type CreateMonthSchedulesRequest struct {
	Rules []MonthScheduleRule `json:"rules" binding:"required,min=1,max=20,dive"`
}

// SkipMonthScheduleRequest 跳过/恢复规则，IsSkipped 缺省为 true
type SkipMonthScheduleRequest struct {
	IsSkipped *bool `json:"is_skipped"`
}

// MonthScheduleResponse 规则响应
type MonthScheduleResponse struct {
	ID             string  `json:"id"`
	BookingID      string  `json:"booking_id"`
	WeekOfMonth    int     `json:"week_of_month"`
	DayOfWeek      int     `json:"day_of_week"`
	Time           string  `json:"time"`
	IsSkipped      bool    `json:"is_skipped"`
	NextOccurrence *string `json:"next_occurrence,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// BookingNextOccurrenceResponse 预约的下一次服务时间
type BookingNextOccurrenceResponse struct {
	BookingID       string `json:"booking_id"`
	MonthScheduleID string `json:"month_schedule_id"`
	OccursAt        string `json:"occurs_at"`
}
