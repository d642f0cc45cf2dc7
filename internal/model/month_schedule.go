package model

// MonthSchedule 按月循环规则表 — 对应 month_schedules
// 表示“每月第 N 个星期 X 的 HH:MM”，具体日期按需推算，不落库
type MonthSchedule struct {
	MonthScheduleID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"month_schedule_id"`
	BookingID       string `gorm:"type:uuid;not null;index"                       json:"booking_id"`
	WeekOfMonth     int    `gorm:"type:smallint;not null"                         json:"week_of_month"` // 1-5
	DayOfWeek       int    `gorm:"type:smallint;not null"                         json:"day_of_week"`   // 0=周日 … 6=周六
	Time            string `gorm:"type:varchar(5);not null"                       json:"time"`          // "HH:MM"
	IsSkipped       bool   `gorm:"not null;default:false"                         json:"is_skipped"`
	BaseModel
}

// TableName 指定表名
func (MonthSchedule) TableName() string { return "month_schedules" }
