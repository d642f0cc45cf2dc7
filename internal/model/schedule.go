package model

import "time"

// 排班状态
const (
	ScheduleStatusScheduled   = "scheduled"
	ScheduleStatusInProgress  = "in_progress"
	ScheduleStatusCompleted   = "completed"
	ScheduleStatusCanceled    = "canceled"
	ScheduleStatusRescheduled = "rescheduled"
	ScheduleStatusSkipped     = "skipped"
)

// Schedule 排班表 — 对应 schedules
// 同一保洁员的 [StartTime, EndTime) 不得重叠
type Schedule struct {
	ScheduleID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	StaffID         string     `gorm:"type:uuid;not null;index"                       json:"staff_id"`
	BookingID       *string    `gorm:"type:uuid;index"                                json:"booking_id,omitempty"`
	StartTime       time.Time  `gorm:"type:timestamptz;not null"                      json:"start_time"`
	EndTime         time.Time  `gorm:"type:timestamptz;not null"                      json:"end_time"`
	Status          string     `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"status"`
	ActualStartTime *time.Time `gorm:"type:timestamptz"                               json:"actual_start_time,omitempty"`
	ActualEndTime   *time.Time `gorm:"type:timestamptz"                               json:"actual_end_time,omitempty"`
	IsSkipped       bool       `gorm:"not null;default:false"                         json:"is_skipped"`
	VersionedModel

	// 关联
	Staff   *User    `gorm:"foreignKey:StaffID;references:UserID"      json:"staff,omitempty"`
	Booking *Booking `gorm:"foreignKey:BookingID;references:BookingID" json:"booking,omitempty"`
}

// TableName 指定表名
func (Schedule) TableName() string { return "schedules" }

// IsInactive 已取消或已改期的排班
func (s *Schedule) IsInactive() bool {
	return s.Status == ScheduleStatusCanceled || s.Status == ScheduleStatusRescheduled
}
