package model

// StaffAvailability 保洁员每周可用时段表 — 对应 staff_availabilities
type StaffAvailability struct {
	AvailabilityID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"availability_id"`
	StaffID        string `gorm:"type:uuid;not null;index:idx_availability_staff_day" json:"staff_id"`
	DayOfWeek      int    `gorm:"type:smallint;not null;index:idx_availability_staff_day" json:"day_of_week"` // 0=周日 … 6=周六
	StartTime      string `gorm:"type:time;not null"                             json:"start_time"`
	EndTime        string `gorm:"type:time;not null"                             json:"end_time"`
	IsAvailable    bool   `gorm:"not null;default:true"                          json:"is_available"`
	BaseModel

	// 关联
	Staff *User `gorm:"foreignKey:StaffID;references:UserID" json:"staff,omitempty"`
}

// TableName 指定表名
func (StaffAvailability) TableName() string { return "staff_availabilities" }

// StaffSchedulingLock 按保洁员加行锁的占位表 — 对应 staff_scheduling_locks
// 排班与可用时段的“查冲突 + 写入”在同一事务内对该行 SELECT ... FOR UPDATE
type StaffSchedulingLock struct {
	StaffID string `gorm:"type:uuid;primaryKey" json:"staff_id"`
}

// TableName 指定表名
func (StaffSchedulingLock) TableName() string { return "staff_scheduling_locks" }
