package model

// Booking 预约表 — 对应 bookings
// 预约的下单与支付流程在预约模块，排班只维护 PrimaryScheduleID
type Booking struct {
	BookingID         string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	CustomerID        string  `gorm:"type:uuid;not null"                             json:"customer_id"`
	ServiceID         string  `gorm:"type:uuid;not null"                             json:"service_id"`
	Status            string  `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	IsRecurring       bool    `gorm:"not null;default:false"                         json:"is_recurring"`
	PrimaryScheduleID *string `gorm:"type:uuid"                                      json:"primary_schedule_id,omitempty"` // 记录实际开始/结束时间的主排班
	SoftDeleteModel

	// 关联
	Service *CleaningService `gorm:"foreignKey:ServiceID;references:ServiceID" json:"service,omitempty"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }
