package model

// CleaningService 服务项目表 — 对应 services
// 目录维护由服务目录模块负责，排班只关心时长
type CleaningService struct {
	ServiceID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"service_id"`
	Name            string `gorm:"type:varchar(100);not null"                     json:"name"`
	DurationMinutes int    `gorm:"not null"                                       json:"duration_minutes"`
	IsActive        bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (CleaningService) TableName() string { return "services" }
