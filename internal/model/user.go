package model

// 用户角色
const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User 用户表 — 对应 users
// 账号的创建与认证由用户模块负责，此处只读取身份、角色与状态
type User struct {
	UserID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name   string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email  string `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone  string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Role   string `gorm:"type:varchar(20);not null;default:'customer'"   json:"role"`   // admin | staff | customer
	Status string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"` // active | inactive
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsActiveStaff 是否为在职保洁员
func (u *User) IsActiveStaff() bool {
	return u.Role == RoleStaff && u.Status == UserStatusActive
}
