package repository

import (
	"context"

	"gorm.io/gorm"

	"cleanbook/backend/internal/model"
)

// UserRepository 用户数据访问接口（只读：账号管理不在排班模块内）
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListActiveStaff(ctx context.Context, ids []string) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActiveStaff 查询在职保洁员；ids 非空时仅在其中筛选
func (r *userRepo) ListActiveStaff(ctx context.Context, ids []string) ([]model.User, error) {
	var users []model.User
	db := r.db.WithContext(ctx).
		Where("role = ? AND status = ?", model.RoleStaff, model.UserStatusActive)
	if ids != nil {
		if len(ids) == 0 {
			return users, nil
		}
		db = db.Where("user_id IN ?", ids)
	}
	err := db.Order("name ASC").Find(&users).Error
	return users, err
}
