package repository

import (
	"context"

	"gorm.io/gorm"

	"cleanbook/backend/internal/model"
)

// ServiceRepository 服务项目数据访问接口（只读）
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*model.CleaningService, error)
}

type serviceRepo struct {
	db *gorm.DB
}

// NewServiceRepo 创建 ServiceRepository 实例
func NewServiceRepo(db *gorm.DB) ServiceRepository {
	return &serviceRepo{db: db}
}

func (r *serviceRepo) GetByID(ctx context.Context, id string) (*model.CleaningService, error) {
	var svc model.CleaningService
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND is_active = ?", id, true).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}
