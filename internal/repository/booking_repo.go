package repository

import (
	"context"

	"gorm.io/gorm"

	"cleanbook/backend/internal/model"
)

// BookingRepository 预约数据访问接口
// 排班模块只读取预约并维护主排班引用
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	SetPrimarySchedule(ctx context.Context, bookingID string, scheduleID *string) error
	// AssignPrimaryIfEmpty 仅当预约尚无主排班时写入，返回是否写入
	AssignPrimaryIfEmpty(ctx context.Context, bookingID, scheduleID string) (bool, error)
}

type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// SetPrimarySchedule scheduleID 为 nil 时清空引用
func (r *bookingRepo) SetPrimarySchedule(ctx context.Context, bookingID string, scheduleID *string) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("booking_id = ?", bookingID).
		Updates(map[string]interface{}{
			"primary_schedule_id": scheduleID,
			"updated_at":          gorm.Expr("NOW()"),
		}).Error
}

func (r *bookingRepo) AssignPrimaryIfEmpty(ctx context.Context, bookingID, scheduleID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("booking_id = ? AND primary_schedule_id IS NULL", bookingID).
		Updates(map[string]interface{}{
			"primary_schedule_id": scheduleID,
			"updated_at":          gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
