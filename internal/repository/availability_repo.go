package repository

import (
	"context"

	"gorm.io/gorm"

	"cleanbook/backend/internal/model"
)

// AvailabilityRepository 保洁员可用时段数据访问接口
type AvailabilityRepository interface {
	Create(ctx context.Context, slot *model.StaffAvailability) error
	GetByID(ctx context.Context, id string) (*model.StaffAvailability, error)
	ListByStaff(ctx context.Context, staffID string) ([]model.StaffAvailability, error)
	ListByStaffAndDay(ctx context.Context, staffID string, dayOfWeek int) ([]model.StaffAvailability, error)
	ListAvailableByDay(ctx context.Context, dayOfWeek int) ([]model.StaffAvailability, error)
	Update(ctx context.Context, slot *model.StaffAvailability) error
	Delete(ctx context.Context, id string) error
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo 创建 AvailabilityRepository 实例
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) Create(ctx context.Context, slot *model.StaffAvailability) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *availabilityRepo) GetByID(ctx context.Context, id string) (*model.StaffAvailability, error) {
	var slot model.StaffAvailability
	err := r.db.WithContext(ctx).
		Where("availability_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *availabilityRepo) ListByStaff(ctx context.Context, staffID string) ([]model.StaffAvailability, error) {
	var slots []model.StaffAvailability
	err := r.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *availabilityRepo) ListByStaffAndDay(ctx context.Context, staffID string, dayOfWeek int) ([]model.StaffAvailability, error) {
	var slots []model.StaffAvailability
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND day_of_week = ?", staffID, dayOfWeek).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

// ListAvailableByDay 查询某个星期几所有启用中的时段
func (r *availabilityRepo) ListAvailableByDay(ctx context.Context, dayOfWeek int) ([]model.StaffAvailability, error) {
	var slots []model.StaffAvailability
	err := r.db.WithContext(ctx).
		Where("day_of_week = ? AND is_available = ?", dayOfWeek, true).
		Order("staff_id ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *availabilityRepo) Update(ctx context.Context, slot *model.StaffAvailability) error {
	return r.db.WithContext(ctx).
		Model(slot).
		Where("availability_id = ?", slot.AvailabilityID).
		Updates(map[string]interface{}{
			"staff_id":     slot.StaffID,
			"day_of_week":  slot.DayOfWeek,
			"start_time":   slot.StartTime,
			"end_time":     slot.EndTime,
			"is_available": slot.IsAvailable,
			"updated_by":   slot.UpdatedBy,
			"updated_at":   gorm.Expr("NOW()"),
		}).Error
}

func (r *availabilityRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("availability_id = ?", id).
		Delete(&model.StaffAvailability{}).Error
}
