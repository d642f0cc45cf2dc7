package repository

import (
	"context"

	"gorm.io/gorm"

	"cleanbook/backend/internal/model"
)

// MonthScheduleRepository 按月循环规则数据访问接口
type MonthScheduleRepository interface {
	BatchCreate(ctx context.Context, rules []model.MonthSchedule) error
	GetByID(ctx context.Context, id string) (*model.MonthSchedule, error)
	ListByBooking(ctx context.Context, bookingID string) ([]model.MonthSchedule, error)
	SetSkipped(ctx context.Context, id string, skipped bool, updatedBy string) error
}

type monthScheduleRepo struct {
	db *gorm.DB
}

// NewMonthScheduleRepo 创建 MonthScheduleRepository 实例
func NewMonthScheduleRepo(db *gorm.DB) MonthScheduleRepository {
	return &monthScheduleRepo{db: db}
}

func (r *monthScheduleRepo) BatchCreate(ctx context.Context, rules []model.MonthSchedule) error {
	if len(rules) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rules).Error
}

func (r *monthScheduleRepo) GetByID(ctx context.Context, id string) (*model.MonthSchedule, error) {
	var rule model.MonthSchedule
	err := r.db.WithContext(ctx).
		Where("month_schedule_id = ?", id).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *monthScheduleRepo) ListByBooking(ctx context.Context, bookingID string) ([]model.MonthSchedule, error) {
	var rules []model.MonthSchedule
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC, week_of_month ASC, day_of_week ASC").
		Find(&rules).Error
	return rules, err
}

func (r *monthScheduleRepo) SetSkipped(ctx context.Context, id string, skipped bool, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.MonthSchedule{}).
		Where("month_schedule_id = ?", id).
		Updates(map[string]interface{}{
			"is_skipped": skipped,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}
