package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cleanbook/backend/internal/model"
	pkgerrors "cleanbook/backend/pkg/errors"
)

// ScheduleFilter 排班列表查询条件，零值字段不参与过滤
type ScheduleFilter struct {
	StaffID   string
	BookingID string
	From      *time.Time // 与 [From, To) 有交集的排班
	To        *time.Time
	Offset    int
	Limit     int
}

// ScheduleRepository 排班数据访问接口
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, int64, error)
	// ListStaffWindow 某保洁员与 [start, end) 有交集的排班（不区分状态），excludeID 非空时排除自身
	ListStaffWindow(ctx context.Context, staffID string, start, end time.Time, excludeID string) ([]model.Schedule, error)
	// ListWindow 所有保洁员与 [start, end) 有交集的排班
	ListWindow(ctx context.Context, start, end time.Time) ([]model.Schedule, error)
	ListByBooking(ctx context.Context, bookingID string) ([]model.Schedule, error)
	Update(ctx context.Context, schedule *model.Schedule) error
	Delete(ctx context.Context, id string) error
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, int64, error) {
	var schedules []model.Schedule
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Schedule{})
	if filter.StaffID != "" {
		db = db.Where("staff_id = ?", filter.StaffID)
	}
	if filter.BookingID != "" {
		db = db.Where("booking_id = ?", filter.BookingID)
	}
	if filter.From != nil {
		db = db.Where("end_time > ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("start_time < ?", *filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("Staff").Order("start_time ASC, schedule_id ASC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := q.Find(&schedules).Error; err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}

func (r *scheduleRepo) ListStaffWindow(ctx context.Context, staffID string, start, end time.Time, excludeID string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	db := r.db.WithContext(ctx).
		Where("staff_id = ? AND start_time < ? AND end_time > ?", staffID, end, start)
	if excludeID != "" {
		db = db.Where("schedule_id <> ?", excludeID)
	}
	err := db.Order("start_time ASC").Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) ListWindow(ctx context.Context, start, end time.Time) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Where("start_time < ? AND end_time > ?", end, start).
		Order("staff_id ASC, start_time ASC").
		Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) ListByBooking(ctx context.Context, bookingID string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("start_time ASC, schedule_id ASC").
		Find(&schedules).Error
	return schedules, err
}

// Update 带乐观锁的更新：version 不匹配时返回 ErrOptimisticLock
func (r *scheduleRepo) Update(ctx context.Context, schedule *model.Schedule) error {
	oldVersion := schedule.Version
	result := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("schedule_id = ? AND version = ?", schedule.ScheduleID, oldVersion).
		Updates(map[string]interface{}{
			"staff_id":          schedule.StaffID,
			"booking_id":        schedule.BookingID,
			"start_time":        schedule.StartTime,
			"end_time":          schedule.EndTime,
			"status":            schedule.Status,
			"actual_start_time": schedule.ActualStartTime,
			"actual_end_time":   schedule.ActualEndTime,
			"is_skipped":        schedule.IsSkipped,
			"updated_by":        schedule.UpdatedBy,
			"updated_at":        gorm.Expr("NOW()"),
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version = oldVersion + 1
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		Delete(&model.Schedule{}).Error
}
