package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cleanbook/backend/internal/dto"
	"cleanbook/backend/internal/model"
	"cleanbook/backend/internal/repository"
	"cleanbook/backend/internal/scheduling"
	pkgerrors "cleanbook/backend/pkg/errors"
)

// ── 可用时段模块业务错误 ──

var (
	ErrAvailabilityNotFound = fmt.Errorf("%w: 可用时段不存在", pkgerrors.ErrNotFound)
	ErrAvailabilityOverlap  = fmt.Errorf("%w: 与该保洁员当天已有可用时段重叠", pkgerrors.ErrConflict)
)

// AvailabilityService 保洁员每周可用时段业务接口
type AvailabilityService interface {
	Create(ctx context.Context, req *dto.CreateAvailabilityRequest, callerID string) (*dto.AvailabilityResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAvailabilityRequest, callerID string) (*dto.AvailabilityResponse, error)
	Delete(ctx context.Context, id string) error
	ListForStaff(ctx context.Context, staffID string) ([]dto.AvailabilityResponse, error)
}

type availabilityService struct {
	repo   *repository.Repository
	rec    Recorder
	logger *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例
func NewAvailabilityService(repo *repository.Repository, rec Recorder, logger *zap.Logger) AvailabilityService {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &availabilityService{repo: repo, rec: rec, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *availabilityService) Create(ctx context.Context, req *dto.CreateAvailabilityRequest, callerID string) (*dto.AvailabilityResponse, error) {
	if req.DayOfWeek == nil || !validDayOfWeek(*req.DayOfWeek) {
		return nil, ErrInvalidDayOfWeek
	}
	window, err := scheduling.MinuteClockRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, ErrInvalidClockFormat
	}
	if !window.Valid() {
		return nil, ErrInvalidTimeRange
	}

	if err := s.ensureStaff(ctx, s.repo, req.StaffID); err != nil {
		return nil, err
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	slot := &model.StaffAvailability{
		StaffID:     req.StaffID,
		DayOfWeek:   *req.DayOfWeek,
		StartTime:   scheduling.FormatClock(window.Start),
		EndTime:     scheduling.FormatClock(window.End),
		IsAvailable: isAvailable,
	}
	slot.CreatedBy = &callerID
	slot.UpdatedBy = &callerID

	err = s.repo.Tx.WithStaffLock(ctx, []string{req.StaffID}, func(ctx context.Context, tx *repository.Repository) error {
		if err := s.checkOverlap(ctx, tx, slot.StaffID, slot.DayOfWeek, window, ""); err != nil {
			return err
		}
		return tx.Availability.Create(ctx, slot)
	})
	if err != nil {
		return nil, s.wrapWriteError("创建可用时段失败", err, zap.String("staff_id", req.StaffID))
	}

	s.rec.RecordMutation("availability", "create")
	return toAvailabilityResponse(slot), nil
}

// ────────────────────── Update ──────────────────────

func (s *availabilityService) Update(ctx context.Context, id string, req *dto.UpdateAvailabilityRequest, callerID string) (*dto.AvailabilityResponse, error) {
	if req.DayOfWeek != nil && !validDayOfWeek(*req.DayOfWeek) {
		return nil, ErrInvalidDayOfWeek
	}
	for _, v := range []*string{req.StartTime, req.EndTime} {
		if v == nil {
			continue
		}
		if _, err := scheduling.ParseMinuteClock(*v); err != nil {
			return nil, ErrInvalidClockFormat
		}
	}

	existing, err := s.getSlot(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	var updated *model.StaffAvailability
	err = s.repo.Tx.WithStaffLock(ctx, []string{existing.StaffID}, func(ctx context.Context, tx *repository.Repository) error {
		// 加锁后重新读取，防止读到并发修改前的旧值
		slot, err := s.getSlot(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.DayOfWeek != nil {
			slot.DayOfWeek = *req.DayOfWeek
		}
		if req.StartTime != nil {
			slot.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			slot.EndTime = *req.EndTime
		}
		if req.IsAvailable != nil {
			slot.IsAvailable = *req.IsAvailable
		}

		window, err := scheduling.MinuteClockRange(slot.StartTime, slot.EndTime)
		if err != nil {
			return ErrInvalidClockFormat
		}
		if !window.Valid() {
			return ErrInvalidTimeRange
		}
		slot.StartTime = scheduling.FormatClock(window.Start)
		slot.EndTime = scheduling.FormatClock(window.End)
		slot.UpdatedBy = &callerID

		if err := s.checkOverlap(ctx, tx, slot.StaffID, slot.DayOfWeek, window, slot.AvailabilityID); err != nil {
			return err
		}
		if err := tx.Availability.Update(ctx, slot); err != nil {
			return err
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, s.wrapWriteError("更新可用时段失败", err, zap.String("id", id))
	}

	s.rec.RecordMutation("availability", "update")
	return toAvailabilityResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

func (s *availabilityService) Delete(ctx context.Context, id string) error {
	if _, err := s.getSlot(ctx, s.repo, id); err != nil {
		return err
	}

	if err := s.repo.Availability.Delete(ctx, id); err != nil {
		s.logger.Error("删除可用时段失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.rec.RecordMutation("availability", "delete")
	return nil
}

// ────────────────────── ListForStaff ──────────────────────

func (s *availabilityService) ListForStaff(ctx context.Context, staffID string) ([]dto.AvailabilityResponse, error) {
	slots, err := s.repo.Availability.ListByStaff(ctx, staffID)
	if err != nil {
		s.logger.Error("查询可用时段失败", zap.String("staff_id", staffID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AvailabilityResponse, 0, len(slots))
	for i := range slots {
		result = append(result, *toAvailabilityResponse(&slots[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

// checkOverlap 同一保洁员同一天的其他时段不得与 window 重叠（首尾相接不算）
func (s *availabilityService) checkOverlap(ctx context.Context, tx *repository.Repository, staffID string, dayOfWeek int, window scheduling.Interval, excludeID string) error {
	siblings, err := tx.Availability.ListByStaffAndDay(ctx, staffID, dayOfWeek)
	if err != nil {
		return err
	}

	for i := range siblings {
		other := &siblings[i]
		if other.AvailabilityID == excludeID {
			continue
		}
		otherWindow, err := scheduling.ClockRange(other.StartTime, other.EndTime)
		if err != nil {
			s.logger.Warn("已有可用时段时刻格式异常", zap.String("id", other.AvailabilityID), zap.Error(err))
			continue
		}
		if window.Overlaps(otherWindow) {
			s.rec.RecordConflict("availability")
			return ErrAvailabilityOverlap
		}
	}
	return nil
}

func (s *availabilityService) ensureStaff(ctx context.Context, repo *repository.Repository, staffID string) error {
	user, err := repo.User.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStaffNotFound
		}
		s.logger.Error("查询保洁员失败", zap.String("staff_id", staffID), zap.Error(err))
		return err
	}
	if user.Role != model.RoleStaff {
		return ErrStaffNotFound
	}
	return nil
}

func (s *availabilityService) getSlot(ctx context.Context, repo *repository.Repository, id string) (*model.StaffAvailability, error) {
	slot, err := repo.Availability.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAvailabilityNotFound
		}
		s.logger.Error("查询可用时段失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return slot, nil
}

// wrapWriteError 业务错误原样返回，其余记录日志
func (s *availabilityService) wrapWriteError(msg string, err error, fields ...zap.Field) error {
	if isBusinessError(err) {
		return err
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
	return err
}

func validDayOfWeek(d int) bool {
	return d >= 0 && d <= 6
}

// isBusinessError 是否属于可直接返回给调用方的业务错误
func isBusinessError(err error) bool {
	return errors.Is(err, pkgerrors.ErrValidation) ||
		errors.Is(err, pkgerrors.ErrConflict) ||
		errors.Is(err, pkgerrors.ErrNotFound) ||
		errors.Is(err, pkgerrors.ErrOptimisticLock)
}

func toAvailabilityResponse(slot *model.StaffAvailability) *dto.AvailabilityResponse {
	return &dto.AvailabilityResponse{
		ID:          slot.AvailabilityID,
		StaffID:     slot.StaffID,
		DayOfWeek:   slot.DayOfWeek,
		StartTime:   displayClock(slot.StartTime),
		EndTime:     displayClock(slot.EndTime),
		IsAvailable: slot.IsAvailable,
		CreatedAt:   formatTime(slot.CreatedAt),
		UpdatedAt:   formatTime(slot.UpdatedAt),
	}
}

// displayClock PostgreSQL time 列回读为 "09:00:00"，统一输出 "09:00"
func displayClock(s string) string {
	if v, err := scheduling.NormalizeClock(s); err == nil {
		return v
	}
	return s
}
