package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cleanbook/backend/internal/dto"
	"cleanbook/backend/internal/model"
	"cleanbook/backend/internal/repository"
	pkgerrors "cleanbook/backend/pkg/errors"
)

// ── 排班模块业务错误 ──

var (
	ErrScheduleNotFound        = fmt.Errorf("%w: 排班不存在", pkgerrors.ErrNotFound)
	ErrScheduleConflict        = fmt.Errorf("%w: 该保洁员在此时间段已有排班", pkgerrors.ErrConflict)
	ErrPrimaryScheduleNotFound = fmt.Errorf("%w: 预约尚无主排班", pkgerrors.ErrNotFound)
	ErrScheduleNotScheduled    = fmt.Errorf("%w: 仅待开始的排班可以开始服务", pkgerrors.ErrValidation)
	ErrScheduleNotStarted      = fmt.Errorf("%w: 排班尚未开始，不能标记完成", pkgerrors.ErrValidation)
	ErrScheduleCompleted       = fmt.Errorf("%w: 已完成的排班不可变更状态", pkgerrors.ErrValidation)
	ErrInvalidScheduleStatus   = fmt.Errorf("%w: 不支持的排班状态", pkgerrors.ErrValidation)
	ErrCompleteBeforeStart     = fmt.Errorf("%w: 完成时间不能早于实际开始时间", pkgerrors.ErrValidation)
	ErrScheduleForbidden       = errors.New("只能操作自己的排班")
)

// ScheduleService 排班业务接口
type ScheduleService interface {
	Create(ctx context.Context, req *dto.CreateScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ScheduleResponse, error)
	List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, int64, error)
	// Update 部分更新；时间区间或保洁员变化时重新检测冲突
	Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	Delete(ctx context.Context, id string) error

	// 服务过程：staff 角色只能操作自己的排班
	MarkStarted(ctx context.Context, id string, req *dto.ScheduleMarkRequest, callerID, callerRole string) (*dto.ScheduleResponse, error)
	MarkCompleted(ctx context.Context, id string, req *dto.ScheduleMarkRequest, callerID, callerRole string) (*dto.ScheduleResponse, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateScheduleStatusRequest, callerID string) (*dto.ScheduleResponse, error)

	GetPrimaryForBooking(ctx context.Context, bookingID string) (*dto.ScheduleResponse, error)
}

type scheduleService struct {
	repo   *repository.Repository
	opts   Options
	rec    Recorder
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, opts Options, rec Recorder, logger *zap.Logger) ScheduleService {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &scheduleService{repo: repo, opts: opts.withDefaults(), rec: rec, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Create — 加锁 → 查冲突 → 写入 → 维护主排班
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	start, end := req.StartTime.UTC(), req.EndTime.UTC()
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	staff, err := s.requireStaff(ctx, s.repo, req.StaffID)
	if err != nil {
		return nil, err
	}
	if req.BookingID != nil {
		if err := s.requireBooking(ctx, s.repo, *req.BookingID); err != nil {
			return nil, err
		}
	}

	schedule := &model.Schedule{
		StaffID:   req.StaffID,
		BookingID: req.BookingID,
		StartTime: start,
		EndTime:   end,
		Status:    model.ScheduleStatusScheduled,
	}
	schedule.CreatedBy = &callerID
	schedule.UpdatedBy = &callerID

	err = s.repo.Tx.WithStaffLock(ctx, []string{req.StaffID}, func(ctx context.Context, tx *repository.Repository) error {
		existing, err := tx.Schedule.ListStaffWindow(ctx, schedule.StaffID, start, end, "")
		if err != nil {
			return err
		}
		if hit := s.opts.conflictsWith(existing, start, end); hit != nil {
			s.logger.Info("排班时间冲突",
				zap.String("staff_id", schedule.StaffID),
				zap.String("conflict_with", hit.ScheduleID))
			s.rec.RecordConflict("schedule")
			return ErrScheduleConflict
		}

		if err := tx.Schedule.Create(ctx, schedule); err != nil {
			return err
		}
		if schedule.BookingID != nil {
			if _, err := tx.Booking.AssignPrimaryIfEmpty(ctx, *schedule.BookingID, schedule.ScheduleID); err != nil {
				return fmt.Errorf("设置主排班失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapWriteError("创建排班失败", err, zap.String("staff_id", req.StaffID))
	}

	schedule.Staff = staff
	s.rec.RecordMutation("schedule", "create")
	return toScheduleResponse(schedule), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *scheduleService) GetByID(ctx context.Context, id string) (*dto.ScheduleResponse, error) {
	schedule, err := s.getSchedule(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

func (s *scheduleService) List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, int64, error) {
	page, pageSize := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if req.From != nil && req.To != nil && !req.To.After(*req.From) {
		return nil, 0, ErrInvalidTimeRange
	}

	filter := repository.ScheduleFilter{
		StaffID:   req.StaffID,
		BookingID: req.BookingID,
		From:      req.From,
		To:        req.To,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	}
	schedules, total, err := s.repo.Schedule.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询排班列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		result = append(result, *toScheduleResponse(&schedules[i]))
	}
	return result, total, nil
}

// ════════════════════════════════════════════════════════════
// Update — 合并字段后校验；换人时同时锁定新旧两个保洁员
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	existing, err := s.getSchedule(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	var newStaff *model.User
	lockIDs := []string{existing.StaffID}
	if req.StaffID != nil && *req.StaffID != existing.StaffID {
		if newStaff, err = s.requireStaff(ctx, s.repo, *req.StaffID); err != nil {
			return nil, err
		}
		lockIDs = append(lockIDs, *req.StaffID)
	}
	if req.BookingID != nil {
		if err := s.requireBooking(ctx, s.repo, *req.BookingID); err != nil {
			return nil, err
		}
	}

	var updated *model.Schedule
	err = s.repo.Tx.WithStaffLock(ctx, lockIDs, func(ctx context.Context, tx *repository.Repository) error {
		schedule, err := s.getSchedule(ctx, tx, id)
		if err != nil {
			return err
		}
		// 加锁前读取到的保洁员已被并发修改，锁的对象不再正确
		if schedule.StaffID != existing.StaffID {
			return pkgerrors.ErrOptimisticLock
		}

		oldBooking := schedule.BookingID
		rangeChanged, staffChanged, err := applyScheduleUpdate(schedule, req)
		if err != nil {
			return err
		}

		if rangeChanged || staffChanged {
			others, err := tx.Schedule.ListStaffWindow(ctx, schedule.StaffID, schedule.StartTime, schedule.EndTime, schedule.ScheduleID)
			if err != nil {
				return err
			}
			if hit := s.opts.conflictsWith(others, schedule.StartTime, schedule.EndTime); hit != nil {
				s.logger.Info("排班时间冲突",
					zap.String("schedule_id", schedule.ScheduleID),
					zap.String("conflict_with", hit.ScheduleID))
				s.rec.RecordConflict("schedule")
				return ErrScheduleConflict
			}
		}

		schedule.UpdatedBy = &callerID
		if err := tx.Schedule.Update(ctx, schedule); err != nil {
			return err
		}

		if !sameStringPtr(oldBooking, schedule.BookingID) {
			if err := s.reassignPrimary(ctx, tx, oldBooking, schedule.ScheduleID); err != nil {
				return err
			}
			if schedule.BookingID != nil {
				if _, err := tx.Booking.AssignPrimaryIfEmpty(ctx, *schedule.BookingID, schedule.ScheduleID); err != nil {
					return fmt.Errorf("设置主排班失败: %w", err)
				}
			}
		}

		updated = schedule
		return nil
	})
	if err != nil {
		return nil, s.wrapWriteError("更新排班失败", err, zap.String("id", id))
	}

	if newStaff != nil {
		updated.Staff = newStaff
	}
	s.rec.RecordMutation("schedule", "update")
	return toScheduleResponse(updated), nil
}

// applyScheduleUpdate 将 req 中的非空字段合并到 schedule
func applyScheduleUpdate(schedule *model.Schedule, req *dto.UpdateScheduleRequest) (rangeChanged, staffChanged bool, err error) {
	start, end := schedule.StartTime, schedule.EndTime
	if req.StartTime != nil {
		start = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		end = req.EndTime.UTC()
	}
	// 只改一端时，与保留的另一端比较
	if (req.StartTime != nil || req.EndTime != nil) && !end.After(start) {
		return false, false, ErrInvalidTimeRange
	}
	rangeChanged = !start.Equal(schedule.StartTime) || !end.Equal(schedule.EndTime)
	schedule.StartTime, schedule.EndTime = start, end

	if req.StaffID != nil && *req.StaffID != schedule.StaffID {
		schedule.StaffID = *req.StaffID
		schedule.Staff = nil
		staffChanged = true
	}
	if req.BookingID != nil {
		bookingID := *req.BookingID
		if bookingID == "" {
			schedule.BookingID = nil
		} else {
			schedule.BookingID = &bookingID
		}
	}

	if req.ActualStartTime != nil {
		t := req.ActualStartTime.UTC()
		schedule.ActualStartTime = &t
	}
	if req.ActualEndTime != nil {
		t := req.ActualEndTime.UTC()
		schedule.ActualEndTime = &t
	}
	if schedule.ActualStartTime != nil && schedule.ActualEndTime != nil &&
		schedule.ActualEndTime.Before(*schedule.ActualStartTime) {
		return false, false, ErrCompleteBeforeStart
	}
	return rangeChanged, staffChanged, nil
}

// ────────────────────── Delete ──────────────────────

func (s *scheduleService) Delete(ctx context.Context, id string) error {
	schedule, err := s.getSchedule(ctx, s.repo, id)
	if err != nil {
		return err
	}

	// 与 Update 持同一把保洁员锁，锁内重新读取以拿到最新的 booking_id
	err = s.repo.Tx.WithStaffLock(ctx, []string{schedule.StaffID}, func(ctx context.Context, tx *repository.Repository) error {
		current, err := s.getSchedule(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.Schedule.Delete(ctx, id); err != nil {
			return err
		}
		return s.reassignPrimary(ctx, tx, current.BookingID, id)
	})
	if err != nil {
		return s.wrapWriteError("删除排班失败", err, zap.String("id", id))
	}

	s.rec.RecordMutation("schedule", "delete")
	return nil
}

// reassignPrimary 排班 removedID 离开预约 bookingID 后，若它是主排班则顺延为最早的剩余排班
func (s *scheduleService) reassignPrimary(ctx context.Context, tx *repository.Repository, bookingID *string, removedID string) error {
	if bookingID == nil {
		return nil
	}
	booking, err := tx.Booking.GetByID(ctx, *bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if booking.PrimaryScheduleID == nil || *booking.PrimaryScheduleID != removedID {
		return nil
	}

	remaining, err := tx.Schedule.ListByBooking(ctx, *bookingID)
	if err != nil {
		return err
	}
	var next *string
	for i := range remaining {
		if remaining[i].ScheduleID != removedID {
			next = &remaining[i].ScheduleID
			break
		}
	}
	return tx.Booking.SetPrimarySchedule(ctx, *bookingID, next)
}

// ════════════════════════════════════════════════════════════
// 服务过程状态流转
// ════════════════════════════════════════════════════════════

func (s *scheduleService) MarkStarted(ctx context.Context, id string, req *dto.ScheduleMarkRequest, callerID, callerRole string) (*dto.ScheduleResponse, error) {
	at := s.markTime(req)
	return s.transition(ctx, id, callerID, callerRole, "start", func(schedule *model.Schedule) error {
		if schedule.Status != model.ScheduleStatusScheduled {
			return ErrScheduleNotScheduled
		}
		schedule.Status = model.ScheduleStatusInProgress
		schedule.ActualStartTime = &at
		return nil
	})
}

func (s *scheduleService) MarkCompleted(ctx context.Context, id string, req *dto.ScheduleMarkRequest, callerID, callerRole string) (*dto.ScheduleResponse, error) {
	at := s.markTime(req)
	return s.transition(ctx, id, callerID, callerRole, "complete", func(schedule *model.Schedule) error {
		if schedule.Status != model.ScheduleStatusInProgress || schedule.ActualStartTime == nil {
			return ErrScheduleNotStarted
		}
		if at.Before(*schedule.ActualStartTime) {
			return ErrCompleteBeforeStart
		}
		schedule.Status = model.ScheduleStatusCompleted
		schedule.ActualEndTime = &at
		return nil
	})
}

func (s *scheduleService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateScheduleStatusRequest, callerID string) (*dto.ScheduleResponse, error) {
	switch req.Status {
	case model.ScheduleStatusCanceled, model.ScheduleStatusRescheduled, model.ScheduleStatusSkipped:
	default:
		return nil, ErrInvalidScheduleStatus
	}

	return s.transition(ctx, id, callerID, model.RoleAdmin, "status", func(schedule *model.Schedule) error {
		if schedule.Status == model.ScheduleStatusCompleted {
			return ErrScheduleCompleted
		}
		schedule.Status = req.Status
		if req.Status == model.ScheduleStatusSkipped {
			schedule.IsSkipped = true
		}
		return nil
	})
}

// transition 读取 → 权限校验 → mutate → 乐观锁写回
func (s *scheduleService) transition(
	ctx context.Context,
	id, callerID, callerRole, op string,
	mutate func(schedule *model.Schedule) error,
) (*dto.ScheduleResponse, error) {
	schedule, err := s.getSchedule(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if callerRole == model.RoleStaff && schedule.StaffID != callerID {
		return nil, ErrScheduleForbidden
	}

	if err := mutate(schedule); err != nil {
		return nil, err
	}
	schedule.UpdatedBy = &callerID

	if err := s.repo.Schedule.Update(ctx, schedule); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("更新排班状态失败", zap.String("id", id), zap.String("op", op), zap.Error(err))
		return nil, err
	}

	s.rec.RecordMutation("schedule", op)
	return toScheduleResponse(schedule), nil
}

func (s *scheduleService) markTime(req *dto.ScheduleMarkRequest) time.Time {
	if req != nil && req.At != nil {
		return req.At.UTC()
	}
	return s.opts.Now().UTC()
}

// ────────────────────── 主排班 ──────────────────────

func (s *scheduleService) GetPrimaryForBooking(ctx context.Context, bookingID string) (*dto.ScheduleResponse, error) {
	booking, err := s.repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	if booking.PrimaryScheduleID == nil {
		return nil, ErrPrimaryScheduleNotFound
	}

	schedule, err := s.getSchedule(ctx, s.repo, *booking.PrimaryScheduleID)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return nil, ErrPrimaryScheduleNotFound
		}
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// ── 内部辅助方法 ──

func (s *scheduleService) requireStaff(ctx context.Context, repo *repository.Repository, staffID string) (*model.User, error) {
	user, err := repo.User.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询保洁员失败", zap.String("staff_id", staffID), zap.Error(err))
		return nil, err
	}
	if !user.IsActiveStaff() {
		return nil, ErrStaffNotFound
	}
	return user, nil
}

func (s *scheduleService) requireBooking(ctx context.Context, repo *repository.Repository, bookingID string) error {
	if bookingID == "" {
		return nil
	}
	if _, err := repo.Booking.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.String("booking_id", bookingID), zap.Error(err))
		return err
	}
	return nil
}

func (s *scheduleService) getSchedule(ctx context.Context, repo *repository.Repository, id string) (*model.Schedule, error) {
	schedule, err := repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return schedule, nil
}

func (s *scheduleService) wrapWriteError(msg string, err error, fields ...zap.Field) error {
	if isBusinessError(err) {
		return err
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
	return err
}

func sameStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func toScheduleResponse(schedule *model.Schedule) *dto.ScheduleResponse {
	resp := &dto.ScheduleResponse{
		ID:              schedule.ScheduleID,
		StaffID:         schedule.StaffID,
		BookingID:       schedule.BookingID,
		StartTime:       formatTime(schedule.StartTime),
		EndTime:         formatTime(schedule.EndTime),
		Status:          schedule.Status,
		ActualStartTime: formatTimePtr(schedule.ActualStartTime),
		ActualEndTime:   formatTimePtr(schedule.ActualEndTime),
		IsSkipped:       schedule.IsSkipped,
		Version:         schedule.Version,
		CreatedAt:       formatTime(schedule.CreatedAt),
		UpdatedAt:       formatTime(schedule.UpdatedAt),
	}
	if schedule.Staff != nil {
		resp.Staff = &dto.StaffBrief{ID: schedule.Staff.UserID, Name: schedule.Staff.Name}
	}
	return resp
}
