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
	"cleanbook/backend/internal/scheduling"
	pkgerrors "cleanbook/backend/pkg/errors"
)

// ── 按月循环模块业务错误 ──

var (
	ErrInvalidWeekOfMonth    = fmt.Errorf("%w: week_of_month 必须在 1-5 之间", pkgerrors.ErrValidation)
	ErrMonthScheduleNotFound = fmt.Errorf("%w: 循环规则不存在", pkgerrors.ErrNotFound)
	ErrNoUpcomingOccurrence  = fmt.Errorf("%w: 预约没有可推算的下一次服务", pkgerrors.ErrNotFound)
)

const dateLayout = "2006-01-02"

// RecurrenceService 按月循环规则业务接口
type RecurrenceService interface {
	// NextOccurrence 纯计算，不访问存储
	NextOccurrence(ctx context.Context, req *dto.NextOccurrenceRequest) (*dto.NextOccurrenceResponse, error)
	CreateMonthSchedules(ctx context.Context, bookingID string, req *dto.CreateMonthSchedulesRequest, callerID string) ([]dto.MonthScheduleResponse, error)
	ListMonthSchedules(ctx context.Context, bookingID string) ([]dto.MonthScheduleResponse, error)
	SkipMonthSchedule(ctx context.Context, id string, req *dto.SkipMonthScheduleRequest, callerID string) (*dto.MonthScheduleResponse, error)
	NextOccurrenceForBooking(ctx context.Context, bookingID string) (*dto.BookingNextOccurrenceResponse, error)
}

type recurrenceService struct {
	repo   *repository.Repository
	opts   Options
	logger *zap.Logger
}

// NewRecurrenceService 创建 RecurrenceService 实例
func NewRecurrenceService(repo *repository.Repository, opts Options, logger *zap.Logger) RecurrenceService {
	return &recurrenceService{repo: repo, opts: opts.withDefaults(), logger: logger}
}

// ────────────────────── NextOccurrence ──────────────────────

func (s *recurrenceService) NextOccurrence(_ context.Context, req *dto.NextOccurrenceRequest) (*dto.NextOccurrenceResponse, error) {
	dayOfWeek := -1
	if req.DayOfWeek != nil {
		dayOfWeek = *req.DayOfWeek
	}
	if err := validateOrdinal(req.WeekOfMonth, dayOfWeek); err != nil {
		return nil, err
	}

	date, ok := scheduling.NextOccurrence(req.WeekOfMonth, dayOfWeek, s.reference(req.Reference))
	if !ok {
		return &dto.NextOccurrenceResponse{Found: false}, nil
	}
	return &dto.NextOccurrenceResponse{Found: true, Date: strPtr(date.Format(dateLayout))}, nil
}

// reference 参考日期按年月日解释到排班时区；缺省为当前时间
func (s *recurrenceService) reference(ref *time.Time) time.Time {
	if ref == nil {
		return s.opts.Now().In(s.opts.Location)
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, s.opts.Location)
}

// ════════════════════════════════════════════════════════════
// CreateMonthSchedules — 先校验全部规则，再在同一事务内写入
// ════════════════════════════════════════════════════════════

func (s *recurrenceService) CreateMonthSchedules(ctx context.Context, bookingID string, req *dto.CreateMonthSchedulesRequest, callerID string) ([]dto.MonthScheduleResponse, error) {
	rules := make([]model.MonthSchedule, 0, len(req.Rules))
	for i, r := range req.Rules {
		dayOfWeek := -1
		if r.DayOfWeek != nil {
			dayOfWeek = *r.DayOfWeek
		}
		if err := validateOrdinal(r.WeekOfMonth, dayOfWeek); err != nil {
			return nil, fmt.Errorf("第 %d 条规则: %w", i+1, err)
		}
		parsed, err := scheduling.ParseMinuteClock(r.Time)
		if err != nil {
			return nil, fmt.Errorf("第 %d 条规则: %w", i+1, ErrInvalidClockFormat)
		}
		clock := scheduling.FormatClock(parsed)

		rule := model.MonthSchedule{
			BookingID:   bookingID,
			WeekOfMonth: r.WeekOfMonth,
			DayOfWeek:   dayOfWeek,
			Time:        clock,
		}
		rule.CreatedBy = &callerID
		rule.UpdatedBy = &callerID
		rules = append(rules, rule)
	}

	if _, err := s.repo.Booking.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		return tx.MonthSchedule.BatchCreate(ctx, rules)
	})
	if err != nil {
		s.logger.Error("批量创建循环规则失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("循环规则已创建", zap.String("booking_id", bookingID), zap.Int("count", len(rules)))
	return s.toResponses(rules), nil
}

// ────────────────────── 查询 / 跳过 ──────────────────────

func (s *recurrenceService) ListMonthSchedules(ctx context.Context, bookingID string) ([]dto.MonthScheduleResponse, error) {
	rules, err := s.repo.MonthSchedule.ListByBooking(ctx, bookingID)
	if err != nil {
		s.logger.Error("查询循环规则失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return s.toResponses(rules), nil
}

func (s *recurrenceService) SkipMonthSchedule(ctx context.Context, id string, req *dto.SkipMonthScheduleRequest, callerID string) (*dto.MonthScheduleResponse, error) {
	rule, err := s.repo.MonthSchedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMonthScheduleNotFound
		}
		s.logger.Error("查询循环规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	skipped := true
	if req != nil && req.IsSkipped != nil {
		skipped = *req.IsSkipped
	}
	if err := s.repo.MonthSchedule.SetSkipped(ctx, id, skipped, callerID); err != nil {
		s.logger.Error("更新循环规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	rule.IsSkipped = skipped
	resp := s.toResponse(rule, s.opts.Now().In(s.opts.Location))
	return &resp, nil
}

// ────────────────────── NextOccurrenceForBooking ──────────────────────

// NextOccurrenceForBooking 所有未跳过规则推算结果中最早的一次
func (s *recurrenceService) NextOccurrenceForBooking(ctx context.Context, bookingID string) (*dto.BookingNextOccurrenceResponse, error) {
	if _, err := s.repo.Booking.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	rules, err := s.repo.MonthSchedule.ListByBooking(ctx, bookingID)
	if err != nil {
		s.logger.Error("查询循环规则失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	now := s.opts.Now().In(s.opts.Location)
	var (
		best     time.Time
		bestRule *model.MonthSchedule
	)
	for i := range rules {
		rule := &rules[i]
		if rule.IsSkipped {
			continue
		}
		at, ok := s.project(rule, now)
		if !ok {
			continue
		}
		if bestRule == nil || at.Before(best) {
			best, bestRule = at, rule
		}
	}
	if bestRule == nil {
		return nil, ErrNoUpcomingOccurrence
	}

	return &dto.BookingNextOccurrenceResponse{
		BookingID:       bookingID,
		MonthScheduleID: bestRule.MonthScheduleID,
		OccursAt:        best.Format(timeLayout),
	}, nil
}

// project 规则的下一次日期与规则时刻合成绝对时间
func (s *recurrenceService) project(rule *model.MonthSchedule, now time.Time) (time.Time, bool) {
	date, ok := scheduling.NextOccurrence(rule.WeekOfMonth, rule.DayOfWeek, now)
	if !ok {
		return time.Time{}, false
	}
	clock, err := scheduling.ParseClock(rule.Time)
	if err != nil {
		s.logger.Warn("循环规则时刻格式异常", zap.String("id", rule.MonthScheduleID), zap.String("time", rule.Time))
		return time.Time{}, false
	}
	at := scheduling.AtClock(date, clock, s.opts.Location)
	if !at.Before(now) {
		return at, true
	}

	// 当天规则时刻已过，从次日起重新投影
	date, ok = scheduling.NextOccurrence(rule.WeekOfMonth, rule.DayOfWeek, date.AddDate(0, 0, 1))
	if !ok {
		return time.Time{}, false
	}
	return scheduling.AtClock(date, clock, s.opts.Location), true
}

func (s *recurrenceService) toResponses(rules []model.MonthSchedule) []dto.MonthScheduleResponse {
	now := s.opts.Now().In(s.opts.Location)
	result := make([]dto.MonthScheduleResponse, 0, len(rules))
	for i := range rules {
		result = append(result, s.toResponse(&rules[i], now))
	}
	return result
}

func (s *recurrenceService) toResponse(rule *model.MonthSchedule, now time.Time) dto.MonthScheduleResponse {
	resp := dto.MonthScheduleResponse{
		ID:          rule.MonthScheduleID,
		BookingID:   rule.BookingID,
		WeekOfMonth: rule.WeekOfMonth,
		DayOfWeek:   rule.DayOfWeek,
		Time:        rule.Time,
		IsSkipped:   rule.IsSkipped,
		CreatedAt:   formatTime(rule.CreatedAt),
	}
	if !rule.IsSkipped {
		if at, ok := s.project(rule, now); ok {
			resp.NextOccurrence = strPtr(at.Format(timeLayout))
		}
	}
	return resp
}

func validateOrdinal(weekOfMonth, dayOfWeek int) error {
	if weekOfMonth < 1 || weekOfMonth > 5 {
		return ErrInvalidWeekOfMonth
	}
	if !validDayOfWeek(dayOfWeek) {
		return ErrInvalidDayOfWeek
	}
	return nil
}
