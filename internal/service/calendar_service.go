package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cleanbook/backend/internal/model"
	"cleanbook/backend/internal/repository"
)

// 日历订阅默认窗口：过去 7 天到未来 60 天
const (
	calendarLookBack  = 7 * 24 * time.Hour
	calendarLookAhead = 60 * 24 * time.Hour
)

// CalendarService 保洁员排班日历（iCalendar）接口
type CalendarService interface {
	// StaffCalendar 生成 [from, to) 内的排班日历；from/to 为空时使用默认窗口
	StaffCalendar(ctx context.Context, staffID string, from, to *time.Time) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	opts   Options
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, opts Options, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, opts: opts.withDefaults(), logger: logger}
}

func (s *calendarService) StaffCalendar(ctx context.Context, staffID string, from, to *time.Time) (string, error) {
	staff, err := s.repo.User.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStaffNotFound
		}
		s.logger.Error("查询保洁员失败", zap.String("staff_id", staffID), zap.Error(err))
		return "", err
	}
	if staff.Role != model.RoleStaff {
		return "", ErrStaffNotFound
	}

	now := s.opts.Now().UTC()
	start, end := now.Add(-calendarLookBack), now.Add(calendarLookAhead)
	if from != nil {
		start = from.UTC()
	}
	if to != nil {
		end = to.UTC()
	}
	if !end.After(start) {
		return "", ErrInvalidTimeRange
	}

	schedules, _, err := s.repo.Schedule.List(ctx, repository.ScheduleFilter{
		StaffID: staffID,
		From:    &start,
		To:      &end,
	})
	if err != nil {
		s.logger.Error("查询日历排班失败", zap.String("staff_id", staffID), zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//cleanbook//scheduling//ZH")
	cal.SetXWRCalName(fmt.Sprintf("%s 的排班", staff.Name))

	for i := range schedules {
		sc := &schedules[i]
		event := cal.AddEvent(sc.ScheduleID + "@cleanbook")
		event.SetDtStampTime(sc.UpdatedAt.UTC())
		event.SetCreatedTime(sc.CreatedAt.UTC())
		event.SetStartAt(sc.StartTime.UTC())
		event.SetEndAt(sc.EndTime.UTC())
		event.SetSummary(calendarSummary(sc))
		if sc.BookingID != nil {
			event.SetDescription("预约 " + *sc.BookingID)
		}
		switch {
		case sc.IsInactive() || sc.Status == model.ScheduleStatusSkipped:
			event.SetStatus(ics.ObjectStatusCancelled)
		default:
			event.SetStatus(ics.ObjectStatusConfirmed)
		}
	}

	return cal.Serialize(), nil
}

func calendarSummary(sc *model.Schedule) string {
	if name, ok := statusNames[sc.Status]; ok && sc.Status != model.ScheduleStatusScheduled {
		return "保洁服务（" + name + "）"
	}
	return "保洁服务"
}
