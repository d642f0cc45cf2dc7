package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"cleanbook/backend/config"
	"cleanbook/backend/internal/model"
	"cleanbook/backend/internal/repository"
	"cleanbook/backend/internal/scheduling"
	pkgerrors "cleanbook/backend/pkg/errors"
)

// ── 跨模块共用的业务错误 ──

var (
	ErrStaffNotFound      = fmt.Errorf("%w: 保洁员不存在或未在职", pkgerrors.ErrNotFound)
	ErrBookingNotFound    = fmt.Errorf("%w: 预约不存在", pkgerrors.ErrNotFound)
	ErrServiceNotFound    = fmt.Errorf("%w: 服务项目不存在", pkgerrors.ErrNotFound)
	ErrInvalidTimeRange   = fmt.Errorf("%w: 结束时间必须晚于开始时间", pkgerrors.ErrValidation)
	ErrInvalidDayOfWeek   = fmt.Errorf("%w: day_of_week 必须在 0-6 之间", pkgerrors.ErrValidation)
	ErrInvalidClockFormat = fmt.Errorf("%w: 时刻格式应为 HH:MM", pkgerrors.ErrValidation)
)

// Recorder 排班指标上报（由 pkg/metrics 实现）
type Recorder interface {
	RecordConflict(kind string)
	RecordMutation(kind, op string)
}

type nopRecorder struct{}

func (nopRecorder) RecordConflict(string)         {}
func (nopRecorder) RecordMutation(string, string) {}

// Options 排班规则选项
type Options struct {
	// Location 判定星期几与时刻的时区
	Location *time.Location
	// IgnoreInactiveInConflicts 已取消/已改期的排班是否跳过冲突检测
	IgnoreInactiveInConflicts bool
	// Now 当前时间（测试注入）
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// OptionsFromConfig 由配置生成排班选项
func OptionsFromConfig(cfg *config.SchedulingConfig) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, fmt.Errorf("加载排班时区失败: %w", err)
	}
	return Options{
		Location:                  loc,
		IgnoreInactiveInConflicts: cfg.IgnoreInactiveInConflicts,
	}.withDefaults(), nil
}

// conflictsWith 判断 [start, end) 是否与 existing 中任一排班冲突
func (o Options) conflictsWith(existing []model.Schedule, start, end time.Time) *model.Schedule {
	for i := range existing {
		s := &existing[i]
		if o.IgnoreInactiveInConflicts && s.IsInactive() {
			continue
		}
		if scheduling.Overlaps(start, end, s.StartTime, s.EndTime) {
			return s
		}
	}
	return nil
}

// Service 所有 Service 的聚合入口
type Service struct {
	Availability AvailabilityService
	Schedule     ScheduleService
	Recurrence   RecurrenceService
	StaffQuery   StaffQueryService
	Export       ExportService
	Calendar     CalendarService
}

// NewService 创建 Service 聚合，rec 为 nil 时不上报指标
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rec Recorder,
	logger *zap.Logger,
) (*Service, error) {
	opts, err := OptionsFromConfig(&cfg.Scheduling)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = nopRecorder{}
	}

	return &Service{
		Availability: NewAvailabilityService(repo, rec, logger),
		Schedule:     NewScheduleService(repo, opts, rec, logger),
		Recurrence:   NewRecurrenceService(repo, opts, logger),
		StaffQuery:   NewStaffQueryService(repo, opts, logger),
		Export:       NewExportService(repo, opts, logger),
		Calendar:     NewCalendarService(repo, opts, logger),
	}, nil
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func strPtr(s string) *string { return &s }
