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

// ErrCrossMidnight 服务时段跨越午夜或超过一天
var ErrCrossMidnight = fmt.Errorf("%w: 服务时段不能跨越午夜", pkgerrors.ErrValidation)

// StaffQueryService 空闲保洁员查询接口
type StaffQueryService interface {
	// GetAvailableStaff 查询在 date 开始、持续服务时长的时段内可接单的保洁员
	GetAvailableStaff(ctx context.Context, req *dto.AvailableStaffRequest) ([]dto.StaffSummary, error)
}

type staffQueryService struct {
	repo   *repository.Repository
	opts   Options
	logger *zap.Logger
}

// NewStaffQueryService 创建 StaffQueryService 实例
func NewStaffQueryService(repo *repository.Repository, opts Options, logger *zap.Logger) StaffQueryService {
	return &staffQueryService{repo: repo, opts: opts.withDefaults(), logger: logger}
}

// ════════════════════════════════════════════════════════════
// GetAvailableStaff
//   1. 服务时长 → 结束时间
//   2. 当天启用、且完整覆盖请求时刻的可用时段 → 候选人
//   3. 剔除与 [date, end) 有排班冲突的候选人
// ════════════════════════════════════════════════════════════

func (s *staffQueryService) GetAvailableStaff(ctx context.Context, req *dto.AvailableStaffRequest) ([]dto.StaffSummary, error) {
	svc, err := s.repo.Service.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		s.logger.Error("查询服务项目失败", zap.String("service_id", req.ServiceID), zap.Error(err))
		return nil, err
	}
	if svc.DurationMinutes <= 0 {
		return nil, ErrInvalidTimeRange
	}

	start := req.Date.UTC()
	end := start.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	// 星期几与时刻按排班时区判定
	local := start.In(s.opts.Location)
	dayOfWeek := int(local.Weekday())
	window := scheduling.Interval{
		Start: scheduling.ClockOf(start, s.opts.Location),
		End:   scheduling.ClockOf(end, s.opts.Location),
	}
	if end.Sub(start) >= 24*time.Hour || !window.Valid() {
		return nil, ErrCrossMidnight
	}

	var result []dto.StaffSummary
	err = s.repo.Tx.ReadSnapshot(ctx, func(ctx context.Context, tx *repository.Repository) error {
		slots, err := tx.Availability.ListAvailableByDay(ctx, dayOfWeek)
		if err != nil {
			return err
		}
		candidateIDs := s.coveringStaff(slots, window)
		if len(candidateIDs) == 0 {
			result = []dto.StaffSummary{}
			return nil
		}

		staff, err := tx.User.ListActiveStaff(ctx, candidateIDs)
		if err != nil {
			return err
		}

		busy, err := tx.Schedule.ListWindow(ctx, start, end)
		if err != nil {
			return err
		}
		byStaff := make(map[string][]model.Schedule)
		for _, sc := range busy {
			byStaff[sc.StaffID] = append(byStaff[sc.StaffID], sc)
		}

		result = make([]dto.StaffSummary, 0, len(staff))
		for i := range staff {
			u := &staff[i]
			if s.opts.conflictsWith(byStaff[u.UserID], start, end) != nil {
				continue
			}
			result = append(result, dto.StaffSummary{
				ID:    u.UserID,
				Name:  u.Name,
				Email: u.Email,
				Phone: u.Phone,
			})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("查询空闲保洁员失败",
			zap.String("service_id", req.ServiceID),
			zap.Time("date", start),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// coveringStaff 至少有一个时段满足 slot.start <= window.start 且 slot.end >= window.end 的保洁员
func (s *staffQueryService) coveringStaff(slots []model.StaffAvailability, window scheduling.Interval) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for i := range slots {
		slot := &slots[i]
		if seen[slot.StaffID] {
			continue
		}
		slotWindow, err := scheduling.ClockRange(slot.StartTime, slot.EndTime)
		if err != nil {
			s.logger.Warn("可用时段时刻格式异常", zap.String("id", slot.AvailabilityID), zap.Error(err))
			continue
		}
		if slotWindow.Covers(window) {
			seen[slot.StaffID] = true
			ids = append(ids, slot.StaffID)
		}
	}
	return ids
}
