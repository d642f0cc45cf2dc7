package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"cleanbook/backend/internal/dto"
	"cleanbook/backend/internal/model"
	"cleanbook/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSchedules  = errors.New("所选范围内暂无排班")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// 单次导出的排班上限
const maxExportRows = 5000

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入。
// 表格为单个 Sheet，每行一条排班，时间按排班时区显示。
type ExportService interface {
	ExportSchedules(ctx context.Context, req *dto.ScheduleExportRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	opts   Options
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, opts Options, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, opts: opts.withDefaults(), logger: logger}
}

var exportHeaders = []string{"排班ID", "保洁员", "预约ID", "日期", "星期", "开始", "结束", "状态", "实际开始", "实际结束"}

var weekdayNames = [7]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

var statusNames = map[string]string{
	model.ScheduleStatusScheduled:   "待服务",
	model.ScheduleStatusInProgress:  "服务中",
	model.ScheduleStatusCompleted:   "已完成",
	model.ScheduleStatusCanceled:    "已取消",
	model.ScheduleStatusRescheduled: "已改期",
	model.ScheduleStatusSkipped:     "已跳过",
}

// ═══════════════════════════════════════════════════════════
// ExportSchedules — 导出 [From, To) 内的排班为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportSchedules(ctx context.Context, req *dto.ScheduleExportRequest) (*bytes.Buffer, string, error) {
	from, to := req.From.UTC(), req.To.UTC()
	if !to.After(from) {
		return nil, "", ErrInvalidTimeRange
	}

	schedules, _, err := s.repo.Schedule.List(ctx, repository.ScheduleFilter{
		StaffID: req.StaffID,
		From:    &from,
		To:      &to,
		Limit:   maxExportRows,
	})
	if err != nil {
		s.logger.Error("查询导出排班失败", zap.Error(err))
		return nil, "", err
	}
	if len(schedules) == 0 {
		return nil, "", ErrExportNoSchedules
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "排班"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "C", 38)
	f.SetColWidth(sheetName, "D", "J", 14)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range exportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle)
	f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	loc := s.opts.Location
	for i := range schedules {
		sc := &schedules[i]
		row := i + 2
		start, end := sc.StartTime.In(loc), sc.EndTime.In(loc)

		staffName := sc.StaffID
		if sc.Staff != nil {
			staffName = sc.Staff.Name
		}
		bookingID := "-"
		if sc.BookingID != nil {
			bookingID = *sc.BookingID
		}
		status, ok := statusNames[sc.Status]
		if !ok {
			status = sc.Status
		}

		values := []interface{}{
			sc.ScheduleID,
			staffName,
			bookingID,
			start.Format(dateLayout),
			weekdayNames[start.Weekday()],
			start.Format("15:04"),
			end.Format("15:04"),
			status,
			clockOrDash(sc.ActualStartTime, loc),
			clockOrDash(sc.ActualEndTime, loc),
		}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排班_%s_%s.xlsx", from.In(loc).Format(dateLayout), to.In(loc).Format(dateLayout))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func clockOrDash(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04")
}
