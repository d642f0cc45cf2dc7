package scheduling

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidClock 时刻格式无效
var ErrInvalidClock = errors.New("时刻格式无效，应为 HH:MM")

// 所有时刻统一投影到该参考日（UTC），只比较时分秒
var referenceDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var clockLayouts = []string{"15:04", "15:04:05"}

// ParseClock 解析 "HH:MM" 或 "HH:MM:SS"（PostgreSQL time 列回读格式）
func ParseClock(s string) (time.Time, error) {
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return onReferenceDate(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// ParseMinuteClock 与 ParseClock 相同，但拒绝非零秒；可用时段只精确到分钟
func ParseMinuteClock(s string) (time.Time, error) {
	t, err := ParseClock(s)
	if err != nil {
		return time.Time{}, err
	}
	if t.Second() != 0 {
		return time.Time{}, fmt.Errorf("%w: %q 不能包含秒", ErrInvalidClock, s)
	}
	return t, nil
}

// ClockOf 取绝对时间在 loc 时区下的时刻部分
func ClockOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return onReferenceDate(t.Hour(), t.Minute(), t.Second())
}

// FormatClock 输出 "HH:MM"
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// NormalizeClock 将 "9:00:00" 等格式统一为 "09:00"
func NormalizeClock(s string) (string, error) {
	t, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return FormatClock(t), nil
}

// ClockRange 解析一对时刻并构造区间
func ClockRange(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

// MinuteClockRange 同 ClockRange，两端均须精确到分钟
func MinuteClockRange(start, end string) (Interval, error) {
	s, err := ParseMinuteClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseMinuteClock(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

// AtClock 把日期 day（取其在 loc 下的年月日）与时刻 clock 合成绝对时间
func AtClock(day time.Time, clock time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	day = day.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
}

func onReferenceDate(hour, min, sec int) time.Time {
	return time.Date(referenceDate.Year(), referenceDate.Month(), referenceDate.Day(), hour, min, sec, 0, time.UTC)
}
