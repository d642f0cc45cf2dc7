package scheduling

import "time"

// DateInMonth 计算某月第 weekOfMonth 个星期 dayOfWeek（0=周日）的日期
//
// 当月不存在该序数（如 2024 年 2 月的第 5 个周二）时返回 false。
func DateInMonth(year int, month time.Month, weekOfMonth, dayOfWeek int, loc *time.Location) (time.Time, bool) {
	if weekOfMonth < 1 || weekOfMonth > 5 || dayOfWeek < 0 || dayOfWeek > 6 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (dayOfWeek - int(first.Weekday()) + 7) % 7
	day := 1 + offset + (weekOfMonth-1)*7

	candidate := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if candidate.Month() != month {
		return time.Time{}, false
	}
	return candidate, true
}

// NextOccurrence 计算不早于 reference 当天的下一次出现日期
//
// 先取 reference 所在月份；若该月不存在或已早于 reference 当天，则取下一个月。
// 下个月同样不存在时返回 false，由调用方处理。
func NextOccurrence(weekOfMonth, dayOfWeek int, reference time.Time) (time.Time, bool) {
	loc := reference.Location()
	today := time.Date(reference.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, loc)

	candidate, ok := DateInMonth(reference.Year(), reference.Month(), weekOfMonth, dayOfWeek, loc)
	if ok && !candidate.Before(today) {
		return candidate, true
	}

	next := today.AddDate(0, 0, 1-today.Day()).AddDate(0, 1, 0)
	return DateInMonth(next.Year(), next.Month(), weekOfMonth, dayOfWeek, loc)
}
