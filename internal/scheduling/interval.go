package scheduling

import "time"

// Interval 半开时间区间 [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps 判断两个半开区间是否冲突
//
// 三种情形任一成立即视为冲突：
//  1. B 在 A 内开始：aStart <= bStart < aEnd
//  2. B 在 A 内结束：aStart < bEnd <= aEnd
//  3. A 被 B 完全包含：bStart <= aStart 且 aEnd <= bEnd
//
// 首尾相接（aEnd == bStart）不算冲突。
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	startsWithin := !bStart.Before(aStart) && bStart.Before(aEnd)
	endsWithin := aStart.Before(bEnd) && !bEnd.After(aEnd)
	contained := !aStart.Before(bStart) && !aEnd.After(bEnd)
	return startsWithin || endsWithin || contained
}

// Overlaps 判断与另一区间是否冲突
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// Covers 判断 i 是否完整覆盖 other（端点可重合）
func (i Interval) Covers(other Interval) bool {
	return !i.Start.After(other.Start) && !i.End.Before(other.End)
}

// Valid 结束时间必须晚于开始时间
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Duration 区间时长
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
