package errors

import "errors"

// ── 错误分类根 ──
// 各业务模块的错误均包装其中之一，调用方通过 errors.Is 判断类别

var (
	// ErrValidation 输入不合法（星期越界、结束时间不晚于开始时间等）
	ErrValidation = errors.New("参数校验失败")
	// ErrConflict 与已有数据时间冲突
	ErrConflict = errors.New("时间冲突")
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("记录不存在")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

