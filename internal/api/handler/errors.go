package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	pkgerrors "cleanbook/backend/pkg/errors"
	"cleanbook/backend/pkg/response"
)

// respondBusinessError 按错误分类写入响应；base 为模块错误码前缀（如 21000）
// 返回 false 表示不是已知业务错误，调用方需自行处理
func respondBusinessError(c *gin.Context, err error, base int) bool {
	switch {
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, base+1, err.Error())
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, base+4, err.Error())
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, base+9, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, base+10, "数据已被他人修改，请刷新后重试")
	default:
		return false
	}
	return true
}
