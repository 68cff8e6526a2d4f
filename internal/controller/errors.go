package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 将业务错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrDownloadNotFound),
		errors.Is(err, util.ErrChatNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrPermissionDenied),
		errors.Is(err, util.ErrPracticeRequiresKinesthetic):
		util.ForbiddenWithMessage(ctx, err.Error())
	case errors.Is(err, util.ErrRetryable):
		util.ServiceUnavailable(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidResetToken),
		errors.Is(err, util.ErrLearningStyleNotSet),
		errors.Is(err, util.ErrInvalidLearningStyle),
		errors.Is(err, util.ErrContentTypeNotAllowed),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrAnswerCount),
		errors.Is(err, service.ErrEmptyQuestion),
		errors.Is(err, service.ErrEmptySource),
		errors.Is(err, service.ErrEmptyTaskName),
		errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrEmptyEmail),
		errors.Is(err, service.ErrDeleteSelf):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// currentUserID 未登录时写入 401 并返回 false
func currentUserID(ctx *gin.Context) (uint, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return 0, false
	}
	return claims.UserID, true
}

// pathID 解析路径中的数字 ID，非法时写入 400
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}
