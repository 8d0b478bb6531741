package http

import (
	"errors"
	"net/http"

	"time-capsule/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HandleServiceError 把 Service 层的业务错误映射为 HTTP 状态码。
// 认证失败 401；所有权或时机违规 403；未知资源 404；输入非法 400；
// 过期的解锁码访问 410；其余视为内部错误，细节只进日志不出响应。
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed),
		errors.Is(err, service.ErrUnlockTimeInPast):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCapsuleNotFound),
		errors.Is(err, service.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrCapsuleLocked),
		errors.Is(err, service.ErrCapsuleImmutable):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrCapsuleExpired):
		ErrorResponse(c, http.StatusGone, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
