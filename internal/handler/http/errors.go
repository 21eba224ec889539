package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/navigator"
	"yihuitong/internal/service"
)

// StatusClientClosedRequest 表示客户端在模拟耗时期间断开
const StatusClientClosedRequest = 499

// MsgNotFound 是未找到页面或记录时的提示
const MsgNotFound = "页面不存在"

// HandleServiceError 把业务错误映射为 HTTP 响应
func HandleServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var confirmErr *service.ConfirmationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": validationErr.Fields})
	case errors.As(err, &confirmErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":  err.Error(),
			"action": confirmErr.Action,
			"modal":  confirmErr.Modal,
		})
	case errors.Is(err, service.ErrLoginFailed):
		ErrorResponse(c, http.StatusInternalServerError, domain.MsgLoginFailed)
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "请先登录", "redirect": navigator.PathLogin})
	case errors.Is(err, service.ErrNotHost), errors.Is(err, service.ErrInvalidRole):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRoomNotFound):
		ErrorResponse(c, http.StatusNotFound, domain.MsgRoomNotFound)
	case errors.Is(err, service.ErrMeetingNotFound):
		NotFoundResponse(c, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, service.ErrRoomNumberExhausted):
		ErrorResponse(c, http.StatusServiceUnavailable, "暂无可用的房间号码，请稍后重试")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logrus.WithField("path", c.Request.URL.Path).Info("Request cancelled by client")
		c.Status(StatusClientClosedRequest)
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "操作失败，请重试")
	}
}

// handleBindError 处理请求体解析失败
func handleBindError(c *gin.Context, err error, handlerName string) {
	logrus.WithError(err).Warnf("Handler.%s: Invalid input format", handlerName)
	ErrorResponse(c, http.StatusBadRequest, "Invalid input")
}
