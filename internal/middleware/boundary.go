package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/navigator"
)

// MsgPageError 是页面渲染出错时的提示
const MsgPageError = "页面出错了"

// ErrorBoundary 返回某个页面路由组的错误边界。组内 handler panic 时
// 返回 500 与该页面的 pageId，其他路由不受影响。
func ErrorBoundary(screenPath string) gin.HandlerFunc {
	pageID := navigator.PageID(screenPath)

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithFields(logrus.Fields{
					"page_id": pageID,
					"path":    c.Request.URL.Path,
					"panic":   r,
				}).Error("Recovered from panic in route group")
				logrus.Debugf("Stack trace:\n%s", debug.Stack())

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":    MsgPageError,
					"pageId":   pageID,
					"pathname": c.Request.URL.Path,
				})
			}
		}()
		c.Next()
	}
}
