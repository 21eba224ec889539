package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yihuitong/internal/middleware"
	"yihuitong/internal/navigator"
)

// RootRedirect 把根路径重定向到登录页
func RootRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, navigator.PathLogin)
}

// NotFound 返回未匹配路由的页面
func NotFound(c *gin.Context) {
	NotFoundResponse(c, http.StatusNotFound, MsgNotFound)
}

// Ping 健康检查
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// ScreenPage 返回只需要标题与身份的页面
func ScreenPage(path string) gin.HandlerFunc {
	title := screenTitle(path)
	return func(c *gin.Context) {
		resp := gin.H{"title": title}
		if session, ok := middleware.SessionFrom(c); ok {
			resp["identity"] = session.Identity
		}
		c.JSON(http.StatusOK, resp)
	}
}
