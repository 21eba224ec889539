package http

import (
	"github.com/gin-gonic/gin"

	"yihuitong/internal/navigator"
)

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// NotFoundResponse 返回未找到页面的视图
func NotFoundResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"error":    message,
		"pageId":   navigator.NotFoundPageID,
		"pathname": c.Request.URL.Path,
	})
}

// Navigation 是页面上的一个跳转入口
type Navigation struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

func screenTitle(path string) string {
	if s, ok := navigator.Lookup(path); ok {
		return s.Title
	}
	return ""
}
