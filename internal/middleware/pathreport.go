package middleware

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/metrics"
	"yihuitong/internal/navigator"
)

const reportTimeout = 2 * time.Second

// ReportPath 在页面请求处理完成后上报路径变更，上报失败只记录日志。
// 处理过程中发生 panic 时同样上报，随后由外层的错误边界恢复。
func ReportPath(reporter navigator.Reporter, m *metrics.Metrics) gin.HandlerFunc {
	if reporter == nil {
		panic("Reporter cannot be nil for ReportPath middleware")
	}

	return func(c *gin.Context) {
		if c.IsWebsocket() {
			c.Next()
			return
		}
		defer reportPath(c, reporter, m)
		c.Next()
	}
}

func reportPath(c *gin.Context, reporter navigator.Reporter, m *metrics.Metrics) {
	change := navigator.NewPathChange(c.Request.URL.Path, reportedQuery(c.Request.URL))

	// 请求可能已经结束，使用独立的 context
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if err := reporter.Report(ctx, change); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"page_id":  change.PageID,
			"pathname": change.Pathname,
		}).Warn("Failed to report path change")
		m.RecordPathChange("error")
		return
	}
	m.RecordPathChange("success")
}

// reportedQuery 去掉查询串中的 token，其余参数保持原有顺序
func reportedQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	pairs := strings.Split(u.RawQuery, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		key := pair
		if i := strings.IndexByte(key, '='); i >= 0 {
			key = key[:i]
		}
		if name, err := url.QueryUnescape(key); err == nil && name == "token" {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}
