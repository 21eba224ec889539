package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/navigator"
	"yihuitong/internal/service"
)

// Gin 上下文中保存会话信息的键
const (
	ContextSessionKey = "session"
	ContextTokenKey   = "token"
)

// MsgLoginRequired 是未登录时返回的提示
const MsgLoginRequired = "请先登录"

// SessionIdentifier 根据 token 读取会话，由 service.AuthService 实现。
type SessionIdentifier interface {
	Identify(ctx context.Context, token string) (*domain.Session, error)
}

// Auth 返回一个 Gin 中间件，要求请求携带有效的会话 token。
// 未登录的请求得到 401 以及跳转到登录页的 redirect。
func Auth(identifier SessionIdentifier) gin.HandlerFunc {
	if identifier == nil {
		panic("SessionIdentifier cannot be nil for Auth middleware")
	}

	return func(c *gin.Context) {
		tokenStr := ExtractToken(c)
		if tokenStr == "" {
			logrus.WithField("path", c.Request.URL.Path).Debug("Auth middleware: Missing session token")
			abortUnauthenticated(c)
			return
		}

		session, err := identifier.Identify(c.Request.Context(), tokenStr)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				logrus.WithError(err).Warn("Auth middleware: Invalid or expired session")
				abortUnauthenticated(c)
				return
			}
			logrus.WithError(err).Error("Auth middleware: Failed to identify session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "会话读取失败，请重试"})
			return
		}

		setSession(c, session, tokenStr)
		c.Next()
	}
}

// OptionalAuth 在 token 有效时把会话放入上下文，否则直接放行。
func OptionalAuth(identifier SessionIdentifier) gin.HandlerFunc {
	if identifier == nil {
		panic("SessionIdentifier cannot be nil for OptionalAuth middleware")
	}

	return func(c *gin.Context) {
		if tokenStr := ExtractToken(c); tokenStr != "" {
			if session, err := identifier.Identify(c.Request.Context(), tokenStr); err == nil {
				setSession(c, session, tokenStr)
			} else {
				logrus.WithError(err).Debug("OptionalAuth middleware: Ignoring invalid session token")
			}
		}
		c.Next()
	}
}

// ExtractToken 从 Authorization: Bearer 头或 token 查询参数中读取 token。
// 浏览器的 websocket 连接无法设置请求头，只能使用查询参数。
func ExtractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

// SessionFrom 返回中间件放入上下文的会话
func SessionFrom(c *gin.Context) (*domain.Session, bool) {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*domain.Session)
	return session, ok && session != nil
}

func setSession(c *gin.Context, session *domain.Session, token string) {
	c.Set(ContextSessionKey, session)
	c.Set(ContextTokenKey, token)
	logrus.WithFields(logrus.Fields{
		"session_id": session.ID,
		"email":      session.Identity.Email,
	}).Debug("Auth middleware: Session authenticated")
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    MsgLoginRequired,
		"redirect": navigator.PathLogin,
	})
}
