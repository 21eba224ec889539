package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/middleware"
	"yihuitong/internal/navigator"
	"yihuitong/internal/service"
)

// AuthHandler 处理登录页与退出登录
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	if authService == nil {
		panic("AuthService cannot be nil for AuthHandler")
	}
	return &AuthHandler{authService: authService}
}

// LoginRequest 定义登录请求的结构体，字段校验由 domain.LoginForm 完成
type LoginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LoginResponse 定义登录成功的响应结构体
type LoginResponse struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
	Redirect string          `json:"redirect"`
}

// LoginPage 返回登录页。已登录时附带跳转到会议选择页的 redirect。
func (h *AuthHandler) LoginPage(c *gin.Context) {
	resp := gin.H{"title": screenTitle(navigator.PathLogin)}
	if session, ok := middleware.SessionFrom(c); ok {
		resp["identity"] = session.Identity
		resp["redirect"] = navigator.PathMeetingSelect
	}
	c.JSON(http.StatusOK, resp)
}

// Login 处理登录表单提交
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err, "Login")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), domain.LoginForm{Email: req.Email, Name: req.Name})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithField("email", result.Session.Identity.Email).Info("Handler.Login: User logged in successfully")
	c.JSON(http.StatusOK, LoginResponse{
		Token:    result.Token,
		Identity: result.Session.Identity,
		Redirect: navigator.PathMeetingSelect,
	})
}

// Logout 删除当前会话。会话已不存在时同样返回登录页跳转。
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := ""
	if session, ok := middleware.SessionFrom(c); ok {
		sessionID = session.ID
	}
	if err := h.authService.Logout(c.Request.Context(), sessionID); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": navigator.PathLogin})
}
