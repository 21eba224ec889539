package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/middleware"
	"yihuitong/internal/navigator"
	"yihuitong/internal/service"
)

// SelectHandler 处理会议选择页
type SelectHandler struct {
	authService *service.AuthService
}

// NewSelectHandler 创建 SelectHandler 实例
func NewSelectHandler(authService *service.AuthService) *SelectHandler {
	if authService == nil {
		panic("AuthService cannot be nil for SelectHandler")
	}
	return &SelectHandler{authService: authService}
}

// SelectResponse 是会议选择页的内容
type SelectResponse struct {
	Title       string          `json:"title"`
	Identity    domain.Identity `json:"identity"`
	Token       string          `json:"token,omitempty"`
	Navigations []Navigation    `json:"navigations"`
}

// MeetingSelect 返回会议选择页。
// 查询参数 email 与 name 同时存在时优先使用，并写入会话；否则使用会话中的身份。
func (h *SelectHandler) MeetingSelect(c *gin.Context) {
	resp := SelectResponse{
		Title: screenTitle(navigator.PathMeetingSelect),
		Navigations: []Navigation{
			{Path: navigator.PathCreateMeeting, Title: "创建会议"},
			{Path: navigator.PathJoinMeeting, Title: "加入会议"},
			{Path: navigator.PathMeetingRecord, Title: "会议记录"},
		},
	}

	session, hasSession := middleware.SessionFrom(c)
	email := strings.TrimSpace(c.Query("email"))
	name := strings.TrimSpace(c.Query("name"))

	switch {
	case email != "" && name != "":
		sessionID := ""
		if hasSession {
			sessionID = session.ID
		}
		result, err := h.authService.Adopt(c.Request.Context(), sessionID, domain.Identity{DisplayName: name, Email: email})
		if err != nil {
			HandleServiceError(c, err)
			return
		}
		logrus.WithField("email", email).Debug("Handler.MeetingSelect: Identity taken from query")
		resp.Identity = result.Session.Identity
		resp.Token = result.Token
	case hasSession:
		resp.Identity = session.Identity
	default:
		HandleServiceError(c, service.ErrUnauthenticated)
		return
	}

	c.JSON(http.StatusOK, resp)
}
