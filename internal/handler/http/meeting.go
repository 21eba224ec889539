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

// MeetingHandler 处理会议室页的请求
type MeetingHandler struct {
	meetingService *service.MeetingService
	authService    *service.AuthService
}

// NewMeetingHandler 创建 MeetingHandler 实例
func NewMeetingHandler(meetingService *service.MeetingService, authService *service.AuthService) *MeetingHandler {
	if meetingService == nil {
		panic("MeetingService cannot be nil for MeetingHandler")
	}
	if authService == nil {
		panic("AuthService cannot be nil for MeetingHandler")
	}
	return &MeetingHandler{meetingService: meetingService, authService: authService}
}

// MeetingActionRequest 是会议室内操作的请求体。
// role 缺省时取自查询参数，与会议室页面地址一致。
type MeetingActionRequest struct {
	RoomNumber string `json:"roomNumber"`
	Role       string `json:"role"`
	Muted      *bool  `json:"muted"`
	Confirm    bool   `json:"confirm"`
}

// RoomPageResponse 是会议室页的快照
type RoomPageResponse struct {
	Title string `json:"title"`
	*service.RoomView
}

// Room 返回会议室页快照，房间没有实时会话时创建一个
func (h *MeetingHandler) Room(c *gin.Context) {
	view, err := h.meetingService.Open(c.Request.Context(), c.Query("roomNumber"), c.Query("role"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, RoomPageResponse{Title: screenTitle(navigator.PathMeetingRoom), RoomView: view})
}

// Mute 切换静音，仅房主可用
func (h *MeetingHandler) Mute(c *gin.Context) {
	req, role, ok := h.bindAction(c, "Mute")
	if !ok {
		return
	}
	if req.Muted == nil {
		HandleServiceError(c, &service.ValidationError{Fields: domain.FieldErrors{"muted": "muted is required"}})
		return
	}

	muted, err := h.meetingService.SetMuted(c.Request.Context(), req.RoomNumber, actorFrom(c, role), *req.Muted)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomNumber": req.RoomNumber, "muted": muted})
}

// End 结束会议，仅房主可用，需要确认
func (h *MeetingHandler) End(c *gin.Context) {
	req, role, ok := h.bindAction(c, "End")
	if !ok {
		return
	}
	if err := h.meetingService.End(c.Request.Context(), req.RoomNumber, actorFrom(c, role), req.Confirm); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": navigator.PathMeetingSelect})
}

// Leave 退出会议，需要确认
func (h *MeetingHandler) Leave(c *gin.Context) {
	req, _, ok := h.bindAction(c, "Leave")
	if !ok {
		return
	}
	if err := h.meetingService.Leave(c.Request.Context(), req.RoomNumber, req.Confirm); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": navigator.PathMeetingSelect})
}

// Logout 在会议室内退出登录，需要确认
func (h *MeetingHandler) Logout(c *gin.Context) {
	var req MeetingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err, "Logout")
		return
	}
	if err := service.RequireConfirmation(service.ConfirmLogout, req.Confirm); err != nil {
		HandleServiceError(c, err)
		return
	}

	sessionID := ""
	if session, ok := middleware.SessionFrom(c); ok {
		sessionID = session.ID
	}
	if err := h.authService.Logout(c.Request.Context(), sessionID); err != nil {
		HandleServiceError(c, err)
		return
	}
	logrus.WithField("room_number", req.RoomNumber).Info("Handler.Logout: User logged out from meeting room")
	c.JSON(http.StatusOK, gin.H{"redirect": navigator.PathLogin})
}

// bindAction 解析请求体并校验房间号码与角色
func (h *MeetingHandler) bindAction(c *gin.Context, handlerName string) (MeetingActionRequest, domain.Role, bool) {
	var req MeetingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err, handlerName)
		return req, "", false
	}
	if req.Role == "" {
		req.Role = c.Query("role")
	}
	if req.Role == "" {
		req.Role = string(domain.RoleParticipant)
	}
	role, err := service.ParseRoomParams(req.RoomNumber, req.Role)
	if err != nil {
		HandleServiceError(c, err)
		return req, "", false
	}
	return req, role, true
}

// actorFrom 由页面角色与当前会话身份组成操作者
func actorFrom(c *gin.Context, role domain.Role) service.Actor {
	actor := service.Actor{Role: role}
	if session, ok := middleware.SessionFrom(c); ok {
		actor.Email = session.Identity.Email
	}
	return actor
}
