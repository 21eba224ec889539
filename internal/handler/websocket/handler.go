package websocket

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/hub"
	"yihuitong/internal/middleware"
	"yihuitong/internal/service"
)

// WebSocketHandler 负责处理会议室 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader       websocket.Upgrader
	hub            *hub.Hub
	meetingService *service.MeetingService
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。allowedOrigin 为空时允许所有来源。
func NewWebSocketHandler(h *hub.Hub, meetingService *service.MeetingService, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if meetingService == nil {
		panic("MeetingService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedOrigin == "" || origin == "" || origin == allowedOrigin
		},
	}

	return &WebSocketHandler{
		upgrader:       upgrader,
		hub:            h,
		meetingService: meetingService,
	}
}

// HandleConnection 处理 WebSocket 连接请求
// URL 预期格式: /meeting-room/ws?roomNumber=NNNN&role=host|participant&token=...
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	roomNumber := c.Query("roomNumber")
	logCtx := logrus.WithField("room_number", roomNumber)

	// 1. 获取会话 (由 Auth 中间件设置)
	session, ok := middleware.SessionFrom(c)
	if !ok {
		logCtx.Warn("WS Handler: Session not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": middleware.MsgLoginRequired})
		return
	}

	// 2. 校验房间号码与角色
	role, err := service.ParseRoomParams(roomNumber, c.Query("role"))
	if err != nil {
		logCtx.WithError(err).Warn("WS Handler: Invalid room parameters")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logCtx = logCtx.WithFields(logrus.Fields{"role": role, "email": session.Identity.Email})

	// 3. 构造快照，会议已结束时拒绝升级
	snapshot, err := h.meetingService.SnapshotMessage(c.Request.Context(), roomNumber, role)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			logCtx.Warn("WS Handler: Room has no live meeting")
			c.JSON(http.StatusNotFound, gin.H{"error": domain.MsgRoomNotFound})
			return
		}
		logCtx.WithError(err).Error("WS Handler: Failed to build snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "操作失败，请重试"})
		return
	}

	// 4. 升级 HTTP 连接到 WebSocket
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了 HTTP 错误
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	client := hub.NewClient(h.hub, conn, roomNumber, hub.ClientInfo{
		SessionID:   session.ID,
		DisplayName: session.Identity.DisplayName,
		Email:       session.Identity.Email,
		Role:        role,
	})

	// 5. 先推送快照，之后的增量消息由 Hub 广播
	client.Send(snapshot)

	if !h.hub.Register(client) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}

	client.Run()
	logCtx.Debug("WS Handler: Client read/write pumps started")
}
