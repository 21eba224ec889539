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

// RoomHandler 处理创建会议与加入会议页
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService}
}

// CreateRoomResponse 定义创建房间成功的响应结构体
type CreateRoomResponse struct {
	Title      string `json:"title"`
	RoomNumber string `json:"roomNumber"`
	CopyText   string `json:"copyText"`
	EnterURL   string `json:"enterUrl"`
}

// CreateRoom 为当前用户生成房间号码
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		HandleServiceError(c, service.ErrUnauthenticated)
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), session.Identity)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateRoomResponse{
		Title:      screenTitle(navigator.PathCreateMeeting),
		RoomNumber: room.Number,
		CopyText:   room.Number,
		EnterURL:   navigator.MeetingRoomURL(room.Number, domain.RoleHost),
	})
}

// RoomStatus 刷新房间存活时间，创建页每 5 秒调用一次
func (h *RoomHandler) RoomStatus(c *gin.Context) {
	roomNumber := c.Param("roomNumber")
	if err := h.roomService.RefreshStatus(c.Request.Context(), roomNumber); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomNumber": roomNumber, "live": true})
}

// JoinRoomRequest 定义加入房间请求的结构体
type JoinRoomRequest struct {
	RoomNumber string `json:"roomNumber"`
}

// JoinRoom 校验房间号码并跳转到参会者视图
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err, "JoinRoom")
		return
	}

	roomNumber, err := h.roomService.JoinRoom(c.Request.Context(), req.RoomNumber)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithField("room_number", roomNumber).Info("Handler.JoinRoom: Redirecting to meeting room")
	c.JSON(http.StatusOK, gin.H{
		"roomNumber": roomNumber,
		"redirect":   navigator.MeetingRoomURL(roomNumber, domain.RoleParticipant),
	})
}
