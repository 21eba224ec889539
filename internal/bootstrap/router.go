package bootstrap

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	httpHandler "yihuitong/internal/handler/http"
	wsHandler "yihuitong/internal/handler/websocket"
	"yihuitong/internal/metrics"
	"yihuitong/internal/middleware"
	"yihuitong/internal/navigator"
)

// RouterDeps 汇总构建路由所需的组件
type RouterDeps struct {
	Log               *logrus.Logger
	AuthHandler       *httpHandler.AuthHandler
	SelectHandler     *httpHandler.SelectHandler
	RoomHandler       *httpHandler.RoomHandler
	MeetingHandler    *httpHandler.MeetingHandler
	RecordHandler     *httpHandler.RecordHandler
	WSHandler         *wsHandler.WebSocketHandler
	Identifier        middleware.SessionIdentifier
	Reporter          navigator.Reporter
	Limiter           middleware.RateLimiter
	Metrics           *metrics.Metrics
	RateLimitMax      int
	RateLimitWindow   time.Duration
	CORSAllowedOrigin string
}

// NewRouter 注册全部页面路由。每个页面的路由组有独立的错误边界与路径上报。
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.CORS(d.CORSAllowedOrigin))
	if d.Limiter != nil {
		router.Use(middleware.RateLimit(d.Limiter, d.RateLimitMax, d.RateLimitWindow))
	}

	auth := middleware.Auth(d.Identifier)
	optionalAuth := middleware.OptionalAuth(d.Identifier)
	reportPath := middleware.ReportPath(d.Reporter, d.Metrics)
	screen := func(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
		chain := append([]gin.HandlerFunc{middleware.ErrorBoundary(path), reportPath}, handlers...)
		return router.Group(path, chain...)
	}

	router.GET(navigator.PathRoot, reportPath, httpHandler.RootRedirect)

	loginRoutes := screen(navigator.PathLogin, optionalAuth)
	{
		loginRoutes.GET("", d.AuthHandler.LoginPage)
		loginRoutes.POST("", d.AuthHandler.Login)
	}
	router.POST("/logout", optionalAuth, d.AuthHandler.Logout)

	selectRoutes := screen(navigator.PathMeetingSelect, optionalAuth)
	{
		selectRoutes.GET("", d.SelectHandler.MeetingSelect)
	}

	createRoutes := screen(navigator.PathCreateMeeting, auth)
	{
		createRoutes.GET("", httpHandler.ScreenPage(navigator.PathCreateMeeting))
		createRoutes.POST("", d.RoomHandler.CreateRoom)
		createRoutes.POST("/:roomNumber/status", d.RoomHandler.RoomStatus)
	}

	joinRoutes := screen(navigator.PathJoinMeeting, auth)
	{
		joinRoutes.GET("", httpHandler.ScreenPage(navigator.PathJoinMeeting))
		joinRoutes.POST("", d.RoomHandler.JoinRoom)
	}

	roomRoutes := screen(navigator.PathMeetingRoom, auth)
	{
		roomRoutes.GET("", d.MeetingHandler.Room)
		roomRoutes.POST("/mute", d.MeetingHandler.Mute)
		roomRoutes.POST("/end", d.MeetingHandler.End)
		roomRoutes.POST("/leave", d.MeetingHandler.Leave)
		roomRoutes.POST("/logout", d.MeetingHandler.Logout)
	}
	if d.WSHandler != nil {
		router.GET(navigator.PathMeetingRoom+"/ws", middleware.ErrorBoundary(navigator.PathMeetingRoom), auth, d.WSHandler.HandleConnection)
	}

	recordRoutes := screen(navigator.PathMeetingRecord, auth)
	{
		recordRoutes.GET("", d.RecordHandler.List)
		recordRoutes.GET("/:id", d.RecordHandler.Detail)
	}

	router.GET("/ping", httpHandler.Ping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.NoRoute(reportPath, httpHandler.NotFound)

	return router
}
