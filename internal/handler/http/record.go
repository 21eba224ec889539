package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yihuitong/internal/navigator"
	"yihuitong/internal/service"
)

// RecordHandler 处理会议记录页
type RecordHandler struct {
	recordService *service.RecordService
}

// NewRecordHandler 创建 RecordHandler 实例
func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	if recordService == nil {
		panic("RecordService cannot be nil for RecordHandler")
	}
	return &RecordHandler{recordService: recordService}
}

// List 返回全部历史会议
func (h *RecordHandler) List(c *gin.Context) {
	records, err := h.recordService.List(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title":   screenTitle(navigator.PathMeetingRecord),
		"records": records,
		"total":   len(records),
	})
}

// Detail 返回一场会议的详情与字幕
func (h *RecordHandler) Detail(c *gin.Context) {
	detail, err := h.recordService.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
