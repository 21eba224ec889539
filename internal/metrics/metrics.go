// Package metrics 定义服务导出的 Prometheus 指标。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics 汇总所有业务指标，全部以 "yihuitong_" 为前缀。
type Metrics struct {
	LoginsTotal        *prometheus.CounterVec
	RoomsCreatedTotal  prometheus.Counter
	RoomJoinsTotal     *prometheus.CounterVec
	LiveSessions       prometheus.Gauge
	SubtitlesGenerated prometheus.Counter
	WebsocketClients   prometheus.Gauge
	PathChangesTotal   *prometheus.CounterVec
	ArchivedMeetings   *prometheus.CounterVec
}

// NewMetrics 创建并注册指标，多次调用返回同一实例。
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			LoginsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "yihuitong_logins_total",
					Help: "Total number of login attempts",
				},
				[]string{"result"}, // "success", "invalid", "failed"
			),
			RoomsCreatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "yihuitong_rooms_created_total",
					Help: "Total number of meeting rooms created",
				},
			),
			RoomJoinsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "yihuitong_room_joins_total",
					Help: "Total number of join-meeting attempts",
				},
				[]string{"result"},
			),
			LiveSessions: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "yihuitong_live_sessions",
					Help: "Current number of live meeting sessions",
				},
			),
			SubtitlesGenerated: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "yihuitong_subtitles_generated_total",
					Help: "Total number of subtitle lines generated by live sessions",
				},
			),
			WebsocketClients: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "yihuitong_websocket_clients",
					Help: "Current number of connected meeting-room websocket clients",
				},
			),
			PathChangesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "yihuitong_path_changes_total",
					Help: "Total number of reported path changes",
				},
				[]string{"result"}, // "published", "failed"
			),
			ArchivedMeetings: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "yihuitong_archived_meetings_total",
					Help: "Total number of archive tasks processed",
				},
				[]string{"result"}, // "saved", "duplicate", "failed"
			),
		}
	})
	return globalMetrics
}

// RecordLogin 记录一次登录结果。
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// RecordRoomCreated 记录一次房间创建。
func (m *Metrics) RecordRoomCreated() {
	if m == nil {
		return
	}
	m.RoomsCreatedTotal.Inc()
}

// RecordJoin 记录一次加入会议结果。
func (m *Metrics) RecordJoin(result string) {
	if m == nil {
		return
	}
	m.RoomJoinsTotal.WithLabelValues(result).Inc()
}

// SessionStarted 在实时会话启动时调用。
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.LiveSessions.Inc()
}

// SessionStopped 在实时会话停止时调用。
func (m *Metrics) SessionStopped() {
	if m == nil {
		return
	}
	m.LiveSessions.Dec()
}

// RecordSubtitle 记录一条自动生成的字幕。
func (m *Metrics) RecordSubtitle() {
	if m == nil {
		return
	}
	m.SubtitlesGenerated.Inc()
}

// ClientConnected 与 ClientDisconnected 维护 websocket 连接数。
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.WebsocketClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.WebsocketClients.Dec()
}

// RecordPathChange 记录一次路径上报结果。
func (m *Metrics) RecordPathChange(result string) {
	if m == nil {
		return
	}
	m.PathChangesTotal.WithLabelValues(result).Inc()
}

// RecordArchive 记录一次归档任务结果。
func (m *Metrics) RecordArchive(result string) {
	if m == nil {
		return
	}
	m.ArchivedMeetings.WithLabelValues(result).Inc()
}
