package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/metrics"
)

// 实时会话的时间参数
const (
	DurationOffset   = 5*time.Minute + 32*time.Second // 会议室打开时已进行的时长
	DurationTick     = time.Second
	SubtitleInterval = 30 * time.Second
)

// LiveEventType 是实时会话产生的事件类型。
type LiveEventType int

const (
	LiveDurationTick LiveEventType = iota
	LiveSubtitleAdded
)

// LiveEvent 是实时会话推送给订阅者的事件。
type LiveEvent struct {
	Type     LiveEventType
	Duration string
	Line     domain.SubtitleLine
}

// LiveSink 接收实时会话事件，在会话的 goroutine 中被调用，不能阻塞。
type LiveSink func(roomNumber string, event LiveEvent)

// FormatDuration 把时长格式化为 mm:ss，满一小时后为 hh:mm:ss。
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// LiveSession 是一个房间的实时状态：会议时长与字幕列表。
// 时长计时器在有客户端连接时运行，字幕生成器只由房主启动。
// Stop 之后字幕保留，可以再次 Start。
type LiveSession struct {
	roomNumber string
	clock      clock.Clock
	sink       LiveSink
	metrics    *metrics.Metrics
	startedAt  time.Time

	mu        sync.Mutex
	subtitles []domain.SubtitleLine
	nextID    int
	rotation  int
	muted     bool

	durationStop chan struct{}
	durationDone chan struct{}
	genStop      chan struct{}
	genDone      chan struct{}
}

// NewLiveSession 创建房间的实时会话，字幕以预置内容开始。
func NewLiveSession(roomNumber string, clk clock.Clock, sink LiveSink, m *metrics.Metrics) *LiveSession {
	if clk == nil {
		clk = clock.New()
	}
	subtitles := initialSubtitles()
	return &LiveSession{
		roomNumber: roomNumber,
		clock:      clk,
		sink:       sink,
		metrics:    m,
		startedAt:  clk.Now().Add(-DurationOffset),
		subtitles:  subtitles,
		nextID:     len(subtitles) + 1,
	}
}

// RoomNumber 返回会话所属房间号
func (s *LiveSession) RoomNumber() string { return s.roomNumber }

// StartedAt 返回会议的起始时间 (含初始偏移)
func (s *LiveSession) StartedAt() time.Time { return s.startedAt }

// Duration 返回当前会议时长的显示文本
func (s *LiveSession) Duration() string {
	return FormatDuration(s.clock.Since(s.startedAt))
}

// Subtitles 返回字幕列表的副本
func (s *LiveSession) Subtitles() []domain.SubtitleLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SubtitleLine, len(s.subtitles))
	copy(out, s.subtitles)
	return out
}

// Muted 返回静音状态
func (s *LiveSession) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// SetMuted 设置静音状态，返回状态是否发生变化。已生成的字幕不受影响。
func (s *LiveSession) SetMuted(muted bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.muted != muted
	s.muted = muted
	return changed
}

// Running 判断时长计时器是否在运行
func (s *LiveSession) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationStop != nil
}

// Generating 判断字幕生成器是否在运行
func (s *LiveSession) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genStop != nil
}

// Start 启动时长计时器，已在运行时不做任何事。
func (s *LiveSession) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.durationStop != nil {
		return
	}
	ticker := s.clock.Ticker(DurationTick)
	s.durationStop = make(chan struct{})
	s.durationDone = make(chan struct{})
	go s.durationLoop(ticker, s.durationStop, s.durationDone)
}

// StartGenerator 启动字幕生成器，已在运行时不做任何事。
func (s *LiveSession) StartGenerator() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.genStop != nil {
		return
	}
	ticker := s.clock.Ticker(SubtitleInterval)
	s.genStop = make(chan struct{})
	s.genDone = make(chan struct{})
	go s.generatorLoop(ticker, s.genStop, s.genDone)
	logrus.WithField("room_number", s.roomNumber).Debug("Subtitle generator started")
}

// StopGenerator 只停止字幕生成器，时长计时器继续运行。可重复调用。
func (s *LiveSession) StopGenerator() {
	s.mu.Lock()
	stop, done := s.genStop, s.genDone
	s.genStop, s.genDone = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	logrus.WithField("room_number", s.roomNumber).Debug("Subtitle generator stopped")
}

// Stop 停止所有计时器并等待 goroutine 退出，可重复调用。
func (s *LiveSession) Stop() {
	s.mu.Lock()
	stops := []chan struct{}{s.durationStop, s.genStop}
	dones := []chan struct{}{s.durationDone, s.genDone}
	s.durationStop, s.durationDone = nil, nil
	s.genStop, s.genDone = nil, nil
	s.mu.Unlock()

	for i, stop := range stops {
		if stop == nil {
			continue
		}
		close(stop)
		<-dones[i]
	}
}

// Generate 追加一条轮换字幕，静音时不追加并返回 false。
func (s *LiveSession) Generate() (domain.SubtitleLine, bool) {
	s.mu.Lock()
	if s.muted {
		s.mu.Unlock()
		return domain.SubtitleLine{}, false
	}
	canned := cannedSubtitles[s.rotation%len(cannedSubtitles)]
	s.rotation++
	line := s.appendLocked(canned, s.clock.Now())
	s.mu.Unlock()

	s.metrics.RecordSubtitle()
	return line, true
}

// appendLocked 把上一条正在播放的字幕置为已播放，然后追加新字幕。调用方必须持有 mu。
func (s *LiveSession) appendLocked(canned domain.CannedSubtitle, now time.Time) domain.SubtitleLine {
	for i := range s.subtitles {
		if s.subtitles[i].Status == domain.SubtitlePlaying {
			s.subtitles[i].Status = domain.SubtitlePlayed
		}
	}
	line := domain.SubtitleLine{
		ID:         s.nextID,
		Time:       now.Format("15:04:05"),
		Original:   canned.Original,
		Translated: canned.Translated,
		Status:     domain.SubtitlePlaying,
	}
	s.nextID++
	s.subtitles = append(s.subtitles, line)
	return line
}

func (s *LiveSession) durationLoop(ticker *clock.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.emit(LiveEvent{Type: LiveDurationTick, Duration: s.Duration()})
		}
	}
}

func (s *LiveSession) generatorLoop(ticker *clock.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if line, ok := s.Generate(); ok {
				s.emit(LiveEvent{Type: LiveSubtitleAdded, Line: line})
			}
		}
	}
}

func (s *LiveSession) emit(event LiveEvent) {
	if s.sink != nil {
		s.sink(s.roomNumber, event)
	}
}
