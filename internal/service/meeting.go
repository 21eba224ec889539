package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/dto"
	"yihuitong/internal/hub"
	"yihuitong/internal/metrics"
	"yihuitong/internal/navigator"
	"yihuitong/internal/repository"
	"yihuitong/internal/tasks"
)

// Broadcaster 向房间内所有在线客户端推送消息，由 hub.Hub 实现。
type Broadcaster interface {
	Broadcast(roomNumber string, message []byte)
	ClientCount(roomNumber string) int
	CloseRoom(roomNumber string)
}

// Archiver 投递会议归档任务，由 tasks.Enqueuer 实现。
type Archiver interface {
	EnqueueArchive(ctx context.Context, payload tasks.ArchivePayload) error
}

// AudioStatus 是会议室音频状态区显示的文字。
type AudioStatus struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

// RoomView 是会议室页面的快照。
type RoomView struct {
	RoomNumber string                `json:"roomNumber"`
	Role       domain.Role           `json:"role"`
	Duration   string                `json:"duration"`
	Muted      bool                  `json:"muted"`
	Audio      AudioStatus           `json:"audio"`
	Subtitles  []domain.SubtitleLine `json:"subtitles"`
}

// Actor 是发起会议室操作的用户。
type Actor struct {
	Role  domain.Role
	Email string
}

func audioStatus(role domain.Role, muted bool) AudioStatus {
	switch {
	case muted:
		return AudioStatus{Label: "已静音", Detail: "麦克风已关闭"}
	case role == domain.RoleHost:
		return AudioStatus{Label: "收音中", Detail: "向火山引擎同传服务推流中"}
	default:
		return AudioStatus{Label: "接收中", Detail: "接收翻译音频和字幕"}
	}
}

// MeetingService 管理各房间的实时会话，并处理会议室中的操作。
// 它同时是 hub 的事件处理者。
type MeetingService struct {
	roomRepo    repository.RoomRepository
	broadcaster Broadcaster
	archiver    Archiver
	clock       clock.Clock
	metrics     *metrics.Metrics

	roomTTL     time.Duration

	mu        sync.Mutex
	sessions  map[string]*LiveSession
	hosts     map[string]map[*hub.Client]struct{}
	touchedAt map[string]time.Time
}

// NewMeetingService 创建 MeetingService 实例。
func NewMeetingService(broadcaster Broadcaster, roomRepo repository.RoomRepository, archiver Archiver, clk clock.Clock, m *metrics.Metrics) *MeetingService {
	if broadcaster == nil {
		panic("Broadcaster cannot be nil for MeetingService")
	}
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for MeetingService")
	}
	if archiver == nil {
		panic("Archiver cannot be nil for MeetingService")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &MeetingService{
		roomRepo:    roomRepo,
		broadcaster: broadcaster,
		archiver:    archiver,
		clock:       clk,
		metrics:     m,
		sessions:    make(map[string]*LiveSession),
		hosts:       make(map[string]map[*hub.Client]struct{}),
		touchedAt:   make(map[string]time.Time),
	}
}

// WithRoomTTL 开启房间保活：计时器运行期间按 ttl/3 的间隔刷新房间的过期时间。
func (s *MeetingService) WithRoomTTL(ttl time.Duration) *MeetingService {
	s.roomTTL = ttl
	return s
}

// IsLive 判断房间是否有实时会话
func (s *MeetingService) IsLive(roomNumber string) bool {
	return s.session(roomNumber) != nil
}

// ParseRoomParams 校验会议室页面的 roomNumber 与 role 参数。
func ParseRoomParams(roomNumber, role string) (domain.Role, error) {
	if msg := domain.ValidateRoomNumber(roomNumber); msg != "" {
		return "", newValidationError("roomNumber", msg)
	}
	if !domain.IsRoomNumber(roomNumber) {
		return "", newValidationError("roomNumber", domain.MsgRoomNumberNotDigits)
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Open 确保房间存在实时会话并返回页面快照。
func (s *MeetingService) Open(ctx context.Context, roomNumber, role string) (*RoomView, error) {
	r, err := ParseRoomParams(roomNumber, role)
	if err != nil {
		return nil, err
	}
	session := s.ensureSession(roomNumber)
	logrus.WithFields(logrus.Fields{"room_number": roomNumber, "role": r}).Debug("Meeting room opened")
	return s.view(session, r), nil
}

// Snapshot 返回已有实时会话的快照，会话不存在时返回 ErrRoomNotFound。
func (s *MeetingService) Snapshot(roomNumber string, role domain.Role) (*RoomView, error) {
	session := s.session(roomNumber)
	if session == nil {
		return nil, ErrRoomNotFound
	}
	return s.view(session, role), nil
}

// SetMuted 由房主切换静音。静音只抑制后续字幕生成，不影响已有字幕。
func (s *MeetingService) SetMuted(ctx context.Context, roomNumber string, actor Actor, muted bool) (bool, error) {
	if actor.Role != domain.RoleHost {
		return false, ErrNotHost
	}
	session := s.session(roomNumber)
	if session == nil {
		return false, ErrRoomNotFound
	}
	if _, err := s.authorizeHost(ctx, roomNumber, actor); err != nil {
		return false, err
	}
	if session.SetMuted(muted) {
		s.broadcast(roomNumber, dto.MuteStateMessage{Type: dto.TypeMuteState, Muted: muted})
		logrus.WithFields(logrus.Fields{"room_number": roomNumber, "muted": muted}).Info("Mute state changed")
	}
	return muted, nil
}

// End 由房主结束会议：停止会话、通知并断开所有参会者、删除房间并投递归档任务。
func (s *MeetingService) End(ctx context.Context, roomNumber string, actor Actor, confirmed bool) error {
	if actor.Role != domain.RoleHost {
		return ErrNotHost
	}
	if err := RequireConfirmation(ConfirmEnd, confirmed); err != nil {
		return err
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_number": roomNumber, "operation": "endMeeting"})

	room, err := s.authorizeHost(ctx, roomNumber, actor)
	if err != nil {
		return err
	}

	s.mu.Lock()
	session := s.sessions[roomNumber]
	delete(s.sessions, roomNumber)
	delete(s.touchedAt, roomNumber)
	s.mu.Unlock()

	if session != nil {
		session.Stop()
		s.metrics.SessionStopped()
	}

	s.broadcast(roomNumber, dto.MeetingEndedMessage{
		Type:       dto.TypeMeetingEnded,
		RoomNumber: roomNumber,
		Redirect:   navigator.PathMeetingSelect,
	})
	s.broadcaster.CloseRoom(roomNumber)

	if err := s.roomRepo.Delete(ctx, roomNumber); err != nil {
		logCtx.WithError(err).Error("Failed to delete room")
		return ErrInternalServer
	}

	if session != nil {
		payload := tasks.ArchivePayload{
			RoomNumber: roomNumber,
			StartedAt:  session.StartedAt(),
			EndedAt:    s.clock.Now(),
			Lines:      session.Subtitles(),
		}
		if room != nil {
			payload.HostEmail = room.HostEmail
			payload.HostName = room.HostName
		}
		if err := s.archiver.EnqueueArchive(ctx, payload); err != nil {
			// 归档失败不影响结束会议
			logCtx.WithError(err).Error("Failed to enqueue meeting archive")
		}
	}

	logCtx.Info("Meeting ended")
	return nil
}

// Leave 退出会议。服务端状态随 websocket 断开而更新，这里只做确认检查。
func (s *MeetingService) Leave(ctx context.Context, roomNumber string, confirmed bool) error {
	if err := RequireConfirmation(ConfirmLeave, confirmed); err != nil {
		return err
	}
	logrus.WithField("room_number", roomNumber).Debug("Participant leaving meeting")
	return nil
}

// Sweep 清理没有在线客户端且房间已过期的实时会话，返回清理数量。
func (s *MeetingService) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	candidates := make([]*LiveSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		if !session.Running() {
			candidates = append(candidates, session)
		}
	}
	s.mu.Unlock()

	swept := 0
	for _, session := range candidates {
		roomNumber := session.RoomNumber()
		if s.broadcaster.ClientCount(roomNumber) > 0 {
			continue
		}
		exists, err := s.roomRepo.Exists(ctx, roomNumber)
		if err != nil {
			return swept, err
		}
		if exists {
			continue
		}

		s.mu.Lock()
		current, ok := s.sessions[roomNumber]
		if ok && current == session && !session.Running() {
			delete(s.sessions, roomNumber)
			delete(s.touchedAt, roomNumber)
		} else {
			ok = false
		}
		s.mu.Unlock()

		if ok {
			session.Stop()
			s.metrics.SessionStopped()
			swept++
			logrus.WithField("room_number", roomNumber).Info("Idle live session swept")
		}
	}
	return swept, nil
}

// ActiveRooms 返回当前存在实时会话的房间号
func (s *MeetingService) ActiveRooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]string, 0, len(s.sessions))
	for number := range s.sessions {
		rooms = append(rooms, number)
	}
	return rooms
}

// StopAll 停止所有实时会话的计时器，已生成的字幕保留
func (s *MeetingService) StopAll() {
	s.mu.Lock()
	sessions := make([]*LiveSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.Stop()
	}
}

// --- hub.EventHandler ---

// ClientJoined 启动会话计时器，房主加入时同时启动字幕生成器。
// 房间没有实时会话 (会议已结束) 时断开该客户端。
func (s *MeetingService) ClientJoined(client *hub.Client, online int) {
	info := client.Info()
	session := s.session(client.RoomNumber())
	if session == nil {
		logrus.WithField("room_number", client.RoomNumber()).Warn("Client joined a room without live session, closing connection")
		client.CloseConn()
		return
	}
	session.Start()
	if info.Role == domain.RoleHost {
		s.addHost(client)
		session.StartGenerator()
	}
	s.broadcast(client.RoomNumber(), dto.PresenceMessage{
		Type:        dto.TypeUserJoined,
		DisplayName: info.DisplayName,
		Role:        info.Role,
		Online:      online,
	})
}

// ClientLeft 在最后一个房主离开时停止字幕生成器，在最后一个客户端离开时停止全部计时器。字幕保留。
func (s *MeetingService) ClientLeft(client *hub.Client, online int) {
	info := client.Info()
	roomNumber := client.RoomNumber()
	lastHost := s.removeHost(client)
	session := s.session(roomNumber)
	if online == 0 {
		if session != nil {
			session.Stop()
			logrus.WithField("room_number", roomNumber).Info("Last client left, live session paused")
		}
		return
	}
	if lastHost && session != nil {
		session.StopGenerator()
		logrus.WithField("room_number", roomNumber).Info("Last host left, subtitle generator stopped")
	}
	s.broadcast(roomNumber, dto.PresenceMessage{
		Type:        dto.TypeUserLeft,
		DisplayName: info.DisplayName,
		Role:        info.Role,
		Online:      online,
	})
}

// ClientMessage 处理客户端发来的 ping 与 mute 消息。
func (s *MeetingService) ClientMessage(client *hub.Client, message []byte) {
	info := client.Info()
	logCtx := logrus.WithFields(logrus.Fields{"room_number": client.RoomNumber(), "role": info.Role})

	var msg dto.ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logCtx.WithError(err).Warn("Failed to unmarshal client message")
		s.sendTo(client, dto.ErrorDTO{Type: dto.TypeError, Message: "invalid message"})
		return
	}

	switch msg.Type {
	case dto.ClientTypePing:
		s.sendTo(client, dto.PongMessage{Type: dto.TypePong, Duration: s.durationOf(client.RoomNumber())})
	case dto.ClientTypeMute:
		if msg.Muted == nil {
			s.sendTo(client, dto.ErrorDTO{Type: dto.TypeError, Message: "muted is required"})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		actor := Actor{Role: info.Role, Email: info.Email}
		if _, err := s.SetMuted(ctx, client.RoomNumber(), actor, *msg.Muted); err != nil {
			s.sendTo(client, dto.ErrorDTO{Type: dto.TypeError, Message: err.Error()})
		}
	default:
		logCtx.Debugf("Ignoring client message type %q", msg.Type)
	}
}

// SnapshotMessage 构造连接建立时发送给客户端的快照消息。
// 没有实时会话时只为仍登记的房间创建会话，已结束的房间返回 ErrRoomNotFound。
func (s *MeetingService) SnapshotMessage(ctx context.Context, roomNumber string, role domain.Role) ([]byte, error) {
	session := s.session(roomNumber)
	if session == nil {
		exists, err := s.roomRepo.Exists(ctx, roomNumber)
		if err != nil {
			logrus.WithError(err).WithField("room_number", roomNumber).Error("Failed to check room before attaching client")
			return nil, ErrInternalServer
		}
		if !exists {
			return nil, ErrRoomNotFound
		}
		session = s.ensureSession(roomNumber)
	}
	return json.Marshal(dto.SnapshotMessage{
		Type:       dto.TypeSnapshot,
		RoomNumber: roomNumber,
		Role:       role,
		Duration:   session.Duration(),
		Muted:      session.Muted(),
		Subtitles:  session.Subtitles(),
	})
}

// --- 私有辅助函数 ---

func (s *MeetingService) ensureSession(roomNumber string) *LiveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[roomNumber]
	if !ok {
		session = NewLiveSession(roomNumber, s.clock, s.onLiveEvent, s.metrics)
		s.sessions[roomNumber] = session
		s.metrics.SessionStarted()
		logrus.WithField("room_number", roomNumber).Info("Live session created")
	}
	return session
}

// authorizeHost 校验操作者是房主。房间仍登记时要求邮箱与创建者一致，房间已过期时只看角色。
func (s *MeetingService) authorizeHost(ctx context.Context, roomNumber string, actor Actor) (*domain.Room, error) {
	if actor.Role != domain.RoleHost {
		return nil, ErrNotHost
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_number": roomNumber, "email": actor.Email})
	room, err := s.roomRepo.Find(ctx, roomNumber)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, nil
		}
		logCtx.WithError(err).Error("Failed to load room for host check")
		return nil, ErrInternalServer
	}
	if room.HostEmail != "" && !strings.EqualFold(room.HostEmail, actor.Email) {
		logCtx.Warn("Host action rejected: not the room creator")
		return nil, ErrNotHost
	}
	return room, nil
}

func (s *MeetingService) addHost(client *hub.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.hosts[client.RoomNumber()]
	if !ok {
		set = make(map[*hub.Client]struct{})
		s.hosts[client.RoomNumber()] = set
	}
	set[client] = struct{}{}
}

// removeHost 移除房主连接，返回房间是否已没有房主在线
func (s *MeetingService) removeHost(client *hub.Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.hosts[client.RoomNumber()]
	if !ok {
		return false
	}
	if _, present := set[client]; !present {
		return false
	}
	delete(set, client)
	if len(set) > 0 {
		return false
	}
	delete(s.hosts, client.RoomNumber())
	return true
}

// keepAlive 在计时器运行期间刷新房间的过期时间
func (s *MeetingService) keepAlive(roomNumber string) {
	if s.roomTTL <= 0 {
		return
	}
	now := s.clock.Now()
	s.mu.Lock()
	last, ok := s.touchedAt[roomNumber]
	if _, live := s.sessions[roomNumber]; !live || (ok && now.Sub(last) < s.roomTTL/3) {
		s.mu.Unlock()
		return
	}
	s.touchedAt[roomNumber] = now
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.roomRepo.Touch(ctx, roomNumber, s.roomTTL); err != nil && !errors.Is(err, repository.ErrRoomNotFound) {
		logrus.WithError(err).WithField("room_number", roomNumber).Warn("Failed to keep room alive")
	}
}

func (s *MeetingService) session(roomNumber string) *LiveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[roomNumber]
}

func (s *MeetingService) durationOf(roomNumber string) string {
	if session := s.session(roomNumber); session != nil {
		return session.Duration()
	}
	return ""
}

func (s *MeetingService) view(session *LiveSession, role domain.Role) *RoomView {
	muted := session.Muted()
	return &RoomView{
		RoomNumber: session.RoomNumber(),
		Role:       role,
		Duration:   session.Duration(),
		Muted:      muted,
		Audio:      audioStatus(role, muted),
		Subtitles:  session.Subtitles(),
	}
}

// onLiveEvent 把实时会话事件转换为 websocket 消息广播
func (s *MeetingService) onLiveEvent(roomNumber string, event LiveEvent) {
	switch event.Type {
	case LiveDurationTick:
		s.broadcast(roomNumber, dto.DurationMessage{Type: dto.TypeDuration, Duration: event.Duration})
		s.keepAlive(roomNumber)
	case LiveSubtitleAdded:
		s.broadcast(roomNumber, dto.SubtitleMessage{Type: dto.TypeSubtitle, Line: event.Line})
	}
}

func (s *MeetingService) broadcast(roomNumber string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).WithField("room_number", roomNumber).Error("Failed to marshal broadcast message")
		return
	}
	s.broadcaster.Broadcast(roomNumber, data)
}

func (s *MeetingService) sendTo(client *hub.Client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	client.Send(data)
}
