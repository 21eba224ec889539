package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yihuitong/internal/domain"
	"yihuitong/internal/dto"
	"yihuitong/internal/hub"
	"yihuitong/internal/repository"
	"yihuitong/internal/repository/mocks"
	"yihuitong/internal/service"
	"yihuitong/internal/tasks"
)

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages map[string][][]byte
	closed   []string
	online   map[string]int
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{messages: map[string][][]byte{}, online: map[string]int{}}
}

func (f *fakeBroadcaster) Broadcast(room string, message []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[room] = append(f.messages[room], message)
}

func (f *fakeBroadcaster) ClientCount(room string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[room]
}

func (f *fakeBroadcaster) CloseRoom(room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, room)
}

func (f *fakeBroadcaster) types(room string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.messages[room] {
		var env struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(m, &env) == nil {
			out = append(out, env.Type)
		}
	}
	return out
}

type fakeArchiver struct {
	mu       sync.Mutex
	payloads []tasks.ArchivePayload
	err      error
}

func (f *fakeArchiver) EnqueueArchive(_ context.Context, p tasks.ArchivePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.err
}

var (
	hostActor  = service.Actor{Role: domain.RoleHost, Email: "host@example.com"}
	guestActor = service.Actor{Role: domain.RoleParticipant, Email: "guest@example.com"}
	testRoom   = &domain.Room{Number: "1234", HostEmail: "host@example.com", HostName: "主持人"}
)

func (f *fakeBroadcaster) count(room, typ string) int {
	n := 0
	for _, t := range f.types(room) {
		if t == typ {
			n++
		}
	}
	return n
}

func newMeetingService(t *testing.T) (*service.MeetingService, *fakeBroadcaster, *mocks.RoomRepository, *fakeArchiver, *clock.Mock) {
	t.Helper()
	b := newFakeBroadcaster()
	roomRepo := new(mocks.RoomRepository)
	archiver := &fakeArchiver{}
	mockClock := clock.NewMock()
	svc := service.NewMeetingService(b, roomRepo, archiver, mockClock, nil)
	return svc, b, roomRepo, archiver, mockClock
}

func TestMeetingService_Open_Validation(t *testing.T) {
	svc, _, _, _, _ := newMeetingService(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, "12", "host")
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, domain.MsgRoomNumberLength, verr.Fields["roomNumber"])

	_, err = svc.Open(ctx, "12a4", "host")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, domain.MsgRoomNumberNotDigits, verr.Fields["roomNumber"])

	_, err = svc.Open(ctx, "1234", "guest")
	assert.ErrorIs(t, err, service.ErrInvalidRole)
}

func TestMeetingService_Open_Snapshot(t *testing.T) {
	svc, _, _, _, _ := newMeetingService(t)

	view, err := svc.Open(context.Background(), "1234", "participant")

	require.NoError(t, err)
	assert.Equal(t, "1234", view.RoomNumber)
	assert.Equal(t, domain.RoleParticipant, view.Role)
	assert.Equal(t, "05:32", view.Duration)
	assert.False(t, view.Muted)
	assert.Equal(t, "接收中", view.Audio.Label)
	assert.Len(t, view.Subtitles, 5)

	// 同一房间再次打开得到同一个会话
	again, err := svc.Open(context.Background(), "1234", "host")
	require.NoError(t, err)
	assert.Equal(t, "收音中", again.Audio.Label)
	assert.Equal(t, []string{"1234"}, svc.ActiveRooms())
}

func TestMeetingService_SetMuted(t *testing.T) {
	svc, b, roomRepo, _, _ := newMeetingService(t)
	ctx := context.Background()

	_, err := svc.SetMuted(ctx, "1234", hostActor, true)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)

	_, err = svc.Open(ctx, "1234", "host")
	require.NoError(t, err)

	_, err = svc.SetMuted(ctx, "1234", guestActor, true)
	assert.ErrorIs(t, err, service.ErrNotHost)

	roomRepo.On("Find", ctx, "1234").Return(testRoom, nil)
	muted, err := svc.SetMuted(ctx, "1234", hostActor, true)
	require.NoError(t, err)
	assert.True(t, muted)
	assert.Equal(t, []string{dto.TypeMuteState}, b.types("1234"))

	view, err := svc.Snapshot("1234", domain.RoleHost)
	require.NoError(t, err)
	assert.True(t, view.Muted)
	assert.Equal(t, "已静音", view.Audio.Label)
	assert.Len(t, view.Subtitles, 5)
}

func TestMeetingService_End(t *testing.T) {
	svc, b, roomRepo, archiver, mockClock := newMeetingService(t)
	ctx := context.Background()
	_, err := svc.Open(ctx, "1234", "host")
	require.NoError(t, err)

	err = svc.End(ctx, "1234", guestActor, true)
	assert.ErrorIs(t, err, service.ErrNotHost)

	err = svc.End(ctx, "1234", hostActor, false)
	var cerr *service.ConfirmationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "确认结束会议", cerr.Modal.Title)
	assert.Equal(t, "确定要结束当前会议吗？所有参会者将被移出会议。", cerr.Modal.Message)

	mockClock.Add(10 * time.Minute)
	roomRepo.On("Find", ctx, "1234").Return(testRoom, nil).Once()
	roomRepo.On("Delete", ctx, "1234").Return(nil).Once()

	require.NoError(t, svc.End(ctx, "1234", hostActor, true))

	assert.Contains(t, b.types("1234"), dto.TypeMeetingEnded)
	assert.Equal(t, []string{"1234"}, b.closed)
	require.Len(t, archiver.payloads, 1)
	payload := archiver.payloads[0]
	assert.Equal(t, "host@example.com", payload.HostEmail)
	assert.Len(t, payload.Lines, 5)
	assert.Equal(t, 10*time.Minute+service.DurationOffset, payload.EndedAt.Sub(payload.StartedAt))

	_, err = svc.Snapshot("1234", domain.RoleHost)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	roomRepo.AssertExpectations(t)
}

func TestMeetingService_End_ArchiveFailureDoesNotFail(t *testing.T) {
	svc, _, roomRepo, archiver, _ := newMeetingService(t)
	archiver.err = errors.New("queue down")
	ctx := context.Background()
	_, err := svc.Open(ctx, "1234", "host")
	require.NoError(t, err)

	roomRepo.On("Find", ctx, "1234").Return(nil, repository.ErrRoomNotFound).Once()
	roomRepo.On("Delete", ctx, "1234").Return(nil).Once()

	assert.NoError(t, svc.End(ctx, "1234", hostActor, true))
}

func TestMeetingService_Leave(t *testing.T) {
	svc, _, _, _, _ := newMeetingService(t)

	err := svc.Leave(context.Background(), "1234", false)
	var cerr *service.ConfirmationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "确认退出会议", cerr.Modal.Title)
	assert.ErrorIs(t, err, service.ErrConfirmationRequired)

	assert.NoError(t, svc.Leave(context.Background(), "1234", true))
}

func TestMeetingService_ClientLifecycle(t *testing.T) {
	svc, b, _, _, mockClock := newMeetingService(t)
	_, err := svc.Open(context.Background(), "1234", "host")
	require.NoError(t, err)
	host := hub.NewClient(nil, nil, "1234", hub.ClientInfo{DisplayName: "主持人", Role: domain.RoleHost})
	guest := hub.NewClient(nil, nil, "1234", hub.ClientInfo{DisplayName: "参会者", Role: domain.RoleParticipant})

	svc.ClientJoined(host, 1)
	svc.ClientJoined(guest, 2)
	assert.Equal(t, []string{dto.TypeUserJoined, dto.TypeUserJoined}, b.types("1234"))

	mockClock.Add(30 * time.Second)
	require.Eventually(t, func() bool {
		view, err := svc.Snapshot("1234", domain.RoleHost)
		return err == nil && len(view.Subtitles) == 6
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		for _, typ := range b.types("1234") {
			if typ == dto.TypeSubtitle {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	svc.ClientLeft(guest, 1)
	assert.Contains(t, b.types("1234"), dto.TypeUserLeft)

	// 最后一个客户端离开后计时器停止，字幕保留
	svc.ClientLeft(host, 0)
	mockClock.Add(time.Minute)
	time.Sleep(20 * time.Millisecond)
	view, err := svc.Snapshot("1234", domain.RoleHost)
	require.NoError(t, err)
	assert.Len(t, view.Subtitles, 6)
}

func TestMeetingService_ClientMessageMute(t *testing.T) {
	svc, _, roomRepo, _, _ := newMeetingService(t)
	_, err := svc.Open(context.Background(), "1234", "host")
	require.NoError(t, err)
	roomRepo.On("Find", mock.Anything, "1234").Return(testRoom, nil)
	host := hub.NewClient(nil, nil, "1234", hub.ClientInfo{Role: domain.RoleHost, Email: "host@example.com"})
	guest := hub.NewClient(nil, nil, "1234", hub.ClientInfo{Role: domain.RoleParticipant, Email: "guest@example.com"})
	svc.ClientJoined(host, 1)
	t.Cleanup(func() { svc.ClientLeft(host, 0) })

	svc.ClientMessage(guest, []byte(`{"type":"mute","muted":true}`))
	view, err := svc.Snapshot("1234", domain.RoleHost)
	require.NoError(t, err)
	assert.False(t, view.Muted, "participants cannot mute")

	svc.ClientMessage(host, []byte(`{"type":"mute","muted":true}`))
	view, err = svc.Snapshot("1234", domain.RoleHost)
	require.NoError(t, err)
	assert.True(t, view.Muted)

	assert.NotPanics(t, func() {
		svc.ClientMessage(host, []byte(`not json`))
		svc.ClientMessage(host, []byte(`{"type":"ping"}`))
	})
}

func TestMeetingService_Sweep(t *testing.T) {
	svc, b, roomRepo, _, _ := newMeetingService(t)
	ctx := context.Background()
	for _, number := range []string{"1111", "2222", "3333"} {
		_, err := svc.Open(ctx, number, "host")
		require.NoError(t, err)
	}
	b.online["3333"] = 1

	roomRepo.On("Exists", ctx, "1111").Return(false, nil).Once()
	roomRepo.On("Exists", ctx, "2222").Return(true, nil).Once()

	swept, err := svc.Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.ElementsMatch(t, []string{"2222", "3333"}, svc.ActiveRooms())
	roomRepo.AssertNotCalled(t, "Exists", mock.Anything, "3333")
}

func TestMeetingService_SnapshotMessage(t *testing.T) {
	svc, _, roomRepo, _, _ := newMeetingService(t)
	ctx := context.Background()
	roomRepo.On("Exists", ctx, "1234").Return(true, nil).Once()

	raw, err := svc.SnapshotMessage(ctx, "1234", domain.RoleParticipant)
	require.NoError(t, err)
	assert.True(t, svc.IsLive("1234"))

	var msg dto.SnapshotMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, dto.TypeSnapshot, msg.Type)
	assert.Equal(t, "05:32", msg.Duration)
	assert.Len(t, msg.Subtitles, 5)
}

func TestMeetingService_SnapshotMessage_EndedRoom(t *testing.T) {
	svc, _, roomRepo, _, _ := newMeetingService(t)
	ctx := context.Background()
	roomRepo.On("Exists", ctx, "1234").Return(false, nil).Once()
	roomRepo.On("Exists", ctx, "5678").Return(false, errors.New("redis down")).Once()

	_, err := svc.SnapshotMessage(ctx, "1234", domain.RoleParticipant)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	_, err = svc.SnapshotMessage(ctx, "5678", domain.RoleParticipant)
	assert.ErrorIs(t, err, service.ErrInternalServer)

	assert.Empty(t, svc.ActiveRooms(), "ended rooms are not revived")
	assert.False(t, svc.IsLive("1234"))
}

func TestMeetingService_SnapshotMessage_ReusesLiveSession(t *testing.T) {
	svc, _, roomRepo, _, _ := newMeetingService(t)
	ctx := context.Background()
	_, err := svc.Open(ctx, "1234", "host")
	require.NoError(t, err)

	_, err = svc.SnapshotMessage(ctx, "1234", domain.RoleParticipant)

	require.NoError(t, err)
	roomRepo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestMeetingService_ClientJoinedWithoutSession(t *testing.T) {
	svc, b, _, _, _ := newMeetingService(t)
	client := hub.NewClient(nil, nil, "1234", hub.ClientInfo{Role: domain.RoleHost})

	assert.NotPanics(t, func() { svc.ClientJoined(client, 1) })

	assert.Empty(t, svc.ActiveRooms())
	assert.Empty(t, b.types("1234"))
	assert.NotPanics(t, func() { svc.ClientLeft(client, 0) })
}

func TestMeetingService_HostLeavesWhileParticipantStays(t *testing.T) {
	svc, b, _, _, mockClock := newMeetingService(t)
	_, err := svc.Open(context.Background(), "1234", "host")
	require.NoError(t, err)
	host := hub.NewClient(nil, nil, "1234", hub.ClientInfo{DisplayName: "主持人", Role: domain.RoleHost})
	guest := hub.NewClient(nil, nil, "1234", hub.ClientInfo{DisplayName: "参会者", Role: domain.RoleParticipant})
	t.Cleanup(svc.StopAll)

	svc.ClientJoined(host, 1)
	svc.ClientJoined(guest, 2)
	svc.ClientLeft(host, 1)

	// 房主离开后不再生成字幕，时长继续推送
	ticksBefore := b.count("1234", dto.TypeDuration)
	mockClock.Add(90 * time.Second)
	require.Eventually(t, func() bool {
		return b.count("1234", dto.TypeDuration) > ticksBefore
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	view, err := svc.Snapshot("1234", domain.RoleParticipant)
	require.NoError(t, err)
	assert.Len(t, view.Subtitles, 5)
	assert.Equal(t, 0, b.count("1234", dto.TypeSubtitle))

	// 房主重新连接后恢复生成
	svc.ClientJoined(host, 2)
	mockClock.Add(30 * time.Second)
	require.Eventually(t, func() bool {
		view, err := svc.Snapshot("1234", domain.RoleParticipant)
		return err == nil && len(view.Subtitles) == 6
	}, time.Second, 5*time.Millisecond)
}

func TestMeetingService_SecondHostKeepsGenerator(t *testing.T) {
	svc, _, _, _, mockClock := newMeetingService(t)
	_, err := svc.Open(context.Background(), "1234", "host")
	require.NoError(t, err)
	first := hub.NewClient(nil, nil, "1234", hub.ClientInfo{Role: domain.RoleHost})
	second := hub.NewClient(nil, nil, "1234", hub.ClientInfo{Role: domain.RoleHost})
	t.Cleanup(svc.StopAll)

	svc.ClientJoined(first, 1)
	svc.ClientJoined(second, 2)
	svc.ClientLeft(first, 1)

	mockClock.Add(30 * time.Second)
	require.Eventually(t, func() bool {
		view, err := svc.Snapshot("1234", domain.RoleHost)
		return err == nil && len(view.Subtitles) == 6
	}, time.Second, 5*time.Millisecond)
}

func TestMeetingService_KeepsRoomAliveWhileRunning(t *testing.T) {
	svc, _, roomRepo, _, mockClock := newMeetingService(t)
	svc.WithRoomTTL(30 * time.Second)
	_, err := svc.Open(context.Background(), "1234", "host")
	require.NoError(t, err)

	var mu sync.Mutex
	touches := 0
	roomRepo.On("Touch", mock.Anything, "1234", 30*time.Second).Return(nil).Run(func(mock.Arguments) {
		mu.Lock()
		touches++
		mu.Unlock()
	})
	touched := func() int {
		mu.Lock()
		defer mu.Unlock()
		return touches
	}

	host := hub.NewClient(nil, nil, "1234", hub.ClientInfo{Role: domain.RoleHost})
	svc.ClientJoined(host, 1)
	t.Cleanup(svc.StopAll)

	mockClock.Add(time.Second)
	require.Eventually(t, func() bool { return touched() >= 1 }, time.Second, 5*time.Millisecond)

	mockClock.Add(time.Minute)
	require.Eventually(t, func() bool { return touched() >= 2 }, time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, touched(), 61, "refresh is throttled, not once per tick")
}

func TestMeetingService_End_RejectsOtherUserClaimingHost(t *testing.T) {
	svc, b, roomRepo, archiver, _ := newMeetingService(t)
	ctx := context.Background()
	_, err := svc.Open(ctx, "1234", "host")
	require.NoError(t, err)
	roomRepo.On("Find", ctx, "1234").Return(testRoom, nil)
	intruder := service.Actor{Role: domain.RoleHost, Email: "guest@example.com"}

	err = svc.End(ctx, "1234", intruder, true)
	assert.ErrorIs(t, err, service.ErrNotHost)
	_, err = svc.SetMuted(ctx, "1234", intruder, true)
	assert.ErrorIs(t, err, service.ErrNotHost)

	assert.True(t, svc.IsLive("1234"))
	assert.Empty(t, b.closed)
	assert.Empty(t, archiver.payloads)
	roomRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	// 邮箱大小写不影响比对
	roomRepo.On("Delete", ctx, "1234").Return(nil).Once()
	require.NoError(t, svc.End(ctx, "1234", service.Actor{Role: domain.RoleHost, Email: "HOST@example.com"}, true))
	assert.False(t, svc.IsLive("1234"))
}
