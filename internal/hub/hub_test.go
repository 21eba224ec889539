package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yihuitong/internal/domain"
)

type recordingHandler struct {
	mu       sync.Mutex
	joined   []int
	left     []int
	messages [][]byte
}

func (r *recordingHandler) ClientJoined(_ *Client, online int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = append(r.joined, online)
}

func (r *recordingHandler) ClientLeft(_ *Client, online int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.left = append(r.left, online)
}

func (r *recordingHandler) ClientMessage(_ *Client, message []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingHandler) snapshot() ([]int, []int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.joined...), append([]int(nil), r.left...), len(r.messages)
}

func startHub(t *testing.T) (*Hub, *recordingHandler) {
	t.Helper()
	h := NewHub(nil)
	handler := &recordingHandler{}
	h.SetEventHandler(handler)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h, handler
}

func newTestClient(h *Hub, room string, role domain.Role) *Client {
	return NewClient(h, nil, room, ClientInfo{DisplayName: "测试", Email: "t@example.com", Role: role})
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	h, handler := startHub(t)
	host := newTestClient(h, "1234", domain.RoleHost)
	guest := newTestClient(h, "1234", domain.RoleParticipant)
	other := newTestClient(h, "5678", domain.RoleHost)

	require.True(t, h.Register(host))
	require.True(t, h.Register(guest))
	require.True(t, h.Register(other))
	require.Eventually(t, func() bool { return h.ClientCount("1234") == 2 }, time.Second, 5*time.Millisecond)

	h.Broadcast("1234", []byte(`{"type":"duration"}`))
	assert.Equal(t, `{"type":"duration"}`, string(<-host.send))
	assert.Equal(t, `{"type":"duration"}`, string(<-guest.send))
	assert.Len(t, other.send, 0)

	require.True(t, h.QueueMessage(HubMessage{Type: msgUnregister, Client: guest}))
	require.Eventually(t, func() bool { return h.ClientCount("1234") == 1 }, time.Second, 5*time.Millisecond)

	_, ok := <-guest.send
	assert.False(t, ok, "send channel should be closed after unregister")
	assert.False(t, guest.Send([]byte("late")))

	require.Eventually(t, func() bool {
		joined, left, _ := handler.snapshot()
		return len(joined) == 3 && len(left) == 1
	}, time.Second, 5*time.Millisecond)
	_, left, _ := handler.snapshot()
	assert.Equal(t, []int{1}, left)
}

func TestHub_CloseRoom(t *testing.T) {
	h, handler := startHub(t)
	c1 := newTestClient(h, "1234", domain.RoleHost)
	c2 := newTestClient(h, "1234", domain.RoleParticipant)
	require.True(t, h.Register(c1))
	require.True(t, h.Register(c2))
	require.Eventually(t, func() bool { return h.ClientCount("1234") == 2 }, time.Second, 5*time.Millisecond)

	h.CloseRoom("1234")
	assert.Equal(t, 0, h.ClientCount("1234"))
	_, ok := <-c1.send
	assert.False(t, ok)

	// 读循环退出后的注销请求不再触发离开事件
	require.True(t, h.QueueMessage(HubMessage{Type: msgUnregister, Client: c1}))
	time.Sleep(20 * time.Millisecond)
	_, left, _ := handler.snapshot()
	assert.Empty(t, left)
}

func TestHub_ClientMessageDispatched(t *testing.T) {
	h, handler := startHub(t)
	c := newTestClient(h, "1234", domain.RoleHost)
	require.True(t, h.Register(c))

	require.True(t, h.QueueMessage(HubMessage{Type: msgClient, Client: c, RawData: []byte(`{"type":"ping"}`)}))
	require.Eventually(t, func() bool {
		_, _, n := handler.snapshot()
		return n == 1
	}, time.Second, 5*time.Millisecond)
}

func TestClient_SendSkipsWhenFull(t *testing.T) {
	c := NewClient(nil, nil, "1234", ClientInfo{})
	for i := 0; i < cap(c.send); i++ {
		require.True(t, c.Send([]byte("x")))
	}
	assert.False(t, c.Send([]byte("overflow")))
	c.closeSend()
	c.closeSend()
}
