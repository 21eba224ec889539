package hub

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"yihuitong/internal/metrics"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// 内部消息类型
const (
	msgRegister   = "register"
	msgUnregister = "unregister"
	msgClient     = "message"
)

// HubMessage 定义了在 Hub 内部通道传递的消息
type HubMessage struct {
	Type    string  // "register", "unregister", "message"
	Client  *Client // 消息来源客户端
	RawData []byte  // 仅用于 "message"
}

// EventHandler 接收房间内客户端的进出与消息事件。
// 回调在 Hub 的事件循环中执行 (ClientMessage 除外)，实现不能阻塞。
type EventHandler interface {
	ClientJoined(client *Client, online int)
	ClientLeft(client *Client, online int)
	ClientMessage(client *Client, message []byte)
}

// Hub 维护各房间的活跃客户端，并向房间广播消息
type Hub struct {
	messageChan chan HubMessage

	// map[roomNumber]map[*Client]bool
	rooms   map[string]map[*Client]bool
	roomsMu sync.RWMutex

	handlerMu sync.RWMutex
	handler   EventHandler

	metrics *metrics.Metrics
}

// NewHub 创建并返回一个新的 Hub 实例。事件处理者通过 SetEventHandler 注入。
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		rooms:       make(map[string]map[*Client]bool),
		metrics:     m,
	}
}

// SetEventHandler 设置事件处理者
func (h *Hub) SetEventHandler(handler EventHandler) {
	h.handlerMu.Lock()
	h.handler = handler
	h.handlerMu.Unlock()
}

func (h *Hub) eventHandler() EventHandler {
	h.handlerMu.RLock()
	defer h.handlerMu.RUnlock()
	return h.handler
}

// Run 启动 Hub 的主事件循环，直到 ctx 被取消。
func (h *Hub) Run(ctx context.Context) {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Hub is shutting down...")
			return
		case msg := <-h.messageChan:
			switch msg.Type {
			case msgRegister:
				h.registerClient(msg.Client)
			case msgUnregister:
				h.unregisterClient(msg.Client)
			case msgClient:
				go h.handleClientMessage(msg)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		}
	}
}

// registerClient 把客户端加入房间并通知事件处理者
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	logCtx := client.logFields().WithField("action", "registerClient")

	h.roomsMu.Lock()
	roomClients, ok := h.rooms[client.roomNumber]
	if !ok {
		roomClients = make(map[*Client]bool)
		h.rooms[client.roomNumber] = roomClients
		logCtx.Info("Client list created for new room")
	}
	roomClients[client] = true
	online := len(roomClients)
	h.roomsMu.Unlock()

	h.metrics.ClientConnected()
	logCtx.WithField("online", online).Info("Client registered to Hub")

	if handler := h.eventHandler(); handler != nil {
		handler.ClientJoined(client, online)
	}
}

// unregisterClient 把客户端移出房间，关闭其发送通道并通知事件处理者
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	logCtx := client.logFields().WithField("action", "unregisterClient")

	h.roomsMu.Lock()
	roomClients, roomExists := h.rooms[client.roomNumber]
	if !roomExists || !roomClients[client] {
		h.roomsMu.Unlock()
		// 房间已被 CloseRoom 清理
		logCtx.Debug("Client not found in room during unregister")
		return
	}
	delete(roomClients, client)
	online := len(roomClients)
	if online == 0 {
		delete(h.rooms, client.roomNumber)
		logCtx.Info("Room empty, removed from Hub")
	}
	h.roomsMu.Unlock()

	client.closeSend()
	h.metrics.ClientDisconnected()
	logCtx.WithField("online", online).Info("Client unregistered from Hub")

	if handler := h.eventHandler(); handler != nil {
		handler.ClientLeft(client, online)
	}
}

func (h *Hub) handleClientMessage(msg HubMessage) {
	if msg.Client == nil {
		return
	}
	handler := h.eventHandler()
	if handler == nil {
		msg.Client.logFields().Debug("No event handler, dropping client message")
		return
	}
	handler.ClientMessage(msg.Client, msg.RawData)
}

// --- 公共方法 ---

// Broadcast 将消息发送给房间内所有客户端。慢客户端会被跳过，不阻塞广播。
func (h *Hub) Broadcast(roomNumber string, message []byte) {
	h.roomsMu.RLock()
	roomClients := h.rooms[roomNumber]
	clientsToSend := make([]*Client, 0, len(roomClients))
	for client := range roomClients {
		clientsToSend = append(clientsToSend, client)
	}
	h.roomsMu.RUnlock()

	if len(clientsToSend) == 0 {
		return
	}

	logCtx := logrus.WithFields(logrus.Fields{
		"room_number":     roomNumber,
		"message_size":    len(message),
		"recipient_count": len(clientsToSend),
	})
	for _, client := range clientsToSend {
		if !client.Send(message) {
			logCtx.WithField("receiver", client.info.DisplayName).Warn("Client send channel full during broadcast, skipping this client")
		}
	}
}

// ClientCount 返回房间当前在线的客户端数量
func (h *Hub) ClientCount(roomNumber string) int {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return len(h.rooms[roomNumber])
}

// CloseRoom 断开房间内所有客户端，不触发 ClientLeft 事件。
func (h *Hub) CloseRoom(roomNumber string) {
	h.roomsMu.Lock()
	roomClients := h.rooms[roomNumber]
	delete(h.rooms, roomNumber)
	h.roomsMu.Unlock()

	for client := range roomClients {
		client.closeSend()
		h.metrics.ClientDisconnected()
	}
	if len(roomClients) > 0 {
		logrus.WithFields(logrus.Fields{
			"room_number": roomNumber,
			"closed":      len(roomClients),
		}).Info("Room closed, clients disconnected")
	}
}

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)，队列已满时返回 false。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		fields := logrus.Fields{"message_type": msg.Type}
		if msg.Client != nil {
			fields["room_number"] = msg.Client.roomNumber
		}
		logrus.WithFields(fields).Warn("Hub message channel full, dropping message")
		return false
	}
}

// Register 请求 Hub 注册客户端
func (h *Hub) Register(client *Client) bool {
	return h.QueueMessage(HubMessage{Type: msgRegister, Client: client})
}
