package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
)

// ClientInfo 是连接建立时确定的客户端身份。
type ClientInfo struct {
	SessionID   string
	DisplayName string
	Email       string
	Role        domain.Role
}

// Client 代表一个连接到 Hub 的 WebSocket 客户端。
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	roomNumber string
	info       ClientInfo
	send       chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient 创建一个新的 Client 实例
func NewClient(hub *Hub, conn *websocket.Conn, roomNumber string, info ClientInfo) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		roomNumber: roomNumber,
		info:       info,
		send:       make(chan []byte, 256),
	}
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// Send 非阻塞地把消息放入发送队列，通道已满或已关闭时返回 false。
func (c *Client) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend 关闭发送通道，WritePump 随后发送关闭帧并退出。可重复调用。
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump 将消息从 WebSocket 连接泵送到 Hub 的 messageChan。
func (c *Client) ReadPump() {
	logCtx := c.logFields()
	defer func() {
		select {
		case c.hub.messageChan <- HubMessage{Type: msgUnregister, Client: c}:
		case <-time.After(1 * time.Second):
			logCtx.Warn("Timeout sending unregister message to Hub channel")
		}
		c.conn.Close()
		logCtx.Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}

		if messageType != websocket.TextMessage {
			logCtx.Debugf("Received non-text message type: %d", messageType)
			continue
		}
		logCtx.Debugf("Received raw message (size: %d)", len(message))
		// 队列满时丢弃
		c.hub.QueueMessage(HubMessage{Type: msgClient, Client: c, RawData: message})
	}
}

// WritePump 将消息从 send 通道泵送到 WebSocket 连接，并定期发送 Ping。
func (c *Client) WritePump() {
	logCtx := c.logFields()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Info("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				logCtx.Info("Hub closed send channel")
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}

func (c *Client) logFields() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"room_number": c.roomNumber,
		"user":        c.info.Email,
		"role":        c.info.Role,
	})
}

func (c *Client) RoomNumber() string { return c.roomNumber }
func (c *Client) Info() ClientInfo   { return c.info }
func (c *Client) CloseConn() {
	if c.conn != nil {
		c.conn.Close()
	}
}
