package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMsgSize = 1 << 12 // 入站只有小的 JSON 输入
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClientConn(ws *websocket.Conn, buffer int) *ClientConn {
	if buffer <= 0 {
		buffer = DefaultConfig().SendBuffer
	}
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, buffer),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃新消息（防止阻塞 Tick）
	}
}

// Close 关闭发送队列，写协程发完剩余消息后关闭底层连接。可重复调用
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定时 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端输入，解析后注入房间
func (c *ClientConn) readPump(room *Room, playerID PlayerID) {
	defer c.ws.Close()
	// 读泵退出时，通知房间在 Tick 线程中移除该玩家
	defer room.RequestLeave(playerID)
	c.ws.SetReadLimit(maxMsgSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	var lastSeq int64
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("read error", "room", room.ID, "player", playerID, "err", err)
			}
			return
		}
		im, in, err := DecodeInput(payload)
		if err != nil {
			room.metrics.IncBadMessage()
			Log.Debugw("bad message", "room", room.ID, "player", playerID, "err", err)
			continue
		}
		// 带序列号的输入只接受递增的
		if im.Seq > 0 {
			if im.Seq <= lastSeq {
				room.metrics.IncOldSeqIgnored()
				continue
			}
			lastSeq = im.Seq
		}
		room.OnInput(playerID, in)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：?room=room-1&player=alice（player 可选，用于重连）
func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := m.roomParam(r)
	if !validRoomID(roomID) {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}
	room, err := m.GetOrCreateRoom(roomID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade error", "err", err)
		return
	}

	client := NewClientConn(ws, m.cfg.SendBuffer)
	// 写协程先启动，init 消息才能尽快发出
	go client.writePump()
	id, err := room.JoinPlayer(client, PlayerID(r.URL.Query().Get("player")))
	if err != nil {
		if errors.Is(err, ErrRoomStopped) {
			Log.Infow("join rejected, room stopped", "room", roomID)
		}
		client.Close()
		return
	}
	go client.readPump(room, id)
}
