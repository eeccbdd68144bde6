package server

import "time"

// PlayerID 表示玩家唯一标识（与 World 中的角色 id 相同）
type PlayerID string

// Conn 房间对连接的最小需求：非阻塞入队与关闭
type Conn interface {
	Enqueue(b []byte)
	Close()
}

// Player 房间内一个在线连接与其角色的绑定
type Player struct {
	ID       PlayerID
	Conn     Conn
	JoinedAt time.Time
}
