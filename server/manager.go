package server

import (
	"errors"
	"net/http"
	"sort"
	"sync"
)

// ErrManagerClosed 管理器已关闭，不再创建房间
var ErrManagerClosed = errors.New("room manager closed")

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	cfg Config

	mu     sync.RWMutex
	rooms  map[string]*Room
	closed bool
}

var (
	defaultManager *RoomManager
	once           sync.Once
)

func NewRoomManager(cfg Config) *RoomManager {
	return &RoomManager{cfg: cfg.Sanitize(), rooms: make(map[string]*Room)}
}

// InitRoomManager 用给定配置初始化单例，只有第一次调用生效
func InitRoomManager(cfg Config) *RoomManager {
	once.Do(func() {
		defaultManager = NewRoomManager(cfg)
	})
	return defaultManager
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick。
// 配置了快照目录时，先尝试从磁盘恢复
func (m *RoomManager) GetOrCreateRoom(id string) (*Room, error) {
	m.mu.RLock()
	r, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	r = m.newRoom(id)
	m.rooms[id] = r
	r.StartTicker()
	Log.Infow("room created", "room", id, "rooms", len(m.rooms))
	return r, nil
}

func (m *RoomManager) newRoom(id string) *Room {
	path := m.cfg.SnapshotPath(id)
	var r *Room
	if path != "" {
		snap, ok, err := LoadSnapshot(path, m.cfg.SnapshotCodec)
		switch {
		case err != nil:
			Log.Warnw("snapshot ignored", "room", id, "path", path, "err", err)
		case ok:
			restored, err := NewRoomFromSnapshot(id, m.cfg, snap)
			if err != nil {
				Log.Warnw("snapshot restore failed", "room", id, "path", path, "err", err)
			} else {
				Log.Infow("room restored", "room", id, "frame", snap.Frame, "players", len(snap.Players))
				r = restored
			}
		}
		if r == nil {
			r = NewRoom(id, m.cfg)
		}
		r.OnStop = func(r *Room) {
			codec := m.cfg.SnapshotCodec
			if err := SaveSnapshot(path, r.Snapshot(), codec); err != nil {
				Log.Errorw("snapshot save failed", "room", r.ID, "path", path, "err", err)
				return
			}
			Log.Infow("snapshot saved", "room", r.ID, "path", path, "codec", codec)
		}
		return r
	}
	return NewRoom(id, m.cfg)
}

// Room 查找已存在的房间
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// RoomInfo 房间列表条目
type RoomInfo struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
}

// ListRooms 按 id 排序
func (m *RoomManager) ListRooms() []RoomInfo {
	m.mu.RLock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, RoomInfo{ID: id, Players: r.NumPlayers()})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shutdown 停止所有房间（各自保存快照并关闭连接）
func (m *RoomManager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, r := range rooms {
		wg.Add(1)
		go func(r *Room) {
			defer wg.Done()
			r.Stop()
		}(r)
	}
	wg.Wait()
}

func (m *RoomManager) roomParam(r *http.Request) string {
	if id := r.URL.Query().Get("room"); id != "" {
		return id
	}
	return m.cfg.DefaultRoom
}
