package server

import (
	"encoding/json"
	"net/http"

	"orbarena/game"
)

// adminConfig 可热更新的房间参数
type adminConfig struct {
	NPCs                *int `json:"npcs,omitempty"`
	NPCDecisionInterval *int `json:"npcDecisionInterval,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// lookupRoom 管理接口只访问已存在的房间，不会顺带创建
func (m *RoomManager) lookupRoom(w http.ResponseWriter, r *http.Request) (*Room, bool) {
	roomID := m.roomParam(r)
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return nil, false
	}
	return room, true
}

// HandleAdminConfig 提供房间配置的读取与更新（热更新 NPC 参数）
// GET /admin/config?room=room-1  返回当前配置
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	room, ok := m.lookupRoom(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		var cur adminConfig
		err := room.Do(func(room *Room) {
			npcs, interval := room.npcs, room.cfg.NPCDecisionInterval
			cur = adminConfig{NPCs: &npcs, NPCDecisionInterval: &interval}
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, cur)
	case http.MethodPost:
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var body adminConfig
		if err := dec.Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if (body.NPCs != nil && *body.NPCs < 0) || (body.NPCDecisionInterval != nil && *body.NPCDecisionInterval <= 0) {
			http.Error(w, "invalid value", http.StatusBadRequest)
			return
		}
		count, interval := -1, 0
		if body.NPCs != nil {
			count = *body.NPCs
		}
		if body.NPCDecisionInterval != nil {
			interval = *body.NPCDecisionInterval
		}
		if err := room.Do(func(room *Room) { room.SetNPCs(count, interval) }); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		Log.Infow("config updated", "room", room.ID, "npcs", count, "npcDecisionInterval", interval)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=room-1
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	room, ok := m.lookupRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room":    room.ID,
		"players": room.NumPlayers(),
		"metrics": room.metrics.Snapshot(),
	})
}

// HandleAdminSnapshot 导出房间快照
// GET /admin/snapshot?room=room-1&codec=json|msgpack
func (m *RoomManager) HandleAdminSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	room, ok := m.lookupRoom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("codec")
	if q == "" {
		q = string(game.CodecJSON)
	}
	codec, err := game.ParseCodec(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var snap game.Snapshot
	if err := room.Do(func(room *Room) { snap = room.Snapshot() }); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	b, err := game.EncodeSnapshot(snap, codec)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if codec == game.CodecJSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "application/msgpack")
	}
	_, _ = w.Write(b)
}

// HandleRooms 列出当前房间
func (m *RoomManager) HandleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": m.ListRooms()})
}
