package server

import (
	"encoding/json"
	"fmt"

	"orbarena/game"
)

// 服务端下行事件名
const (
	EventInit        = "init"
	EventState       = "state:update"
	EventKilled      = "player:killed"
	EventLeaderboard = "leaderboard"
)

// Envelope 下行消息外层
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// InitMessage 新连接加入后单独下发：分配的 id 以及完整状态，避免等待增量
type InitMessage struct {
	ID    string         `json:"id"`
	Frame int64          `json:"frame"`
	State *game.Snapshot `json:"state,omitempty"`
}

// LeaderboardMessage 击杀后广播的排行榜
type LeaderboardMessage struct {
	Entries []game.Entry[game.LeaderboardEntry] `json:"entries"`
}

// EncodeEvent 编码为 {"type":..., "data":...}
func EncodeEvent(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, fmt.Errorf("encode: empty event type")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: event, Data: data})
}

// DecodeEvent 解析下行消息（客户端与测试使用）
func DecodeEvent[T any](b []byte) (string, T, error) {
	var out T
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return "", out, err
	}
	if len(env.Data) == 0 {
		return env.Type, out, fmt.Errorf("empty payload for type %q", env.Type)
	}
	err := json.Unmarshal(env.Data, &out)
	return env.Type, out, err
}
