package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"orbarena/game"
)

// ErrBadMessage 入站消息无法识别，直接丢弃，不会进入 Tick
var ErrBadMessage = errors.New("bad message")

// 入站输入的 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"move","dir":1}、{"type":"interact"}
type InputMessage struct {
	Type string `json:"type"`
	Dir  *int   `json:"dir,omitempty"`
	Seq  int64  `json:"seq,omitempty"` // 客户端本地序列号，用于去重
}

// DecodeInput 按类型分发解析；dir 只能是 1 或 -1
func DecodeInput(b []byte) (InputMessage, game.Input, error) {
	var im InputMessage
	if err := json.Unmarshal(b, &im); err != nil {
		return im, game.Input{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	switch strings.ToLower(im.Type) {
	case "move", "rotate":
		if im.Dir == nil || (*im.Dir != 1 && *im.Dir != -1) {
			return im, game.Input{}, fmt.Errorf("%w: %s needs dir 1 or -1", ErrBadMessage, im.Type)
		}
		if strings.ToLower(im.Type) == "move" {
			return im, game.Move(*im.Dir), nil
		}
		return im, game.Rotate(*im.Dir), nil
	case "interact":
		return im, game.Interact(), nil
	default:
		return im, game.Input{}, fmt.Errorf("%w: unknown type %q", ErrBadMessage, im.Type)
	}
}
