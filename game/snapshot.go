package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidSnapshot 快照结构校验失败。持久化数据损坏属于真正的错误，必须严格拒绝
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot 可持久化的权威状态。弹丸的速度与剩余寿命不保存，恢复时重置为默认值
type Snapshot struct {
	Frame       int64                     `json:"frame"`
	RngSeed     int64                     `json:"rngSeed"`
	Players     []Entry[PlayerState]      `json:"players"`
	Projectiles []Entry[ProjectileState]  `json:"projectiles"`
	Leaderboard []Entry[LeaderboardEntry] `json:"leaderboard"`
}

// Codec 快照编码格式
type Codec string

const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

func ParseCodec(s string) (Codec, error) {
	switch c := Codec(strings.ToLower(strings.TrimSpace(s))); c {
	case CodecJSON, CodecMsgpack:
		return c, nil
	case "":
		return CodecMsgpack, nil
	default:
		return "", fmt.Errorf("unknown snapshot codec %q", s)
	}
}

// Snapshot 序列化当前状态
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Frame:       w.Frame,
		RngSeed:     w.Seed,
		Players:     make([]Entry[PlayerState], 0, w.actors.len()),
		Projectiles: make([]Entry[ProjectileState], 0, w.projectiles.len()),
		Leaderboard: w.LeaderboardEntries(),
	}
	for _, a := range w.Actors() {
		st := a.State()
		s.Players = append(s.Players, Entry[PlayerState]{ID: a.ID, Value: &st})
	}
	for _, p := range w.Projectiles() {
		st := p.State()
		s.Projectiles = append(s.Projectiles, Entry[ProjectileState]{ID: p.ID, Value: &st})
	}
	return s
}

// Validate 严格校验结构
func (s Snapshot) Validate() error {
	if s.Frame < 0 {
		return fmt.Errorf("%w: negative frame %d", ErrInvalidSnapshot, s.Frame)
	}
	if s.Players == nil || s.Projectiles == nil || s.Leaderboard == nil {
		return fmt.Errorf("%w: players, projectiles and leaderboard are required", ErrInvalidSnapshot)
	}
	seen := make(map[string]bool, len(s.Players))
	for _, e := range s.Players {
		if err := checkEntry("player", e.ID, e.Value == nil, seen); err != nil {
			return err
		}
		if !finite(e.Value.Heading) {
			return fmt.Errorf("%w: player %q heading is not finite", ErrInvalidSnapshot, e.ID)
		}
	}
	seen = make(map[string]bool, len(s.Projectiles))
	for _, e := range s.Projectiles {
		if err := checkEntry("projectile", e.ID, e.Value == nil, seen); err != nil {
			return err
		}
		if !finite(e.Value.X) || !finite(e.Value.Y) || !finite(e.Value.Heading) {
			return fmt.Errorf("%w: projectile %q has non-finite kinematics", ErrInvalidSnapshot, e.ID)
		}
		if e.Value.ShooterID == "" {
			return fmt.Errorf("%w: projectile %q has empty shooterId", ErrInvalidSnapshot, e.ID)
		}
	}
	seen = make(map[string]bool, len(s.Leaderboard))
	for _, e := range s.Leaderboard {
		if err := checkEntry("leaderboard", e.ID, e.Value == nil, seen); err != nil {
			return err
		}
		if e.Value.Kills < 0 || e.Value.Streak < 0 {
			return fmt.Errorf("%w: leaderboard %q has negative counters", ErrInvalidSnapshot, e.ID)
		}
	}
	return nil
}

func checkEntry(kind, id string, null bool, seen map[string]bool) error {
	if id == "" {
		return fmt.Errorf("%w: %s entry with empty id", ErrInvalidSnapshot, kind)
	}
	if null {
		return fmt.Errorf("%w: %s %q has null payload", ErrInvalidSnapshot, kind, id)
	}
	if seen[id] {
		return fmt.Errorf("%w: duplicate %s %q", ErrInvalidSnapshot, kind, id)
	}
	seen[id] = true
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Restore 由快照重建 World：地图按 RngSeed 重新生成，角色世界坐标由格子重算，
// 弹丸使用默认速度与寿命。npc_ 前缀的角色恢复为 NPC。
func Restore(s Snapshot, cfg Config) (*World, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cfg.Seed = s.RngSeed
	w := NewWorld(cfg)
	w.Frame = s.Frame
	for _, e := range s.Leaderboard {
		v := *e.Value
		w.leaderboard.set(e.ID, &v)
	}
	for _, e := range s.Players {
		var policy Policy
		if strings.HasPrefix(e.ID, NPCIDPrefix) {
			policy = NewChasePolicy("", NPCDecisionInterval)
		}
		cell := Cell{X: e.Value.GridX, Y: e.Value.GridY}
		if !w.Grid.HasTileAt(cell.X, cell.Y) {
			return nil, fmt.Errorf("%w: player %q at (%d,%d) is not on a tile", ErrInvalidSnapshot, e.ID, cell.X, cell.Y)
		}
		a := w.placeActor(e.ID, cell, policy)
		a.Heading = e.Value.Heading
		a.HeldOrb = e.Value.HeldOrb
	}
	for _, e := range s.Projectiles {
		p := NewProjectile(e.Value.X, e.Value.Y, e.Value.Heading, e.Value.ShooterID)
		p.ID = e.ID
		w.AddProjectile(p)
	}
	return w, nil
}

// EncodeSnapshot 按编码格式序列化
func EncodeSnapshot(s Snapshot, codec Codec) ([]byte, error) {
	switch codec {
	case CodecJSON:
		return json.Marshal(s)
	case CodecMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(&s); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown snapshot codec %q", codec)
	}
}

// DecodeSnapshot 反序列化并校验
func DecodeSnapshot(b []byte, codec Codec) (Snapshot, error) {
	var s Snapshot
	switch codec {
	case CodecJSON:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		var doc any
		if err := json.Unmarshal(b, &doc); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		if err := requireFields(doc); err != nil {
			return Snapshot{}, err
		}
	case CodecMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(b))
		dec.SetCustomStructTag("json")
		dec.DisallowUnknownFields(true)
		if err := dec.Decode(&s); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		var doc any
		if err := msgpack.Unmarshal(b, &doc); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		if err := requireFields(doc); err != nil {
			return Snapshot{}, err
		}
	default:
		return Snapshot{}, fmt.Errorf("unknown snapshot codec %q", codec)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// 快照中每个字段都必须显式出现，缺失不能按零值处理
var (
	snapshotFields = []string{"frame", "rngSeed", "players", "projectiles", "leaderboard"}
	entryFields    = []struct {
		list   string
		fields []string
	}{
		{"players", []string{"gridX", "gridY", "heading", "heldOrb"}},
		{"projectiles", []string{"x", "y", "heading", "shooterId"}},
		{"leaderboard", []string{"kills", "streak"}},
	}
)

// requireFields 在通用解码结果上检查必需字段（json 与 msgpack 共用）。
// 类型错误已由结构体解码报告，这里只关心缺失
func requireFields(doc any) error {
	top, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: snapshot must be an object", ErrInvalidSnapshot)
	}
	if err := hasKeys("snapshot", top, snapshotFields); err != nil {
		return err
	}
	for _, ef := range entryFields {
		entries, _ := top[ef.list].([]any)
		for _, raw := range entries {
			pair, ok := raw.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			payload, ok := pair[1].(map[string]any)
			if !ok {
				continue
			}
			if err := hasKeys(fmt.Sprintf("%s %v", ef.list, pair[0]), payload, ef.fields); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasKeys(what string, m map[string]any, keys []string) error {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return fmt.Errorf("%w: %s is missing %q", ErrInvalidSnapshot, what, k)
		}
	}
	return nil
}
