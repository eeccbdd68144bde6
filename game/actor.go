package game

import (
	"math"
	"strings"
)

// Actor 玩家或 NPC。Policy 为 nil 表示由外部输入驱动的人类玩家
type Actor struct {
	ID      string
	Cell    Cell
	WorldX  float64
	WorldY  float64
	Heading float64
	HeldOrb bool

	ShieldCooldown int // 剩余 Tick，>0 时护盾无法格挡
	HitBlink       int // 受击闪烁，纯表现
	Streak         int

	Policy Policy
}

func NewActor(id string, cell Cell, g *Grid) *Actor {
	a := &Actor{ID: id, Cell: cell, Heading: DefaultHeading}
	a.syncWorldPos(g)
	return a
}

// IsNPC 是否由策略驱动
func (a *Actor) IsNPC() bool {
	return a.Policy != nil || strings.HasPrefix(a.ID, NPCIDPrefix)
}

// syncWorldPos 任何格子变更后都要调用
func (a *Actor) syncWorldPos(g *Grid) {
	a.WorldX, a.WorldY = g.WorldPos(a.Cell)
}

// Move 沿朝向前进/后退一格；目标格不存在时原地不动
func (a *Actor) Move(w *World, dir int) Outcome {
	if dir != 1 && dir != -1 {
		return RejectedBadInput
	}
	dx := int(math.Round(math.Cos(a.Heading)))
	dy := int(math.Round(math.Sin(a.Heading)))
	next := Cell{X: a.Cell.X + dx*dir, Y: a.Cell.Y + dy*dir}
	if !w.Grid.HasTileAt(next.X, next.Y) {
		return RejectedNoTile
	}
	a.Cell = next
	a.syncWorldPos(w.Grid)
	return Applied
}

// Rotate 旋转 90°，不做角度归一化
func (a *Actor) Rotate(dir int) Outcome {
	if dir != 1 && dir != -1 {
		return RejectedBadInput
	}
	a.Heading += (math.Pi / 2) * float64(dir)
	return Applied
}

// Interact 持有 orb 时投掷，否则尝试拾取脚下的 orb
func (a *Actor) Interact(w *World) Outcome {
	if a.HeldOrb {
		w.AddProjectile(NewProjectile(a.WorldX, a.WorldY, a.Heading, a.ID))
		a.HeldOrb = false
		return Applied
	}
	tile := w.Grid.TileAt(a.Cell.X, a.Cell.Y)
	if tile == nil || !tile.HasOrb {
		return RejectedNoOrb
	}
	tile.HasOrb = false
	a.HeldOrb = true
	return Applied
}

// Respawn 传送到新的随机格子；不清空 orb 与连杀（连杀由碰撞结算负责）
func (a *Actor) Respawn(w *World) {
	a.Cell = w.Spawn()
	a.syncWorldPos(w.Grid)
}

func (a *Actor) decayTimers() {
	if a.ShieldCooldown > 0 {
		a.ShieldCooldown--
	}
	if a.HitBlink > 0 {
		a.HitBlink--
	}
}

// State 对外公开的字段
func (a *Actor) State() PlayerState {
	return PlayerState{GridX: a.Cell.X, GridY: a.Cell.Y, Heading: a.Heading, HeldOrb: a.HeldOrb}
}
