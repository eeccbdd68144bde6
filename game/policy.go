package game

import "math"

// Policy 决策策略：每个 Tick 在输入处理前调用一次，返回要执行的输入
type Policy interface {
	Decide(w *World, self *Actor) []Input
}

// ChasePolicy NPC 策略：节流决策，按主轴朝向目标，对齐后随机前进或开火
type ChasePolicy struct {
	TargetID string
	Interval int

	cooldown int
}

func NewChasePolicy(targetID string, interval int) *ChasePolicy {
	if interval <= 0 {
		interval = NPCDecisionInterval
	}
	return &ChasePolicy{TargetID: targetID, Interval: interval}
}

func (c *ChasePolicy) Decide(w *World, self *Actor) []Input {
	if c.cooldown > 0 {
		c.cooldown--
		return nil
	}
	c.cooldown = c.Interval

	target := c.target(w, self)
	if target == nil {
		return nil
	}

	desired := FacingToward(self.Cell, target.Cell)
	diff := AngleDiff(desired, self.Heading)
	if math.Abs(diff) > NPCAlignTolerance {
		dir := 1
		if diff < 0 {
			dir = -1
		}
		return []Input{Rotate(dir)}
	}

	if w.rng.Float64() < 0.5 {
		return []Input{Move(1)}
	}
	// 保证 NPC 始终有威胁：没有 orb 就直接补一个
	self.HeldOrb = true
	return []Input{Interact()}
}

// target 目标不存在时改追第一个人类玩家
func (c *ChasePolicy) target(w *World, self *Actor) *Actor {
	if c.TargetID != "" {
		if t, ok := w.Actor(c.TargetID); ok && t != self {
			return t
		}
	}
	for _, a := range w.Actors() {
		if a != self && !a.IsNPC() {
			c.TargetID = a.ID
			return a
		}
	}
	c.TargetID = ""
	return nil
}

// FacingToward 主轴启发：比较两轴格子距离，朝较大的一轴
func FacingToward(from, to Cell) float64 {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if abs(dx) > abs(dy) {
		if dx > 0 {
			return 0
		}
		return math.Pi
	}
	if dy > 0 {
		return math.Pi / 2
	}
	return -math.Pi / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
