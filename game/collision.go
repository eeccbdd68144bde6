package game

import "math"

// CollisionResult 单个 (弹丸, 角色) 对在一个 Tick 内的结果，格挡与命中互斥
type CollisionResult uint8

const (
	Miss CollisionResult = iota
	Blocked
	Hit
)

func (r CollisionResult) String() string {
	switch r {
	case Blocked:
		return "blocked"
	case Hit:
		return "hit"
	default:
		return "miss"
	}
}

// CollidesWithShield 护盾判定：冷却结束、在护盾半径内、在朝向 ±ShieldArc/2 内。
// 命中护盾时反弹弹丸、把弹丸挪到护盾外，并重置冷却。
func CollidesWithShield(p *Projectile, a *Actor) bool {
	if a.ShieldCooldown > 0 {
		return false
	}
	if DistanceSquared(p.X, p.Y, a.WorldX, a.WorldY) > ShieldRadius*ShieldRadius {
		return false
	}
	incidence := math.Atan2(p.Y-a.WorldY, p.X-a.WorldX)
	if math.Abs(AngleDiff(incidence, a.Heading)) > ShieldArc/2 {
		return false
	}
	p.Reflect(incidence)
	out := ShieldRadius + p.Radius + 1
	p.X = a.WorldX + math.Cos(incidence)*out
	p.Y = a.WorldY + math.Sin(incidence)*out
	a.ShieldCooldown = ShieldCooldownTicks
	return true
}

// HitsActor 方块命中盒按圆近似，半径为内方块边长的一半
func HitsActor(p *Projectile, a *Actor, g *Grid) bool {
	r := g.InnerSize() / 2
	return DistanceSquared(p.X, p.Y, a.WorldX, a.WorldY) <= r*r
}

// Resolve 判定一对 (弹丸, 角色)：自己的弹丸不参与；先判护盾，再判直接命中
func Resolve(p *Projectile, a *Actor, g *Grid) CollisionResult {
	if p.ShooterID == a.ID {
		return Miss
	}
	if CollidesWithShield(p, a) {
		return Blocked
	}
	if HitsActor(p, a, g) {
		return Hit
	}
	return Miss
}
