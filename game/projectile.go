package game

import "math"

// Projectile 弹道实体：速度逐 Tick 衰减，寿命耗尽后移除
type Projectile struct {
	ID        string
	X, Y      float64
	Heading   float64
	Speed     float64
	Life      int
	Radius    float64
	ShooterID string
}

func NewProjectile(x, y, heading float64, shooterID string) *Projectile {
	return &Projectile{
		X:         x,
		Y:         y,
		Heading:   heading,
		Speed:     ProjectileSpeed,
		Life:      ProjectileLife,
		Radius:    ProjectileRadius,
		ShooterID: shooterID,
	}
}

// Advance 推进一个 Tick，返回 true 表示已过期，调用方负责移除
func (p *Projectile) Advance() bool {
	p.Speed *= ProjectileDecay
	p.X += math.Cos(p.Heading) * p.Speed
	p.Y += math.Sin(p.Heading) * p.Speed
	p.Life--
	return p.Life <= 0
}

// Reflect 沿入射方向反弹并减速；不改变寿命。
// 调用方需把弹丸挪到护盾半径之外，否则下一 Tick 会再次触发。
func (p *Projectile) Reflect(incidence float64) {
	p.Heading = incidence + math.Pi
	p.Speed *= ReflectSpeedFactor
}

// State 对外公开的字段
func (p *Projectile) State() ProjectileState {
	return ProjectileState{X: p.X, Y: p.Y, Heading: p.Heading, ShooterID: p.ShooterID}
}
