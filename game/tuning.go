package game

import "math"

// 世界与实体的调参常量（单位：世界坐标 / Tick）
const (
	DefaultWorldSize = 4000.0
	DefaultTileSize  = 200.0
	TileRatio        = 0.85 // 渲染内方块占格子的比例，也是命中盒来源

	TileKeepProb = 0.7 // 每格保留概率
	OrbProb      = 0.2 // 保留的格子上放置 orb 的概率

	ProjectileSpeed    = 40.0
	ProjectileDecay    = 0.97
	ProjectileLife     = 200
	ProjectileRadius   = 5.0
	ReflectSpeedFactor = 0.9

	ShieldRadius        = 140.0
	ShieldArc           = math.Pi * (100.0 / 180.0) // 100°
	ShieldCooldownTicks = 24                        // 60Hz 下约 0.4s
	HitBlinkTicks       = 30

	DefaultHeading = -math.Pi / 2 // 初始朝北

	NPCDecisionInterval = 20
	NPCAlignTolerance   = 0.01
	NPCIDPrefix         = "npc_"
)
