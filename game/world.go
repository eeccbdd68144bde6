package game

import (
	"fmt"
	"math/rand"
)

// Config 构建 World 的参数
type Config struct {
	WorldSize float64
	TileSize  float64
	Seed      int64
}

func (c Config) withDefaults() Config {
	if c.WorldSize <= 0 {
		c.WorldSize = DefaultWorldSize
	}
	if c.TileSize <= 0 {
		c.TileSize = DefaultTileSize
	}
	return c
}

// LeaderboardEntry 每个玩家的击杀与连杀
type LeaderboardEntry struct {
	Kills  int `json:"kills"`
	Streak int `json:"streak"`
}

// KillEvent 每次确认命中恰好产生一次
type KillEvent struct {
	KillerID string `json:"killerId"`
	VictimID string `json:"victimId"`
	Streak   int    `json:"streak"`
}

// World 房间内唯一的权威状态，只能在房间的 Tick 协程里读写
type World struct {
	Grid  *Grid
	Frame int64
	Seed  int64

	rng         *rand.Rand
	actors      ordered[*Actor]
	projectiles ordered[*Projectile]
	leaderboard ordered[*LeaderboardEntry]
	projSeq     int64
	spawner     func() Cell
}

// NewWorld 以 Seed 初始化随机数并生成地图
func NewWorld(cfg Config) *World {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))
	return newWorld(cfg.Seed, rng, GenerateGrid(cfg.WorldSize, cfg.TileSize, rng))
}

// NewWorldWithGrid 使用现成地图（测试或工具）
func NewWorldWithGrid(seed int64, g *Grid) *World {
	return newWorld(seed, rand.New(rand.NewSource(seed)), g)
}

func newWorld(seed int64, rng *rand.Rand, g *Grid) *World {
	return &World{
		Grid:        g,
		Seed:        seed,
		rng:         rng,
		actors:      newOrdered[*Actor](),
		projectiles: newOrdered[*Projectile](),
		leaderboard: newOrdered[*LeaderboardEntry](),
	}
}

// SetSpawner 覆盖出生点选择（nil 恢复默认的随机格子）
func (w *World) SetSpawner(fn func() Cell) {
	w.spawner = fn
}

// Spawn 选择出生格子
func (w *World) Spawn() Cell {
	if w.spawner != nil {
		return w.spawner()
	}
	return w.Grid.RandomSpawn(w.rng)
}

// AddActor 在随机格子生成角色，并建立排行榜条目
func (w *World) AddActor(id string, policy Policy) *Actor {
	return w.AddActorAt(id, w.Spawn(), policy)
}

func (w *World) AddActorAt(id string, cell Cell, policy Policy) *Actor {
	a := w.placeActor(id, cell, policy)
	if _, ok := w.leaderboard.get(id); !ok {
		w.leaderboard.set(id, &LeaderboardEntry{})
	}
	return a
}

// placeActor 只登记角色；连杀从已有排行榜条目同步
func (w *World) placeActor(id string, cell Cell, policy Policy) *Actor {
	a := NewActor(id, cell, w.Grid)
	a.Policy = policy
	w.actors.set(id, a)
	if e, ok := w.leaderboard.get(id); ok {
		a.Streak = e.Streak
	}
	return a
}

// RemoveActor 断线时移除角色及其排行榜条目
func (w *World) RemoveActor(id string) bool {
	w.leaderboard.del(id)
	return w.actors.del(id)
}

func (w *World) Actor(id string) (*Actor, bool) {
	return w.actors.get(id)
}

// Actors 按加入顺序返回
func (w *World) Actors() []*Actor {
	return w.actors.values()
}

func (w *World) NumActors() int { return w.actors.len() }

// AddProjectile 分配 id 并登记弹丸
func (w *World) AddProjectile(p *Projectile) string {
	if p.ID == "" {
		for {
			w.projSeq++
			p.ID = fmt.Sprintf("%s-%d", p.ShooterID, w.projSeq)
			if _, taken := w.projectiles.get(p.ID); !taken {
				break
			}
		}
	}
	w.projectiles.set(p.ID, p)
	return p.ID
}

func (w *World) RemoveProjectile(id string) bool {
	return w.projectiles.del(id)
}

func (w *World) Projectile(id string) (*Projectile, bool) {
	return w.projectiles.get(id)
}

func (w *World) Projectiles() []*Projectile {
	return w.projectiles.values()
}

func (w *World) NumProjectiles() int { return w.projectiles.len() }

func (w *World) Leaderboard(id string) (*LeaderboardEntry, bool) {
	return w.leaderboard.get(id)
}

// LeaderboardEntries 排行榜快照（值拷贝）
func (w *World) LeaderboardEntries() []Entry[LeaderboardEntry] {
	out := make([]Entry[LeaderboardEntry], 0, w.leaderboard.len())
	for _, id := range w.leaderboard.ids() {
		e, _ := w.leaderboard.get(id)
		v := *e
		out = append(out, Entry[LeaderboardEntry]{ID: id, Value: &v})
	}
	return out
}

// Apply 立即执行一条输入；未知角色直接忽略
func (w *World) Apply(actorID string, in Input) Outcome {
	a, ok := w.actors.get(actorID)
	if !ok {
		return RejectedUnknownActor
	}
	switch in.Kind {
	case InputMove:
		return a.Move(w, in.Dir)
	case InputRotate:
		return a.Rotate(in.Dir)
	case InputInteract:
		return a.Interact(w)
	default:
		return RejectedBadInput
	}
}
