package game

import (
	"math/rand"
	"sort"

	"github.com/kamstrup/intmap"
)

// Cell 整数格子坐标
type Cell struct {
	X int
	Y int
}

// Tile 单个可行走格子
type Tile struct {
	HasOrb bool
}

// Grid 静态稀疏地图：构建后格子集合不变，只有 orb 会被拾取消耗
type Grid struct {
	WorldSize float64
	TileSize  float64
	TileRatio float64

	tiles *intmap.Map[uint64, *Tile]
	keys  []Cell // 插入顺序，用于均匀随机出生点
}

func cellKey(x, y int) uint64 {
	return uint64(uint32(int32(x)))<<32 | uint64(uint32(int32(y)))
}

func newEmptyGrid(worldSize, tileSize float64) *Grid {
	return &Grid{
		WorldSize: worldSize,
		TileSize:  tileSize,
		TileRatio: TileRatio,
		tiles:     intmap.New[uint64, *Tile](256),
	}
}

// GenerateGrid 按概率生成稀疏地图，原点总是存在且没有 orb
func GenerateGrid(worldSize, tileSize float64, rng *rand.Rand) *Grid {
	g := newEmptyGrid(worldSize, tileSize)
	limit := g.MaxCoord()
	for gx := -limit; gx < limit; gx++ {
		for gy := -limit; gy < limit; gy++ {
			if rng.Float64() > 1-TileKeepProb {
				g.put(gx, gy, rng.Float64() > 1-OrbProb)
			}
		}
	}
	g.put(0, 0, false)
	return g
}

// NewGridWithTiles 用给定格子构建地图（测试与工具使用），原点同样会被补上。
// 格子按坐标排序插入，保证随机出生点可复现。
func NewGridWithTiles(worldSize, tileSize float64, tiles map[Cell]Tile) *Grid {
	g := newEmptyGrid(worldSize, tileSize)
	g.put(0, 0, tiles[Cell{}].HasOrb)
	cells := make([]Cell, 0, len(tiles))
	for c := range tiles {
		if c != (Cell{}) {
			cells = append(cells, c)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].X != cells[j].X {
			return cells[i].X < cells[j].X
		}
		return cells[i].Y < cells[j].Y
	})
	for _, c := range cells {
		g.put(c.X, c.Y, tiles[c].HasOrb)
	}
	return g
}

func (g *Grid) put(x, y int, hasOrb bool) {
	k := cellKey(x, y)
	if t, ok := g.tiles.Get(k); ok {
		t.HasOrb = hasOrb
		return
	}
	g.tiles.Put(k, &Tile{HasOrb: hasOrb})
	g.keys = append(g.keys, Cell{X: x, Y: y})
}

func (g *Grid) HasTileAt(x, y int) bool {
	return g.tiles.Has(cellKey(x, y))
}

// TileAt 返回格子指针，不存在时返回 nil（视为墙）
func (g *Grid) TileAt(x, y int) *Tile {
	t, ok := g.tiles.Get(cellKey(x, y))
	if !ok {
		return nil
	}
	return t
}

// Len 格子数量
func (g *Grid) Len() int { return g.tiles.Len() }

// Cells 按插入顺序返回全部格子坐标（副本）
func (g *Grid) Cells() []Cell {
	return append([]Cell(nil), g.keys...)
}

// RandomSpawn 在现有格子中均匀随机选择；空地图退化为原点
func (g *Grid) RandomSpawn(rng *rand.Rand) Cell {
	if len(g.keys) == 0 {
		return Cell{}
	}
	return g.keys[rng.Intn(len(g.keys))]
}

// InnerSize 命中盒边长（圆近似的直径）
func (g *Grid) InnerSize() float64 {
	return g.TileSize * g.TileRatio
}

func (g *Grid) MaxCoord() int {
	return int(g.WorldSize / g.TileSize / 2)
}

func (g *Grid) WorldHalf() float64 {
	return g.WorldSize / 2
}

// WorldPos 格子到世界坐标的纯函数
func (g *Grid) WorldPos(c Cell) (float64, float64) {
	return float64(c.X) * g.TileSize, float64(c.Y) * g.TileSize
}
