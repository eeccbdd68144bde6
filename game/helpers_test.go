package game

import "math"

// testWorld 用给定格子构造一个确定的小地图
func testWorld(cells ...Cell) *World {
	tiles := make(map[Cell]Tile, len(cells))
	for _, c := range cells {
		tiles[c] = Tile{}
	}
	return NewWorldWithGrid(1, NewGridWithTiles(DefaultWorldSize, DefaultTileSize, tiles))
}

func stationary(x, y float64, shooter string) *Projectile {
	p := NewProjectile(x, y, 0, shooter)
	p.Speed = 0
	return p
}

func deg(d float64) float64 { return d * math.Pi / 180 }
