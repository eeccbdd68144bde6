package game

import "math"

// NormalizeAngle 将角度规约到 [-π, π]
func NormalizeAngle(a float64) float64 {
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// AngleDiff 返回 a-b 的带符号差值，范围 [-π, π]
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}

func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}
