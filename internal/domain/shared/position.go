package shared

import "math"

// Position is a point on the flood map grid
type Position struct {
	X float64
	Y float64
}

// DistanceTo calculates Euclidean distance to another position
func (p Position) DistanceTo(other Position) float64 {
	dx := other.X - p.X
	dy := other.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Tile returns the integer grid cell containing the position
func (p Position) Tile() Tile {
	return Tile{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// Tile is a single cell of the flood map
type Tile struct {
	X int
	Y int
}
