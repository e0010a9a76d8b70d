package simulation

import (
	"math"
	"sort"
	"sync"

	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

// routeSampleStep is the spacing, in tiles, of the points checked along a route
const routeSampleStep = 0.5

// FloodMap tracks which grid tiles are under water
type FloodMap struct {
	mu    sync.RWMutex
	tiles map[shared.Tile]bool
}

// NewFloodMap creates a map with the given tiles flooded
func NewFloodMap(tiles ...shared.Tile) *FloodMap {
	f := &FloodMap{tiles: make(map[shared.Tile]bool, len(tiles))}
	for _, t := range tiles {
		f.tiles[t] = true
	}
	return f
}

// Flood marks a tile as flooded
func (f *FloodMap) Flood(tile shared.Tile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tiles[tile] = true
}

// Recede clears a flooded tile
func (f *FloodMap) Recede(tile shared.Tile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tiles, tile)
}

// IsFlooded reports whether the tile is flooded
func (f *FloodMap) IsFlooded(tile shared.Tile) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tiles[tile]
}

// Count returns the number of flooded tiles
func (f *FloodMap) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tiles)
}

// Tiles returns the flooded tiles ordered by row, then column
func (f *FloodMap) Tiles() []shared.Tile {
	f.mu.RLock()
	result := make([]shared.Tile, 0, len(f.tiles))
	for t := range f.tiles {
		result = append(result, t)
	}
	f.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Y != result[j].Y {
			return result[i].Y < result[j].Y
		}
		return result[i].X < result[j].X
	})
	return result
}

// LineBlocked samples the straight line between two points and reports whether it
// crosses a flooded tile. The tiles the endpoints stand on are not checked.
func (f *FloodMap) LineBlocked(from, to shared.Position) bool {
	start, end := from.Tile(), to.Tile()
	distance := from.DistanceTo(to)
	steps := int(math.Ceil(distance / routeSampleStep))

	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.tiles) == 0 {
		return false
	}
	for i := 1; i < steps; i++ {
		frac := float64(i) / float64(steps)
		p := shared.Position{
			X: from.X + (to.X-from.X)*frac,
			Y: from.Y + (to.Y-from.Y)*frac,
		}
		tile := p.Tile()
		if tile == start || tile == end {
			continue
		}
		if f.tiles[tile] {
			return true
		}
	}
	return false
}
