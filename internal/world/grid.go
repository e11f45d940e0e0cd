package world

import (
	"math"

	"cogentcore.org/core/math32"

	"github.com/orbitforge/client/internal/core/ecs"
)

// Grid buckets entities into square cells on the X/Z plane so radius
// queries only visit nearby cells. Height is ignored for bucketing; callers
// do the exact distance filtering.
// Accessed only from the game loop goroutine, no locks.
type Grid struct {
	size  float32
	cells map[cellKey]map[ecs.EntityID]struct{}
	where map[ecs.EntityID]cellKey
}

// maxCell bounds cell coordinates so huge query radii stay in int32 range.
const maxCell = 1 << 30

type cellKey struct {
	cx int32
	cz int32
}

func NewGrid(cellSize float32) *Grid {
	return &Grid{
		size:  cellSize,
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
		where: make(map[ecs.EntityID]cellKey),
	}
}

func (g *Grid) toCell(v float32) int32 {
	c := math32.Floor(v / g.size)
	switch {
	case math.IsNaN(float64(c)):
		return 0
	case c < -maxCell:
		return -maxCell
	case c > maxCell:
		return maxCell
	}
	return int32(c)
}

func (g *Grid) key(pos math32.Vector3) cellKey {
	return cellKey{cx: g.toCell(pos.X), cz: g.toCell(pos.Z)}
}

// Add places an entity into the grid, moving it if already present.
func (g *Grid) Add(id ecs.EntityID, pos math32.Vector3) {
	g.Move(id, pos)
}

// Remove takes an entity out of the grid.
func (g *Grid) Remove(id ecs.EntityID) {
	k, ok := g.where[id]
	if !ok {
		return
	}
	delete(g.where, id)
	cell := g.cells[k]
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.cells, k)
	}
}

// Move updates an entity's cell when its position changes.
func (g *Grid) Move(id ecs.EntityID, pos math32.Vector3) {
	newK := g.key(pos)
	if oldK, ok := g.where[id]; ok {
		if oldK == newK {
			return
		}
		g.Remove(id)
	}
	cell := g.cells[newK]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[newK] = cell
	}
	cell[id] = struct{}{}
	g.where[id] = newK
}

// Nearby returns every entity in the cells overlapping the square of half
// width radius around center. When that square spans more cells than are
// occupied, the occupied cells are scanned instead.
func (g *Grid) Nearby(center math32.Vector3, radius float32) []ecs.EntityID {
	lo := g.key(center.Sub(math32.Vec3(radius, 0, radius)))
	hi := g.key(center.Add(math32.Vec3(radius, 0, radius)))
	var result []ecs.EntityID
	span := (int64(hi.cx) - int64(lo.cx) + 1) * (int64(hi.cz) - int64(lo.cz) + 1)
	if span > int64(len(g.cells)) {
		for k, cell := range g.cells {
			if k.cx < lo.cx || k.cx > hi.cx || k.cz < lo.cz || k.cz > hi.cz {
				continue
			}
			for id := range cell {
				result = append(result, id)
			}
		}
		return result
	}
	for cx := lo.cx; cx <= hi.cx; cx++ {
		for cz := lo.cz; cz <= hi.cz; cz++ {
			for id := range g.cells[cellKey{cx: cx, cz: cz}] {
				result = append(result, id)
			}
		}
	}
	return result
}

// Len returns the number of entities in the grid.
func (g *Grid) Len() int { return len(g.where) }
