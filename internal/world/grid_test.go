package world

import (
	"sort"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"

	"github.com/orbitforge/client/internal/core/ecs"
)

func sortedIDs(ids []ecs.EntityID) []ecs.EntityID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestGridNearby(t *testing.T) {
	g := NewGrid(10)
	a, b, c := ecs.NewEntityID(0, 1), ecs.NewEntityID(1, 1), ecs.NewEntityID(2, 1)
	g.Add(a, math32.Vec3(1, 0, 1))
	g.Add(b, math32.Vec3(-1, 50, -1)) // height ignored; negative coordinates floor down
	g.Add(c, math32.Vec3(45, 0, 0))

	assert.Equal(t, sortedIDs([]ecs.EntityID{a, b}), sortedIDs(g.Nearby(math32.Vector3{}, 5)))
	assert.Equal(t, []ecs.EntityID{c}, g.Nearby(math32.Vec3(45, 0, 0), 1))
	assert.Equal(t, 3, g.Len())
}

func TestGridMoveAndRemove(t *testing.T) {
	g := NewGrid(10)
	a := ecs.NewEntityID(0, 1)
	g.Add(a, math32.Vec3(1, 0, 1))
	g.Move(a, math32.Vec3(2, 0, 2)) // same cell
	g.Move(a, math32.Vec3(95, 0, 95))

	assert.Empty(t, g.Nearby(math32.Vector3{}, 5))
	assert.Equal(t, []ecs.EntityID{a}, g.Nearby(math32.Vec3(95, 0, 95), 1))

	g.Remove(a)
	g.Remove(a)
	assert.Zero(t, g.Len())
	assert.Empty(t, g.cells)
}

func TestGridNearbyHugeRadiusScansOccupiedCells(t *testing.T) {
	g := NewGrid(1)
	a, b := ecs.NewEntityID(0, 1), ecs.NewEntityID(1, 1)
	g.Add(a, math32.Vec3(3, 0, -2))
	g.Add(b, math32.Vec3(1000, 0, 0))

	assert.Equal(t, []ecs.EntityID{a}, g.Nearby(math32.Vector3{}, 100))
	assert.Equal(t, sortedIDs([]ecs.EntityID{a, b}), sortedIDs(g.Nearby(math32.Vector3{}, 1e9)))
	assert.Equal(t, sortedIDs([]ecs.EntityID{a, b}), sortedIDs(g.Nearby(math32.Vector3{}, 1e30)))
}
