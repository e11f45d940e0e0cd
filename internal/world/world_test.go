package world

import (
	"errors"
	"testing"
	"time"

	"cogentcore.org/core/base/tolassert"
	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/config"
	"github.com/orbitforge/client/internal/core/event"
	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/data"
	"github.com/orbitforge/client/internal/engine"
	"github.com/orbitforge/client/internal/engine/headless"
	"github.com/orbitforge/client/internal/entity"
)

const tol = 1e-4

var (
	box  = engine.Shape{Kind: engine.ShapeBox, Size: math32.Vec3(1, 1, 1)}
	hull = engine.Material{Name: "hull", Color: "silver"}
)

const protoYAML = `
- name: crate
  kind: dynamic
  shape: {kind: box, size: [1, 1, 1]}
  material: wood
  mass: 2
- name: pillar
  kind: static
  shape: {kind: cylinder, size: [1, 4, 1]}
  material: stone
- name: lamp
  kind: movable
  shape: {kind: sphere, size: [0.5, 0.5, 0.5]}
  material: glass
- name: banner
  kind: visual
  shape: {kind: plane, size: [2, 0, 1]}
  material: cloth
- name: trigger
  kind: ghost
  shape: {kind: sphere, size: [2, 2, 2]}
`

func newTestWorld(t *testing.T) (*World, *headless.Graphics, *headless.Physics) {
	t.Helper()
	g := headless.NewGraphics()
	p := headless.NewPhysics(math32.Vector3{})
	w := New(g, p, config.WorldConfig{GridCellSize: 4}, zap.NewNop())
	protos, err := data.ParsePrototypeTable([]byte(protoYAML))
	require.NoError(t, err)
	w.SetPrototypes(protos)
	return w, g, p
}

func assertVec(t *testing.T, want, got math32.Vector3) {
	t.Helper()
	tolassert.EqualTol(t, want.X, got.X, tol)
	tolassert.EqualTol(t, want.Y, got.Y, tol)
	tolassert.EqualTol(t, want.Z, got.Z, tol)
}

func build(t *testing.T, w *World, name string, pos math32.Vector3) *entity.Entity {
	t.Helper()
	e, err := w.CreateEntity().WithID(name).WithShape(box).WithMaterial(hull).AtPosition(pos).BuildMovableObject()
	require.NoError(t, err)
	return e
}

func TestCreateEntityPublishesLifecycleEvents(t *testing.T) {
	w, _, _ := newTestWorld(t)
	var created, destroyed []string
	event.Subscribe(w.Bus(), func(ev event.EntityCreated) { created = append(created, ev.Entity.Name()) })
	event.Subscribe(w.Bus(), func(ev event.EntityDestroyed) { destroyed = append(destroyed, ev.Entity.Name()) })

	e := build(t, w, "probe", math32.Vector3{})
	assert.Equal(t, []string{"probe"}, created)

	got, ok := w.Entity("probe")
	require.True(t, ok)
	assert.Same(t, e, got)

	require.NoError(t, w.DeleteEntity(e))
	assert.Equal(t, []string{"probe"}, destroyed)
	_, ok = w.Entity("probe")
	assert.False(t, ok)
}

func TestSelectionSetClearedOnDelete(t *testing.T) {
	w, _, _ := newTestWorld(t)
	_, err := w.NewSelectionSet(0)
	require.Error(t, err)

	set, err := w.NewSelectionSet(2)
	require.NoError(t, err)
	a := build(t, w, "a", math32.Vector3{})
	b := build(t, w, "b", math32.Vector3{})
	set.SetSelectionList([]*entity.Entity{a, b})

	require.NoError(t, w.DeleteEntity(a))
	assert.False(t, set.IsSelected(a))
	primary, ok := set.Selection()
	require.True(t, ok)
	assert.Same(t, b, primary)
}

func TestReleasedSelectionSetStopsTracking(t *testing.T) {
	w, _, _ := newTestWorld(t)
	kept, err := w.NewSelectionSet(2)
	require.NoError(t, err)
	dropped, err := w.NewSelectionSet(2)
	require.NoError(t, err)
	a := build(t, w, "a", math32.Vector3{})
	kept.SetSelection(a)
	dropped.SetSelection(a)

	w.ReleaseSelectionSet(dropped)
	w.ReleaseSelectionSet(dropped)
	require.NoError(t, w.DeleteEntity(a))

	assert.Zero(t, kept.Len())
	assert.Equal(t, 1, dropped.Len())
}

func TestMarkForDestruction(t *testing.T) {
	w, g, _ := newTestWorld(t)
	a := build(t, w, "a", math32.Vector3{})
	b := build(t, w, "b", math32.Vector3{})

	w.MarkForDestruction(a)
	w.MarkForDestruction(a)
	w.MarkForDestruction(b)
	w.MarkForDestruction(nil)
	assert.Equal(t, 2, w.PendingDestruction())
	assert.True(t, a.Live(), "queued entities stay live until the flush")

	require.NoError(t, b.Delete())
	require.NoError(t, w.FlushDestroyQueue())
	assert.False(t, a.Live())
	assert.Zero(t, w.PendingDestruction())
	assert.Zero(t, g.Len())

	w.MarkForDestruction(a)
	assert.Zero(t, w.PendingDestruction(), "deleted entities are not queued")
}

func TestFlushDestroyQueueJoinsErrors(t *testing.T) {
	w, g, _ := newTestWorld(t)
	a := build(t, w, "a", math32.Vector3{})
	w.MarkForDestruction(a)

	boom := errors.New("boom")
	g.DestroyErr = boom
	err := w.FlushDestroyQueue()
	assert.ErrorIs(t, err, boom)
	assert.False(t, a.Live())
}

func TestEntitiesNearOrdersByDistance(t *testing.T) {
	w, _, _ := newTestWorld(t)
	far := build(t, w, "far", math32.Vec3(9, 0, 0))
	near := build(t, w, "near", math32.Vec3(1, 0, 0))
	mid := build(t, w, "mid", math32.Vec3(0, 0, -5))
	build(t, w, "outside", math32.Vec3(30, 0, 30))

	got, err := w.EntitiesNear(math32.Vector3{}, 10)
	require.NoError(t, err)
	assert.Equal(t, []*entity.Entity{near, mid, far}, got)

	_, err = w.EntitiesNear(math32.Vector3{}, -1)
	assert.ErrorIs(t, err, ErrInvalidRadius)
}

func TestEntitiesNearFollowsMoves(t *testing.T) {
	w, _, _ := newTestWorld(t)
	e := build(t, w, "runner", math32.Vec3(100, 0, 100))

	got, err := w.EntitiesNear(math32.Vector3{}, 2)
	require.NoError(t, err)
	assert.Empty(t, got)

	e.SetPosition(math32.Vec3(1, 0, 1))
	got, err = w.EntitiesNear(math32.Vector3{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []*entity.Entity{e}, got)
}

func TestSelectNearCapsAtCapacity(t *testing.T) {
	w, _, _ := newTestWorld(t)
	set, err := w.NewSelectionSet(2)
	require.NoError(t, err)
	a := build(t, w, "a", math32.Vec3(1, 0, 0))
	b := build(t, w, "b", math32.Vec3(2, 0, 0))
	build(t, w, "c", math32.Vec3(3, 0, 0))

	require.NoError(t, w.SelectNear(set, math32.Vector3{}, 5))
	assert.Equal(t, []*entity.Entity{a, b}, set.Members())
}

func TestSpawnByKind(t *testing.T) {
	w, _, p := newTestWorld(t)
	cases := map[string]entity.Authority{
		"crate":  entity.PhysicsLeads,
		"pillar": entity.GraphicsLeads,
		"lamp":   entity.GraphicsLeads,
		"banner": entity.GraphicsOnly,
	}
	for proto, auth := range cases {
		e, err := w.Spawn(proto, proto+"-1", math32.Vec3(0, 2, 0), math32.Vector3{})
		require.NoError(t, err, proto)
		assert.Equal(t, auth, e.Authority(), proto)
		assertVec(t, math32.Vec3(0, 2, 0), e.Position())
	}

	crate, _ := w.Entity("crate-1")
	info, ok := p.Body(crate.Body())
	require.True(t, ok)
	assert.Equal(t, engine.BodyDynamic, info.Kind)
	assert.Equal(t, float32(2), info.Mass)

	_, err := w.Spawn("trigger", "t", math32.Vector3{}, math32.Vector3{})
	assert.ErrorIs(t, err, ErrGhostPrototype)
	_, err = w.Spawn("ufo", "u", math32.Vector3{}, math32.Vector3{})
	assert.ErrorIs(t, err, data.ErrUnknownPrototype)
	_, err = w.Spawn("crate", "crate-1", math32.Vector3{}, math32.Vector3{})
	assert.ErrorIs(t, err, entity.ErrDuplicateID)
}

func TestSpawnWithoutPrototypes(t *testing.T) {
	w := New(headless.NewGraphics(), headless.NewPhysics(math32.Vector3{}), config.WorldConfig{GridCellSize: 4}, zap.NewNop())
	_, err := w.Spawn("crate", "c", math32.Vector3{}, math32.Vector3{})
	assert.ErrorIs(t, err, ErrNoPrototypes)

	list := &data.SpawnList{Level: "bare", Entries: []data.SpawnEntry{
		{Prototype: "crate", Name: "c"},
	}}
	assert.NotPanics(t, func() { err = w.LoadLevel(list) })
	assert.ErrorIs(t, err, ErrNoPrototypes)
	assert.Zero(t, w.Registry().Len())
}

func TestGhosts(t *testing.T) {
	w, _, p := newTestWorld(t)
	h, err := w.SpawnGhost("trigger", "gate", math32.Vec3(0, 0, -3))
	require.NoError(t, err)
	assert.Equal(t, "gate", w.BodyName(h))
	got, ok := w.Ghost("gate")
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, err = w.SpawnGhost("trigger", "gate", math32.Vector3{})
	assert.ErrorIs(t, err, entity.ErrDuplicateID)

	require.NoError(t, w.DestroyGhost("gate"))
	assert.Zero(t, p.Len())
	assert.ErrorIs(t, w.DestroyGhost("gate"), ErrUnknownGhost)
	assert.Equal(t, "body#99", w.BodyName(99))
}

func TestLoadLevelAndLayout(t *testing.T) {
	w, _, _ := newTestWorld(t)
	level := &data.SpawnList{
		Level: "yard",
		Entries: []data.SpawnEntry{
			{Prototype: "pillar", Name: "p1", Position: data.Vec3{4, 0, 0}, Direction: data.Vec3{0, 0, -1}},
			{Prototype: "lamp", Name: "l1", Position: data.Vec3{0, 4, 0}, Direction: data.Vec3{0, 0, -1}, Parent: "p1"},
			{Prototype: "crate", Name: "c1", Position: data.Vec3{0, 1, 0}},
			{Prototype: "trigger", Name: "zone", Position: data.Vec3{0, 0, 8}},
		},
	}
	require.NoError(t, w.LoadLevel(level))

	lamp, ok := w.Entity("l1")
	require.True(t, ok)
	assertVec(t, math32.Vec3(4, 4, 0), lamp.Position())
	parent, ok := lamp.Parent()
	require.True(t, ok)
	assert.Equal(t, "p1", parent.Name())
	_, ok = w.Ghost("zone")
	assert.True(t, ok)

	layout := w.Layout("yard")
	require.Len(t, layout.Entries, 3, "dynamic entities are not part of the layout")
	want := []data.SpawnEntry{level.Entries[0], level.Entries[1], level.Entries[3]}
	for i, e := range layout.Entries {
		assert.Equal(t, want[i].Name, e.Name)
		assert.Equal(t, want[i].Prototype, e.Prototype)
		assert.Equal(t, want[i].Parent, e.Parent)
		assertVec(t, want[i].Position.Vector3(), e.Position.Vector3())
	}
}

func TestLoadLevelKeepsGoingAfterFailure(t *testing.T) {
	w, g, _ := newTestWorld(t)
	level := &data.SpawnList{Entries: []data.SpawnEntry{
		{Prototype: "pillar", Name: "p1"},
		{Prototype: "lamp", Name: "l1"},
	}}
	g.CreateErr = errors.New("out of vram")
	err := w.LoadLevel(level)
	require.Error(t, err)
	_, ok := w.Entity("l1")
	assert.True(t, ok)

	bad := &data.SpawnList{Entries: []data.SpawnEntry{{Prototype: "ufo", Name: "u"}}}
	assert.ErrorIs(t, w.LoadLevel(bad), data.ErrUnknownPrototype)
}

func TestProps(t *testing.T) {
	w, g, _ := newTestWorld(t)
	_, err := w.CreateCamera("main")
	require.NoError(t, err)
	_, err = w.CreateLight("sun", engine.Light{Kind: engine.LightDirectional, Color: "white"})
	require.NoError(t, err)
	_, err = w.CreateEffect("sparks", "particles/sparks")
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	require.NoError(t, w.DestroyProp("sparks"))
	assert.ErrorIs(t, w.DestroyProp("sparks"), engine.ErrUnknownHandle)

	g.CreateErr = errors.New("no camera")
	_, err = w.CreateCamera("second")
	assert.Error(t, err)
}

func TestTickRunsSystemsInPhaseOrder(t *testing.T) {
	w, _, _ := newTestWorld(t)
	var order []coresys.Phase
	for _, ph := range []coresys.Phase{coresys.PhaseCleanup, coresys.PhaseInput, coresys.PhaseRender} {
		w.Register(coresys.Func{At: ph, Fn: func(time.Duration) { order = append(order, ph) }})
	}
	w.Tick(time.Millisecond)
	assert.Equal(t, []coresys.Phase{coresys.PhaseInput, coresys.PhaseRender, coresys.PhaseCleanup}, order)
	assert.Equal(t, uint64(1), w.CurrentTick())

	order = order[:0]
	w.Redraw()
	assert.Equal(t, []coresys.Phase{coresys.PhaseRender}, order)
	assert.Equal(t, uint64(1), w.CurrentTick())
}

func TestCloseReleasesEverything(t *testing.T) {
	w, g, p := newTestWorld(t)
	parent := build(t, w, "parent", math32.Vector3{})
	child := build(t, w, "child", math32.Vec3(1, 0, 0))
	require.NoError(t, child.AttachTo(parent))
	_, err := w.SpawnGhost("trigger", "zone", math32.Vector3{})
	require.NoError(t, err)
	_, err = w.CreateCamera("main")
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.Zero(t, w.Registry().Len())
	assert.Zero(t, g.Len())
	assert.Zero(t, p.Len())
	assert.False(t, parent.Live())
	assert.NoError(t, w.Close())
}
