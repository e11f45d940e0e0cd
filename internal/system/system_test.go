package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/config"
	"github.com/orbitforge/client/internal/core/event"
	"github.com/orbitforge/client/internal/data"
	"github.com/orbitforge/client/internal/engine"
	"github.com/orbitforge/client/internal/engine/headless"
	"github.com/orbitforge/client/internal/entity"
	"github.com/orbitforge/client/internal/world"
)

const dt = 50 * time.Millisecond

var (
	box  = engine.Shape{Kind: engine.ShapeBox, Size: math32.Vec3(1, 1, 1)}
	ball = engine.Shape{Kind: engine.ShapeSphere, Size: math32.Vec3(0.5, 0.5, 0.5)}
	hull = engine.Material{Name: "hull", Color: "silver"}
)

type recordingSaver struct {
	saved []*data.SpawnList
	err   error
}

func (s *recordingSaver) SaveLayout(_ context.Context, l *data.SpawnList) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, l)
	return nil
}

type rig struct {
	world    *world.World
	graphics *headless.Graphics
	physics  *headless.Physics
	commands chan Command
	saver    *recordingSaver
	persist  *PersistenceSystem
}

// newRig wires every system the way the client does, with autosave every
// three ticks.
func newRig(t *testing.T, gravity math32.Vector3) *rig {
	t.Helper()
	g := headless.NewGraphics()
	p := headless.NewPhysics(gravity)
	log := zap.NewNop()
	w := world.New(g, p, config.WorldConfig{GridCellSize: 8}, log)
	r := &rig{
		world:    w,
		graphics: g,
		physics:  p,
		commands: make(chan Command, 8),
		saver:    &recordingSaver{},
	}
	r.persist = NewPersistenceSystem(w, r.saver, "test", 3, log)
	w.Register(NewCleanupSystem(w, log))
	w.Register(r.persist)
	w.Register(NewRenderSystem(w, log))
	w.Register(NewSyncSystem(w))
	w.Register(NewPhysicsSystem(w))
	w.Register(NewInputSystem(w, r.commands, 2, log))
	return r
}

func TestDynamicEntityFollowsBodyAfterTick(t *testing.T) {
	r := newRig(t, math32.Vec3(0, -10, 0))
	rock, err := r.world.CreateEntity().WithID("rock").WithShape(ball).WithMaterial(hull).
		WithMass(1).AtPosition(math32.Vec3(0, 10, 0)).BuildDynamicObject()
	require.NoError(t, err)

	r.world.Tick(dt)

	body := r.physics.Pose(rock.Body())
	node := r.graphics.WorldPose(rock.Node())
	assert.Less(t, body.Pos.Y, float32(10))
	assert.Equal(t, body.Pos, node.Pos)
	assert.Equal(t, 1, r.physics.Steps())
	assert.Equal(t, 1, r.graphics.Frames())
}

func TestCollisionDeliveredNextTick(t *testing.T) {
	r := newRig(t, math32.Vector3{})
	_, err := r.world.CreateEntity().WithID("zone").WithShape(ball).AtPosition(math32.Vector3{}).BuildGhost()
	require.NoError(t, err)
	_, err = r.world.CreateEntity().WithID("crate").WithShape(box).WithMaterial(hull).
		AtPosition(math32.Vec3(0.5, 0, 0)).BuildMovableObject()
	require.NoError(t, err)

	var got []event.Collision
	event.Subscribe(r.world.Bus(), func(c event.Collision) { got = append(got, c) })

	r.world.Tick(dt)
	assert.Empty(t, got, "collisions are deferred one tick")

	r.world.Tick(dt)
	require.NotEmpty(t, got)
	assert.Equal(t, uint64(1), got[0].Tick)
	// untracked ghosts are reported by handle
	assert.Equal(t, "body#1", got[0].A)
	assert.Equal(t, "crate", got[0].B)
}

func TestCommandsDrainedPerTickLimit(t *testing.T) {
	r := newRig(t, math32.Vector3{})
	ran := 0
	for i := 0; i < 3; i++ {
		r.commands <- func(*world.World) { ran++ }
	}

	r.world.Tick(dt)
	assert.Equal(t, 2, ran)
	r.world.Tick(dt)
	assert.Equal(t, 3, ran)
}

func TestCommandsCanMutateEntities(t *testing.T) {
	r := newRig(t, math32.Vector3{})
	_, err := r.world.CreateEntity().WithID("cart").WithShape(box).WithMaterial(hull).BuildMovableObject()
	require.NoError(t, err)

	r.commands <- func(w *world.World) {
		e, _ := w.Entity("cart")
		e.Translate(math32.Vec3(3, 0, 0))
	}
	r.world.Tick(dt)

	cart, _ := r.world.Entity("cart")
	assert.Equal(t, math32.Vec3(3, 0, 0), cart.Position())
	assert.Equal(t, math32.Vec3(3, 0, 0), r.physics.Pose(cart.Body()).Pos)
}

func TestMarkedEntityDestroyedSameTick(t *testing.T) {
	r := newRig(t, math32.Vector3{})
	e, err := r.world.CreateEntity().WithID("doomed").WithShape(box).WithMaterial(hull).BuildStaticObject()
	require.NoError(t, err)

	r.commands <- func(w *world.World) { w.MarkForDestruction(e) }
	r.world.Tick(dt)

	assert.False(t, e.Live())
	assert.Zero(t, r.world.Registry().Len())
	assert.Zero(t, r.physics.Len())
}

func TestAutosaveEveryInterval(t *testing.T) {
	r := newRig(t, math32.Vector3{})
	for i := 0; i < 7; i++ {
		r.world.Tick(dt)
	}
	assert.Len(t, r.saver.saved, 2)
	assert.Equal(t, "test", r.saver.saved[0].Level)

	r.saver.err = errors.New("db down")
	assert.ErrorIs(t, r.persist.Save(context.Background()), r.saver.err)
	assert.NotPanics(t, func() {
		for i := 0; i < 3; i++ {
			r.world.Tick(dt)
		}
	})
}

func TestAutosaveDisabled(t *testing.T) {
	w := world.New(headless.NewGraphics(), headless.NewPhysics(math32.Vector3{}), config.WorldConfig{GridCellSize: 8}, zap.NewNop())
	saver := &recordingSaver{}
	w.Register(NewPersistenceSystem(w, saver, "x", 0, zap.NewNop()))
	for i := 0; i < 10; i++ {
		w.Tick(dt)
	}
	assert.Empty(t, saver.saved)
}

func TestSyncRefreshesGrid(t *testing.T) {
	r := newRig(t, math32.Vector3{})
	rock, err := r.world.CreateEntity().WithID("rock").WithShape(ball).WithMaterial(hull).
		WithMass(1).AtPosition(math32.Vec3(50, 0, 0)).BuildDynamicObject()
	require.NoError(t, err)
	rock.ApplyImpulse(math32.Vec3(-1000, 0, 0))

	r.world.Tick(dt)
	near, err := r.world.EntitiesNear(math32.Vector3{}, 5)
	require.NoError(t, err)
	assert.Equal(t, []*entity.Entity{rock}, near)
}
