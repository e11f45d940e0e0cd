// Package headless provides in-memory Graphics and Physics engines. They keep
// the full transform state without a window or a solver, which makes them
// the backing engines for tests and the terminal view.
package headless

import (
	"fmt"

	"cogentcore.org/core/math32"

	"github.com/orbitforge/client/internal/engine"
)

// NodeInfo is the inspectable state of one graphics node.
type NodeInfo struct {
	Name     string
	Kind     engine.NodeKind
	Shape    engine.Shape
	Material engine.Material
	Category string // "node", "camera", "light" or "effect"
	Local    engine.Pose
	Parent   engine.GraphicsHandle
	Children []engine.GraphicsHandle
	Visible  bool
}

// Graphics is an in-memory scene graph. Accessed only from the game loop
// goroutine, no locks.
type Graphics struct {
	nodes  map[engine.GraphicsHandle]*NodeInfo
	next   engine.GraphicsHandle
	frames int

	// CreateErr and DestroyErr, when set, make the next create or destroy
	// call fail with that error. Each is cleared after it fires.
	CreateErr  error
	DestroyErr error
}

var _ engine.Graphics = (*Graphics)(nil)

func NewGraphics() *Graphics {
	return &Graphics{nodes: make(map[engine.GraphicsHandle]*NodeInfo, 64)}
}

func (g *Graphics) add(name, category string, info NodeInfo) (engine.GraphicsHandle, error) {
	if err := g.CreateErr; err != nil {
		g.CreateErr = nil
		return 0, fmt.Errorf("create %s %q: %w", category, name, err)
	}
	g.next++
	info.Name = name
	info.Category = category
	info.Local = engine.IdentityPose()
	info.Visible = true
	g.nodes[g.next] = &info
	return g.next, nil
}

func (g *Graphics) CreateNode(name string, kind engine.NodeKind, shape engine.Shape, mat engine.Material) (engine.GraphicsHandle, error) {
	return g.add(name, "node", NodeInfo{Kind: kind, Shape: shape, Material: mat})
}

func (g *Graphics) CreateCamera(name string) (engine.GraphicsHandle, error) {
	return g.add(name, "camera", NodeInfo{Kind: engine.NodeMovable})
}

func (g *Graphics) CreateLight(name string, light engine.Light) (engine.GraphicsHandle, error) {
	return g.add(name, "light", NodeInfo{Kind: engine.NodeMovable, Material: engine.Material{Color: light.Color}})
}

func (g *Graphics) CreateEffect(name, effect string) (engine.GraphicsHandle, error) {
	return g.add(name, "effect", NodeInfo{Kind: engine.NodeMovable, Material: engine.Material{Name: effect}})
}

// Destroy removes a node. Its children are moved to the scene root with
// their local transforms unchanged.
func (g *Graphics) Destroy(h engine.GraphicsHandle) error {
	n, ok := g.nodes[h]
	if !ok {
		return fmt.Errorf("destroy node %d: %w", h, engine.ErrUnknownHandle)
	}
	if err := g.DestroyErr; err != nil {
		g.DestroyErr = nil
		return fmt.Errorf("destroy node %q: %w", n.Name, err)
	}
	g.unlink(h, n)
	for _, c := range n.Children {
		if child, ok := g.nodes[c]; ok {
			child.Parent = 0
		}
	}
	delete(g.nodes, h)
	return nil
}

func (g *Graphics) unlink(h engine.GraphicsHandle, n *NodeInfo) {
	if n.Parent == 0 {
		return
	}
	if p, ok := g.nodes[n.Parent]; ok {
		for i, c := range p.Children {
			if c == h {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	n.Parent = 0
}

func (g *Graphics) node(h engine.GraphicsHandle) *NodeInfo {
	n, ok := g.nodes[h]
	if !ok {
		panic(fmt.Sprintf("headless graphics: %v: %d", engine.ErrUnknownHandle, h))
	}
	return n
}

func (g *Graphics) SetPosition(h engine.GraphicsHandle, pos math32.Vector3) {
	g.node(h).Local.Pos = pos
}

func (g *Graphics) SetOrientation(h engine.GraphicsHandle, q math32.Quat) {
	q.Normalize()
	g.node(h).Local.Quat = q
}

func (g *Graphics) SetDirection(h engine.GraphicsHandle, dir math32.Vector3) {
	g.node(h).Local.Quat = engine.QuatFromDirection(dir)
}

func (g *Graphics) Translate(h engine.GraphicsHandle, delta math32.Vector3) {
	n := g.node(h)
	n.Local.Pos = n.Local.Pos.Add(delta)
}

// Rotate turns the node around a local axis by angle radians.
func (g *Graphics) Rotate(h engine.GraphicsHandle, axis math32.Vector3, angle float32) {
	n := g.node(h)
	n.Local.Quat.SetMul(math32.NewQuatAxisAngle(axis.Normal(), angle))
	n.Local.Quat.Normalize()
}

// LookAt points the node's forward axis at a world-space target.
func (g *Graphics) LookAt(h engine.GraphicsHandle, target math32.Vector3) {
	n := g.node(h)
	world := g.WorldPose(h)
	dir := target.Sub(world.Pos)
	if dir.Length() == 0 {
		return
	}
	q := engine.QuatFromDirection(dir)
	if n.Parent != 0 {
		parent := g.WorldPose(n.Parent).Quat
		inv := parent.Inverse()
		q = inv.Mul(q)
	}
	n.Local.Quat = q
}

func (g *Graphics) SetScale(h engine.GraphicsHandle, scale math32.Vector3) {
	g.node(h).Local.Scale = scale
}

func (g *Graphics) Pose(h engine.GraphicsHandle) engine.Pose {
	return g.node(h).Local
}

func (g *Graphics) WorldPose(h engine.GraphicsHandle) engine.Pose {
	n := g.node(h)
	if n.Parent == 0 {
		return n.Local
	}
	return g.WorldPose(n.Parent).Compose(n.Local)
}

func (g *Graphics) Attach(parent, child engine.GraphicsHandle) error {
	c, ok := g.nodes[child]
	if !ok {
		return fmt.Errorf("attach child %d: %w", child, engine.ErrUnknownHandle)
	}
	if parent != 0 {
		if _, ok := g.nodes[parent]; !ok {
			return fmt.Errorf("attach to parent %d: %w", parent, engine.ErrUnknownHandle)
		}
	}
	g.unlink(child, c)
	if parent != 0 {
		c.Parent = parent
		p := g.nodes[parent]
		p.Children = append(p.Children, child)
	}
	return nil
}

func (g *Graphics) SetVisible(h engine.GraphicsHandle, visible bool) {
	g.node(h).Visible = visible
}

// Render only counts frames.
func (g *Graphics) Render() error {
	g.frames++
	return nil
}

// Frames returns how many times Render was called.
func (g *Graphics) Frames() int { return g.frames }

// Node returns a copy of a node's state.
func (g *Graphics) Node(h engine.GraphicsHandle) (NodeInfo, bool) {
	n, ok := g.nodes[h]
	if !ok {
		return NodeInfo{}, false
	}
	return *n, true
}

// Len returns the number of live nodes of every category.
func (g *Graphics) Len() int { return len(g.nodes) }

// Each visits live nodes in handle order.
func (g *Graphics) Each(fn func(engine.GraphicsHandle, NodeInfo)) {
	for h := engine.GraphicsHandle(1); h <= g.next; h++ {
		if n, ok := g.nodes[h]; ok {
			fn(h, *n)
		}
	}
}
