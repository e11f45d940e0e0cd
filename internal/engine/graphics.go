package engine

import "cogentcore.org/core/math32"

// Graphics is the rendering collaborator. Spatial setters act on the node's
// local transform; WorldPose composes it with its ancestors.
// Implementations are driven from the game loop goroutine only.
type Graphics interface {
	CreateNode(name string, kind NodeKind, shape Shape, mat Material) (GraphicsHandle, error)
	CreateCamera(name string) (GraphicsHandle, error)
	CreateLight(name string, light Light) (GraphicsHandle, error)
	CreateEffect(name, effect string) (GraphicsHandle, error)
	Destroy(h GraphicsHandle) error

	SetPosition(h GraphicsHandle, pos math32.Vector3)
	SetOrientation(h GraphicsHandle, q math32.Quat)
	SetDirection(h GraphicsHandle, dir math32.Vector3)
	Translate(h GraphicsHandle, delta math32.Vector3)
	Rotate(h GraphicsHandle, axis math32.Vector3, angle float32)
	LookAt(h GraphicsHandle, target math32.Vector3)
	SetScale(h GraphicsHandle, scale math32.Vector3)

	Pose(h GraphicsHandle) Pose
	WorldPose(h GraphicsHandle) Pose

	// Attach reparents child under parent. A zero parent moves child back
	// to the scene root. The child's local transform is kept.
	Attach(parent, child GraphicsHandle) error
	SetVisible(h GraphicsHandle, visible bool)

	Render() error
}
