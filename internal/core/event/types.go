package event

import (
	"cogentcore.org/core/math32"

	"github.com/orbitforge/client/internal/entity"
)

// EntityCreated is published right after a build registers an entity.
type EntityCreated struct {
	Entity *entity.Entity
}

// EntityDestroyed is published from inside Entity.Delete. The entity is
// already Deleted: handlers may read ID and Name but must not mutate it.
type EntityDestroyed struct {
	Entity *entity.Entity
}

// Collision is emitted for each contact of a physics step and delivered on
// the following tick. A and B are entity IDs or ghost names.
type Collision struct {
	Tick  uint64
	A, B  string
	Point math32.Vector3
}
