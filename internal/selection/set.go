// Package selection tracks which entities the UI considers selected.
package selection

import (
	"errors"
	"fmt"

	"github.com/orbitforge/client/internal/entity"
)

// ErrInvalidCapacity is returned by New for a capacity below one.
var ErrInvalidCapacity = errors.New("selection capacity must be at least 1")

// Set is a bounded, insertion-ordered set of entities. Membership is by
// entity ID. The first member is the primary selection. Once full, further
// additions are dropped; nothing is evicted.
//
// The set only observes entities: it never calls their mutators and must be
// told about deletions through EntityDestroyed. Accessed only from the game
// loop goroutine, no locks.
type Set struct {
	capacity int
	members  []*entity.Entity
}

func New(capacity int) (*Set, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new selection set (capacity %d): %w", capacity, ErrInvalidCapacity)
	}
	return &Set{
		capacity: capacity,
		members:  make([]*entity.Entity, 0, capacity),
	}, nil
}

func (s *Set) Cap() int { return s.capacity }
func (s *Set) Len() int { return len(s.members) }

// Clear removes every member.
func (s *Set) Clear() {
	clear(s.members)
	s.members = s.members[:0]
}

// SetSelection replaces the selection with e alone.
func (s *Set) SetSelection(e *entity.Entity) {
	s.Clear()
	s.AddToSelection(e)
}

// SetSelectionList replaces the selection with list, in order, keeping at
// most Cap entities. An empty list leaves the set empty.
func (s *Set) SetSelectionList(list []*entity.Entity) {
	s.Clear()
	for _, e := range list {
		if len(s.members) == s.capacity {
			return
		}
		s.AddToSelection(e)
	}
}

// AddToSelection appends e unless it is already a member or the set is
// full. Nil and deleted entities are ignored.
func (s *Set) AddToSelection(e *entity.Entity) {
	if e == nil || !e.Live() {
		return
	}
	if s.indexOf(e) >= 0 || len(s.members) >= s.capacity {
		return
	}
	s.members = append(s.members, e)
}

// RemoveSelection removes e if present.
func (s *Set) RemoveSelection(e *entity.Entity) {
	if e == nil {
		return
	}
	i := s.indexOf(e)
	if i < 0 {
		return
	}
	copy(s.members[i:], s.members[i+1:])
	s.members[len(s.members)-1] = nil
	s.members = s.members[:len(s.members)-1]
}

// EntityDestroyed drops e when it is deleted so the set never holds a
// dangling entity.
func (s *Set) EntityDestroyed(e *entity.Entity) {
	s.RemoveSelection(e)
}

// Selection returns the primary (first inserted) member.
func (s *Set) Selection() (*entity.Entity, bool) {
	if len(s.members) == 0 {
		return nil, false
	}
	return s.members[0], true
}

func (s *Set) IsSelected(e *entity.Entity) bool {
	return e != nil && s.indexOf(e) >= 0
}

// Members returns a copy of the members in insertion order.
func (s *Set) Members() []*entity.Entity {
	out := make([]*entity.Entity, len(s.members))
	copy(out, s.members)
	return out
}

func (s *Set) indexOf(e *entity.Entity) int {
	id := e.ID()
	for i, m := range s.members {
		if m.ID() == id {
			return i
		}
	}
	return -1
}
