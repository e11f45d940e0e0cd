package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIDPacking(t *testing.T) {
	id := NewEntityID(7, 3)
	assert.Equal(t, uint32(7), id.Index())
	assert.Equal(t, uint32(3), id.Generation())
	assert.False(t, id.IsZero())
	assert.True(t, EntityID(0).IsZero())
}

func TestPoolReusesSlotWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	b := p.Create()
	assert.False(t, a.IsZero(), "generations start at 1")
	assert.Equal(t, 2, p.Live())

	require.True(t, p.Destroy(a))
	assert.False(t, p.Alive(a))
	assert.False(t, p.Destroy(a), "double destroy is refused")

	c := p.Create()
	assert.Equal(t, a.Index(), c.Index())
	assert.NotEqual(t, a, c)
	assert.True(t, p.Alive(c))
	assert.False(t, p.Alive(a), "stale id stays dead after reuse")
	assert.True(t, p.Alive(b))
	assert.Equal(t, 2, p.Live())
}

func TestPoolRejectsForeignIDs(t *testing.T) {
	p := NewEntityPool()
	assert.False(t, p.Alive(0))
	assert.False(t, p.Alive(NewEntityID(40, 1)))
	assert.False(t, p.Destroy(NewEntityID(40, 1)))
}

func TestStoreEachIsOrdered(t *testing.T) {
	s := NewStore[string]()
	for _, id := range []EntityID{NewEntityID(3, 1), NewEntityID(1, 1), NewEntityID(2, 1)} {
		v := id.Index()
		name := string(rune('a' + v))
		s.Set(id, &name)
	}
	var seen []string
	s.Each(func(_ EntityID, v *string) { seen = append(seen, *v) })
	assert.Equal(t, []string{"b", "c", "d"}, seen)
	assert.Equal(t, 3, s.Len())

	s.Remove(NewEntityID(2, 1))
	assert.False(t, s.Has(NewEntityID(2, 1)))
	_, ok := s.Get(NewEntityID(2, 1))
	assert.False(t, ok)
}

func TestRegistryDestroyClearsStores(t *testing.T) {
	r := NewRegistry()
	names := NewStore[string]()
	marks := NewStore[bool]()
	r.Register(names)
	r.Register(marks)

	id := r.Create()
	n, m := "probe", true
	names.Set(id, &n)
	marks.Set(id, &m)

	require.True(t, r.Destroy(id))
	assert.False(t, names.Has(id))
	assert.False(t, marks.Has(id))
	assert.False(t, r.Alive(id))
	assert.Zero(t, r.Live())
	assert.False(t, r.Destroy(id))
}
