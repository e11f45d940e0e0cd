package ecs

// Registry tracks per-entity stores and clears an entity from all of them
// when it is destroyed.
type Registry struct {
	pool   *EntityPool
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		pool:   NewEntityPool(),
		stores: make([]Removable, 0, 8),
	}
}

// Register adds a store that must be cleared on destroy.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

func (r *Registry) Create() EntityID       { return r.pool.Create() }
func (r *Registry) Alive(id EntityID) bool { return r.pool.Alive(id) }
func (r *Registry) Live() int              { return r.pool.Live() }

// Destroy clears id from every registered store and retires it.
// It returns false if id was not alive.
func (r *Registry) Destroy(id EntityID) bool {
	if !r.pool.Alive(id) {
		return false
	}
	for _, s := range r.stores {
		s.Remove(id)
	}
	return r.pool.Destroy(id)
}
