// Package ecs holds entity handles and typed per-component storage.
//
// Entities are generation-checked indices: deleting an entity bumps the
// generation of its slot, so stale handles never alias a reused slot.
package ecs

import "sort"

// Entity is a local handle. It is never sent over the wire.
type Entity struct {
	ID  uint32
	Gen uint32
}

// Pack encodes the handle into one int64 (used by int-keyed indexes).
func (e Entity) Pack() int64 { return int64(uint64(e.ID)<<32 | uint64(e.Gen)) }

// Unpack reverses Pack.
func Unpack(v int64) Entity {
	u := uint64(v)
	return Entity{ID: uint32(u >> 32), Gen: uint32(u)}
}

type remover interface {
	remove(e Entity) bool
}

// Registry allocates entity handles and cascades deletes to every store
// created against it.
type Registry struct {
	gens   []uint32
	alive  []bool
	free   []uint32
	count  int
	stores []remover
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Create() Entity {
	r.count++
	if n := len(r.free); n > 0 {
		id := r.free[n-1]
		r.free = r.free[:n-1]
		r.alive[id] = true
		return Entity{ID: id, Gen: r.gens[id]}
	}
	id := uint32(len(r.gens))
	r.gens = append(r.gens, 1)
	r.alive = append(r.alive, true)
	return Entity{ID: id, Gen: 1}
}

func (r *Registry) Alive(e Entity) bool {
	return int(e.ID) < len(r.gens) && r.alive[e.ID] && r.gens[e.ID] == e.Gen
}

// Delete removes e and all of its components. It reports false for stale
// or unknown handles.
func (r *Registry) Delete(e Entity) bool {
	if !r.Alive(e) {
		return false
	}
	for _, s := range r.stores {
		s.remove(e)
	}
	r.alive[e.ID] = false
	r.gens[e.ID]++
	r.free = append(r.free, e.ID)
	r.count--
	return true
}

func (r *Registry) Len() int { return r.count }

// Entities returns the live handles in ascending ID order.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, 0, r.count)
	for id, ok := range r.alive {
		if ok {
			out = append(out, Entity{ID: uint32(id), Gen: r.gens[id]})
		}
	}
	return out
}

// Store is a sparse set holding one component value per entity.
type Store[T any] struct {
	reg    *Registry
	sparse []int32 // entity ID -> dense index + 1; 0 means absent
	dense  []T
	owners []Entity
}

func NewStore[T any](r *Registry) *Store[T] {
	s := &Store[T]{reg: r}
	r.stores = append(r.stores, s)
	return s
}

func (s *Store[T]) index(e Entity) (int, bool) {
	if int(e.ID) >= len(s.sparse) {
		return 0, false
	}
	i := int(s.sparse[e.ID]) - 1
	if i < 0 || s.owners[i] != e {
		return 0, false
	}
	return i, true
}

// Insert sets the component for e, replacing any previous value.
// Inserting for a dead entity is a no-op returning false.
func (s *Store[T]) Insert(e Entity, v T) bool {
	if !s.reg.Alive(e) {
		return false
	}
	if i, ok := s.index(e); ok {
		s.dense[i] = v
		return true
	}
	for int(e.ID) >= len(s.sparse) {
		s.sparse = append(s.sparse, 0)
	}
	s.dense = append(s.dense, v)
	s.owners = append(s.owners, e)
	s.sparse[e.ID] = int32(len(s.dense))
	return true
}

// Get returns a pointer into the store. It stays valid until the next
// Insert or Remove on this store.
func (s *Store[T]) Get(e Entity) (*T, bool) {
	i, ok := s.index(e)
	if !ok {
		return nil, false
	}
	return &s.dense[i], true
}

func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.index(e)
	return ok
}

func (s *Store[T]) Remove(e Entity) bool { return s.remove(e) }

func (s *Store[T]) remove(e Entity) bool {
	i, ok := s.index(e)
	if !ok {
		return false
	}
	last := len(s.dense) - 1
	if i != last {
		s.dense[i] = s.dense[last]
		s.owners[i] = s.owners[last]
		s.sparse[s.owners[i].ID] = int32(i + 1)
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.owners = s.owners[:last]
	s.sparse[e.ID] = 0
	return true
}

func (s *Store[T]) Len() int { return len(s.dense) }

// Entities returns a sorted copy of the owning handles, safe to range over
// while mutating the store.
func (s *Store[T]) Entities() []Entity {
	out := make([]Entity, len(s.owners))
	copy(out, s.owners)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Each visits every component. fn may mutate other stores freely but must
// not insert into or remove from s.
func (s *Store[T]) Each(fn func(e Entity, v *T)) {
	for i := range s.dense {
		fn(s.owners[i], &s.dense[i])
	}
}

func (s *Store[T]) Clear() {
	for _, e := range s.owners {
		s.sparse[e.ID] = 0
	}
	clear(s.dense)
	s.dense = s.dense[:0]
	s.owners = s.owners[:0]
}
