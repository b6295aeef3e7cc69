// Package scanner walks the type graph and collects every reachable record.
package scanner

import (
	"sync"

	"github.com/dbsmedya/rttidump/internal/rtti"
)

// Set is the discovered-set: records keyed by identity. It is safe for
// concurrent use, so registrations arriving on several threads can share one.
type Set struct {
	mu    sync.Mutex
	types map[*rtti.Type]struct{}
	order []*rtti.Type
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{types: make(map[*rtti.Type]struct{})}
}

// Add inserts t unless it is already present and reports whether it was
// inserted. The check and the insert are one atomic step.
func (s *Set) Add(t *rtti.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.types[t]; ok {
		return false
	}
	s.types[t] = struct{}{}
	s.order = append(s.order, t)
	return true
}

// Contains reports whether t has been discovered.
func (s *Set) Contains(t *rtti.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.types[t]
	return ok
}

// Len returns the number of discovered records.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.types)
}

// Snapshot returns a copy of the set's members in discovery order. Later
// additions do not affect the copy.
func (s *Set) Snapshot() []*rtti.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*rtti.Type, len(s.order))
	copy(out, s.order)
	return out
}

// Collisions groups exported records that share a display name. Such records
// would collapse into one catalog entry.
func Collisions(types []*rtti.Type) map[string][]*rtti.Type {
	byName := make(map[string][]*rtti.Type)
	for _, t := range types {
		if !t.Kind().Exported() {
			continue
		}
		name := rtti.DisplayName(t)
		byName[name] = append(byName[name], t)
	}
	for name, group := range byName {
		if len(group) < 2 {
			delete(byName, name)
		}
	}
	return byName
}
