// Package services implements domain business logic and use cases.
package services

import (
	"fmt"
	"sync"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
)

// EntityStore is the local cache of one entity collection. Order is the
// insertion order of the last full fetch; upserts of unknown ids append.
type EntityStore[T any] struct {
	mu    sync.RWMutex
	kind  string
	idOf  func(T) string
	clone func(T) T
	items []T
	index map[string]int
}

// NewEntityStore creates an empty store. clone must return a deep copy so that
// values handed in or out never alias store state.
func NewEntityStore[T any](kind string, idOf func(T) string, clone func(T) T) *EntityStore[T] {
	return &EntityStore[T]{
		kind:  kind,
		idOf:  idOf,
		clone: clone,
		index: make(map[string]int),
	}
}

// NewFindingStore creates a store of findings
func NewFindingStore() *EntityStore[entities.Finding] {
	return NewEntityStore("finding",
		func(f entities.Finding) string { return f.ID },
		entities.Finding.Clone)
}

// NewProjectStore creates a store of projects
func NewProjectStore() *EntityStore[entities.Project] {
	return NewEntityStore("project",
		func(p entities.Project) string { return p.ID },
		entities.Project.Clone)
}

// List returns a copy of all entities in store order
func (s *EntityStore[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.items))
	for i, item := range s.items {
		out[i] = s.clone(item)
	}
	return out
}

// Get returns the entity with the given id
func (s *EntityStore[T]) Get(id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		var zero T
		return zero, errs.New(errs.KindNotFound, "Get", fmt.Sprintf("%s %q not found", s.kind, id))
	}
	return s.clone(s.items[i]), nil
}

// Contains reports whether an entity with the id is stored
func (s *EntityStore[T]) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Upsert replaces the entity with the same id in place, or appends it
func (s *EntityStore[T]) Upsert(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.idOf(item)
	if i, ok := s.index[id]; ok {
		s.items[i] = s.clone(item)
		return
	}
	s.index[id] = len(s.items)
	s.items = append(s.items, s.clone(item))
}

// Remove deletes the entity with the given id
func (s *EntityStore[T]) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return errs.New(errs.KindNotFound, "Remove", fmt.Sprintf("%s %q not found", s.kind, id))
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
	return nil
}

// Replace swaps the whole collection for the result of a fetch-all. A
// duplicated id keeps its first position and its last value.
func (s *EntityStore[T]) Replace(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]T, 0, len(items))
	s.index = make(map[string]int, len(items))
	for _, item := range items {
		id := s.idOf(item)
		if i, ok := s.index[id]; ok {
			s.items[i] = s.clone(item)
			continue
		}
		s.index[id] = len(s.items)
		s.items = append(s.items, s.clone(item))
	}
}

// Len returns the number of stored entities
func (s *EntityStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *EntityStore[T]) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, item := range s.items {
		s.index[s.idOf(item)] = i
	}
}
