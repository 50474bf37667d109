package app

import (
	"sync"

	"github.com/crosspool/poolarb/business/strategy/domain"
)

// ParamStore owns the dynamic parameter set. Reads return a copy; writes
// replace the whole value, so no reader ever observes a torn update.
type ParamStore struct {
	mu     sync.RWMutex
	params domain.DynamicParameters
}

// NewParamStore creates a store seeded with the given parameters.
func NewParamStore(initial domain.DynamicParameters) *ParamStore {
	return &ParamStore{params: initial}
}

// Snapshot returns the current parameter set by value.
func (s *ParamStore) Snapshot() domain.DynamicParameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Replace swaps in a new parameter set atomically.
func (s *ParamStore) Replace(params domain.DynamicParameters) {
	s.mu.Lock()
	s.params = params
	s.mu.Unlock()
}
