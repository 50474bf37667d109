// Package di provides a minimal service container for module wiring.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	Get(name string) (any, error)
	MustGet(name string) any
}

// Container registers and resolves named services.
type Container interface {
	ServiceRegistry
	Register(name string, service any)
}

type container struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]any)}
}

func (c *container) Register(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

func (c *container) Get(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	svc, ok := c.services[name]
	if !ok {
		return nil, fmt.Errorf("di: service %q not registered", name)
	}
	return svc, nil
}

// MustGet resolves a service or panics. Intended for startup wiring only.
func (c *container) MustGet(name string) any {
	svc, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return svc
}

// Resolve fetches a service and asserts its type.
func Resolve[T any](r ServiceRegistry, name string) (T, error) {
	var zero T
	svc, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("di: service %q has type %T, not %T", name, svc, zero)
	}
	return typed, nil
}
