// Package di is a small lazy service container with type-safe tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services by key.
type ServiceRegistry interface {
	Get(key string) any
}

// Container is a ServiceRegistry that accepts registrations.
type Container interface {
	ServiceRegistry
	Register(key string, v any)
	RegisterFactory(key string, factory func(ServiceRegistry) any)
	Has(key string) bool
}

type container struct {
	mu        sync.Mutex
	instances map[string]any
	factories map[string]func(ServiceRegistry) any
	resolving map[string]bool
}

// NewContainer returns an empty container. Factories run once, on first Get.
func NewContainer() Container {
	return &container{
		instances: make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
		resolving: make(map[string]bool),
	}
}

func (c *container) Register(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[key] = v
}

func (c *container) RegisterFactory(key string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, key)
	c.factories[key] = factory
}

func (c *container) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, inst := c.instances[key]
	_, fac := c.factories[key]
	return inst || fac
}

// Get resolves key, building it from its factory when needed. It panics on an
// unknown key or a dependency cycle; both are wiring bugs.
func (c *container) Get(key string) any {
	c.mu.Lock()
	if v, ok := c.instances[key]; ok {
		c.mu.Unlock()
		return v
	}
	factory, ok := c.factories[key]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: no service registered for %q", key))
	}
	if c.resolving[key] {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: dependency cycle while resolving %q", key))
	}
	c.resolving[key] = true
	c.mu.Unlock()

	v := factory(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.resolving, key)
	if existing, ok := c.instances[key]; ok {
		return existing
	}
	c.instances[key] = v
	return v
}
