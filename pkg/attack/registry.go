package attack

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when no implementation is registered under a name
var ErrNotFound = errors.New("not registered")

// Factory builds a component from its merged section parameters
type Factory[T any] func(kw Kwargs) (T, error)

// Registry maps variant names to factories for one kind of component
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates a new registry for the named kind
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		factories: make(map[string]Factory[T]),
	}
}

// Kind returns the kind of component held by the registry
func (r *Registry[T]) Kind() string {
	return r.kind
}

// Register adds a factory to the registry
func (r *Registry[T]) Register(name string, factory Factory[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%s %s already registered", r.kind, name)
	}

	r.factories[name] = factory
	return nil
}

// MustRegister is Register for init functions
func (r *Registry[T]) MustRegister(name string, factory Factory[T]) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Get builds a new instance of the named component
func (r *Registry[T]) Get(name string, kw Kwargs) (T, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", r.kind, name, ErrNotFound)
	}

	v, err := factory(kw)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to build %s %s: %w", r.kind, name, err)
	}
	return v, nil
}

// Has reports whether name is registered
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// List returns all registered names in sorted order
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global registries populated by the tasks, attackers and loggers packages
var (
	Tasks     = NewRegistry[Task]("task")
	Attackers = NewRegistry[Attacker]("attacker")
	Loggers   = NewRegistry[Logger]("logger")
)
