package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/nerrad567/hap-engine/internal/ini"
)

// State is a module's private state. The dispatcher stores it between calls
// and never looks inside.
type State = any

// Module is the lifecycle contract every module implements. All six
// operations must be present even when a module has nothing to do in some
// of them.
type Module interface {
	// Create builds the module state from its configuration section. The
	// section is empty when the configuration has no section of that name.
	// A nil state or a non-nil error means the module is not registered and
	// receives no further calls.
	Create(ctx *Context, section *ini.Section) (State, error)

	// Load is called once before the first tick. identifier is the name the
	// module was instantiated under.
	Load(ctx *Context, state State, identifier string) error

	// Update advances the module and returns when it next wants to run.
	// A zero time means "as soon as possible". An error unloads the module.
	Update(ctx *Context, state State) (time.Time, error)

	// Render is called every tick after a successful update.
	Render(ctx *Context, state State)

	// Unload releases what Load acquired.
	Unload(ctx *Context, state State)

	// Destroy releases what Create acquired. It is called at most once.
	Destroy(ctx *Context, state State)
}

// Observer is implemented by modules that want to hear about lifecycle
// events of every module, including their own. Observe must not block.
type Observer interface {
	Observe(ctx *Context, state State, ev Event)
}

// Factory returns a fresh Module value.
type Factory func() Module

// Registry maps module identifiers to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under id.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" || factory == nil {
		return fmt.Errorf("registering module %q: identifier and factory are required", id)
	}
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("registering module %q: %w", id, ErrDuplicateModule)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.factories[id]
	return ok
}

// New builds a Module for id.
func (r *Registry) New(id string) (Module, error) {
	factory, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("module %q: %w", id, ErrModuleNotFound)
	}
	return factory(), nil
}

// Identifiers returns the registered identifiers in sorted order.
func (r *Registry) Identifiers() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
