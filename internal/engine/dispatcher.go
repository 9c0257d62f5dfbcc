package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/nerrad567/hap-engine/internal/ini"
)

// Dispatcher owns the module descriptors and drives their lifecycle.
//
// Thread Safety:
//   - Not safe for concurrent use. The engine loop is the only caller.
type Dispatcher struct {
	ctx         *Context
	registry    *Registry
	descriptors []*Descriptor
	failures    []Failure
	now         func() time.Time
}

// NewDispatcher returns a Dispatcher resolving identifiers through registry.
func NewDispatcher(ctx *Context, registry *Registry) *Dispatcher {
	return &Dispatcher{
		ctx:      ctx,
		registry: registry,
		now:      time.Now,
	}
}

// Instantiate creates the module registered as id and passes it section.
// A nil section is replaced by an empty one.
//
// Returns:
//   - error: KindSchema for unknown or duplicate identifiers, KindModule when
//     Create fails; the module is not registered in either case
func (d *Dispatcher) Instantiate(id string, section *ini.Section) error {
	if d.find(id) != nil {
		return newError(KindSchema, "instantiate", id, ErrDuplicateModule)
	}

	module, err := d.registry.New(id)
	if err != nil {
		return newError(KindSchema, "instantiate", id, err)
	}

	if section == nil {
		section = ini.NewSection(id)
	}

	var state State
	if perr := guard(func() { state, err = module.Create(d.ctx, section) }); perr != nil {
		err = perr
	}
	if err == nil && state == nil {
		err = ErrCreateFailed
	} else if err != nil {
		err = fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	if err != nil {
		d.ctx.Error("module create failed", "module", id, "error", err)
		return newError(KindModule, "instantiate", id, err)
	}

	desc := &Descriptor{
		id:     id,
		module: module,
		state:  state,
		phase:  PhaseCreated,
	}
	d.descriptors = append(d.descriptors, desc)
	d.ctx.Debug("module created", "module", id, "options", section.Len())
	d.notify(Event{Module: id, Kind: EventCreated, At: d.now()})
	return nil
}

// Load calls Load on every created module, in registration order. Modules
// whose Load fails are destroyed and dropped.
//
// Returns:
//   - int: Number of modules that became active
func (d *Dispatcher) Load() int {
	loaded := 0
	for _, desc := range slices.Clone(d.descriptors) {
		if desc.phase != PhaseCreated {
			continue
		}

		var err error
		if perr := guard(func() { err = desc.module.Load(d.ctx, desc.state, desc.id) }); perr != nil {
			err = perr
		}
		if err != nil {
			d.fail(desc, fmt.Errorf("%w: %w", ErrLoadFailed, err))
			continue
		}

		desc.phase = PhaseActive
		desc.nextUpdate = time.Time{}
		loaded++
		d.ctx.Info("module loaded", "module", desc.id)
		d.notify(Event{Module: desc.id, Kind: EventLoaded, At: d.now()})
	}
	return loaded
}

// Tick runs one pass over the active modules. Modules whose next update is
// due at now are updated; every module whose update did not fail is then
// rendered. A failing or panicking module is unloaded and destroyed before
// Tick returns and the others carry on.
//
// Returns:
//   - int: Number of modules updated
func (d *Dispatcher) Tick(now time.Time) int {
	updated := 0
	for _, desc := range slices.Clone(d.descriptors) {
		if desc.phase != PhaseActive {
			continue
		}

		if desc.due(now) {
			var next time.Time
			var err error
			if perr := guard(func() { next, err = desc.module.Update(d.ctx, desc.state) }); perr != nil {
				err = perr
			}
			if err != nil {
				d.fail(desc, fmt.Errorf("%w: %w", ErrUpdateFailed, err))
				continue
			}
			desc.nextUpdate = next
			desc.updates++
			updated++
		}

		if err := guard(func() { desc.module.Render(d.ctx, desc.state) }); err != nil {
			d.fail(desc, fmt.Errorf("render: %w", err))
		}
	}
	return updated
}

// Unload tears down the module registered as id.
func (d *Dispatcher) Unload(id string) error {
	desc := d.find(id)
	if desc == nil {
		return newError(KindSchema, "unload", id, ErrModuleNotFound)
	}
	d.teardown(desc)
	d.remove(desc)
	return nil
}

// Shutdown unloads and destroys every module in reverse registration order.
func (d *Dispatcher) Shutdown() {
	for i := len(d.descriptors) - 1; i >= 0; i-- {
		d.teardown(d.descriptors[i])
	}
	d.descriptors = nil
}

// Len returns the number of live modules.
func (d *Dispatcher) Len() int {
	return len(d.descriptors)
}

// Identifiers returns live module identifiers in registration order.
func (d *Dispatcher) Identifiers() []string {
	ids := make([]string, len(d.descriptors))
	for i, desc := range d.descriptors {
		ids[i] = desc.id
	}
	return ids
}

// Snapshot returns a view of every live descriptor in registration order.
func (d *Dispatcher) Snapshot() []Info {
	infos := make([]Info, len(d.descriptors))
	for i, desc := range d.descriptors {
		infos[i] = desc.info()
	}
	return infos
}

// Failures returns the modules removed because of errors, oldest first.
func (d *Dispatcher) Failures() []Failure {
	return slices.Clone(d.failures)
}

// fail records err against desc and removes the module.
func (d *Dispatcher) fail(desc *Descriptor, err error) {
	at := d.now()
	d.ctx.Error("module failed, unloading", "module", desc.id, "error", err)
	d.failures = append(d.failures, Failure{Module: desc.id, At: at, Err: err})
	d.notify(Event{Module: desc.id, Kind: EventFailed, At: at, Err: err})
	d.teardown(desc)
	d.remove(desc)
}

// teardown calls Unload (for active modules) then Destroy. Panics are logged
// and swallowed so one module cannot block the rest of shutdown.
func (d *Dispatcher) teardown(desc *Descriptor) {
	if desc.phase == PhaseActive {
		if err := guard(func() { desc.module.Unload(d.ctx, desc.state) }); err != nil {
			d.ctx.Error("module unload panicked", "module", desc.id, "error", err)
		}
		desc.phase = PhaseUnloaded
		d.ctx.Info("module unloaded", "module", desc.id)
		d.notify(Event{Module: desc.id, Kind: EventUnloaded, At: d.now()})
	}

	if desc.phase == PhaseDestroyed {
		return
	}
	if err := guard(func() { desc.module.Destroy(d.ctx, desc.state) }); err != nil {
		d.ctx.Error("module destroy panicked", "module", desc.id, "error", err)
	}
	desc.phase = PhaseDestroyed
	desc.state = nil
	desc.nextUpdate = time.Time{}
	d.ctx.Debug("module destroyed", "module", desc.id)
	d.notify(Event{Module: desc.id, Kind: EventDestroyed, At: d.now()})
}

// notify delivers ev to every live module implementing Observer.
func (d *Dispatcher) notify(ev Event) {
	for _, desc := range d.descriptors {
		if desc.phase != PhaseCreated && desc.phase != PhaseActive {
			continue
		}
		obs, ok := desc.module.(Observer)
		if !ok {
			continue
		}
		if err := guard(func() { obs.Observe(d.ctx, desc.state, ev) }); err != nil {
			d.ctx.Warn("module observer panicked", "module", desc.id, "error", err)
		}
	}
}

func (d *Dispatcher) find(id string) *Descriptor {
	for _, desc := range d.descriptors {
		if desc.id == id {
			return desc
		}
	}
	return nil
}

func (d *Dispatcher) remove(target *Descriptor) {
	d.descriptors = slices.DeleteFunc(d.descriptors, func(desc *Descriptor) bool {
		return desc == target
	})
}

// guard runs fn and converts a panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrModulePanic, r)
		}
	}()
	fn()
	return nil
}
