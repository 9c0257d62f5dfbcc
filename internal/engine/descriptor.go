package engine

import (
	"fmt"
	"time"
)

// Phase is the lifecycle position of a module.
type Phase uint8

const (
	// PhaseUnloaded is a module that has not been created, or whose create failed.
	PhaseUnloaded Phase = iota

	// PhaseCreated is a module with state that has not been loaded yet.
	PhaseCreated

	// PhaseActive is a loaded module taking part in ticks.
	PhaseActive

	// PhaseDestroyed is a module that has been torn down.
	PhaseDestroyed
)

// String returns the lower-case name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUnloaded:
		return "unloaded"
	case PhaseCreated:
		return "created"
	case PhaseActive:
		return "active"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Descriptor binds one module instance to its identifier, state and
// schedule. It is owned by the Dispatcher.
type Descriptor struct {
	id         string
	module     Module
	state      State
	phase      Phase
	nextUpdate time.Time
	updates    uint64
}

// Identifier returns the module identifier.
func (d *Descriptor) Identifier() string { return d.id }

// Phase returns the lifecycle phase.
func (d *Descriptor) Phase() Phase { return d.phase }

// NextUpdate returns when the module next wants Update.
func (d *Descriptor) NextUpdate() time.Time { return d.nextUpdate }

// due reports whether the module's update is due at now.
func (d *Descriptor) due(now time.Time) bool {
	return !now.Before(d.nextUpdate)
}

// Info is a point-in-time view of a descriptor.
type Info struct {
	Identifier string
	Phase      Phase
	NextUpdate time.Time
	Updates    uint64
}

func (d *Descriptor) info() Info {
	return Info{
		Identifier: d.id,
		Phase:      d.phase,
		NextUpdate: d.nextUpdate,
		Updates:    d.updates,
	}
}

// EventKind names a lifecycle transition.
type EventKind uint8

const (
	EventCreated EventKind = iota + 1
	EventLoaded
	EventFailed
	EventUnloaded
	EventDestroyed
)

// String returns the lower-case name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventLoaded:
		return "loaded"
	case EventFailed:
		return "failed"
	case EventUnloaded:
		return "unloaded"
	case EventDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event reports a lifecycle transition of one module.
type Event struct {
	Module string
	Kind   EventKind
	At     time.Time
	Err    error
}

// Failure records a module that was removed because of an error.
type Failure struct {
	Module string
	At     time.Time
	Err    error
}
