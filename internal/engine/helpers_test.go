package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/hap-engine/internal/ini"
)

// callLog collects lifecycle calls as "id:op" strings.
type callLog struct {
	calls []string
}

func (l *callLog) add(id, op string) {
	l.calls = append(l.calls, id+":"+op)
}

func (l *callLog) count(entry string) int {
	n := 0
	for _, c := range l.calls {
		if c == entry {
			n++
		}
	}
	return n
}

// probe is a scriptable module used across the engine tests.
type probe struct {
	log *callLog

	nilState     bool
	createErr    error
	loadErr      error
	failOnUpdate int // 1-based update number that fails; 0 never
	panicRender  bool
	interval     time.Duration
	now          func() time.Time
}

type probeState struct {
	id      string
	section *ini.Section
	updates int
	events  []Event
}

func (p *probe) Create(_ *Context, section *ini.Section) (State, error) {
	p.log.add(section.Name(), "create")
	if p.createErr != nil {
		return nil, p.createErr
	}
	if p.nilState {
		return nil, nil
	}
	return &probeState{section: section}, nil
}

func (p *probe) Load(_ *Context, state State, id string) error {
	st := state.(*probeState)
	st.id = id
	p.log.add(id, "load")
	return p.loadErr
}

func (p *probe) Update(_ *Context, state State) (time.Time, error) {
	st := state.(*probeState)
	st.updates++
	p.log.add(st.id, "update")
	if p.failOnUpdate > 0 && st.updates == p.failOnUpdate {
		return time.Time{}, errors.New("device lost")
	}
	if p.interval > 0 {
		return p.now().Add(p.interval), nil
	}
	return time.Time{}, nil
}

func (p *probe) Render(_ *Context, state State) {
	st := state.(*probeState)
	p.log.add(st.id, "render")
	if p.panicRender {
		panic(fmt.Sprintf("render exploded in %s", st.id))
	}
}

func (p *probe) Unload(_ *Context, state State) {
	p.log.add(state.(*probeState).id, "unload")
}

func (p *probe) Destroy(_ *Context, state State) {
	st := state.(*probeState)
	name := st.id
	if name == "" {
		name = st.section.Name()
	}
	p.log.add(name, "destroy")
}

// watcher is a probe that also observes lifecycle events.
type watcher struct {
	probe
}

func (w *watcher) Observe(_ *Context, state State, ev Event) {
	st := state.(*probeState)
	st.events = append(st.events, ev)
}

func probeFactory(p *probe) Factory {
	return func() Module { return p }
}

func testContext() *Context {
	return NewContext(Options{Name: "HAP"})
}
