package engine

import (
	"context"
	"strings"
	"time"

	"github.com/nerrad567/hap-engine/internal/infrastructure/config"
	"github.com/nerrad567/hap-engine/internal/ini"
)

// ModulesKey is the global option listing module identifiers when the host
// settings do not.
const ModulesKey = "modules"

// Engine ties the context, the module registry and the dispatcher to a
// configuration file and runs the tick loop.
type Engine struct {
	ctx        *Context
	settings   config.EngineConfig
	registry   *Registry
	dispatcher *Dispatcher

	configuration *ini.Configuration
	ticks         uint64
	started       bool
	closed        bool
}

// New creates an Engine. Start must be called before Run.
func New(ctx *Context, registry *Registry, settings config.EngineConfig) *Engine {
	return &Engine{
		ctx:        ctx,
		settings:   settings,
		registry:   registry,
		dispatcher: NewDispatcher(ctx, registry),
	}
}

// Context returns the engine context.
func (e *Engine) Context() *Context { return e.ctx }

// Dispatcher returns the module dispatcher.
func (e *Engine) Dispatcher() *Dispatcher { return e.dispatcher }

// Configuration returns the loaded configuration, or nil before Start.
func (e *Engine) Configuration() *ini.Configuration { return e.configuration }

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() uint64 { return e.ticks }

// Start loads the configuration, instantiates the module list and loads
// every created module.
//
// Module-level problems (unknown identifier, failed create or load) are
// logged and skipped. Only a configuration that cannot be read or parsed
// fails Start.
func (e *Engine) Start() error {
	if e.started {
		return newError(KindFatal, "start", "", ErrAlreadyStarted)
	}

	identifier := e.settings.Identifier
	cfg, err := e.ctx.LoadConfiguration(identifier)
	if err != nil {
		return err
	}
	e.configuration = cfg

	for _, id := range e.moduleList(cfg) {
		section, _ := cfg.Section(id)
		if err := e.dispatcher.Instantiate(id, section); err != nil && KindOf(err) == KindSchema {
			e.ctx.Warn("skipping module", "module", id, "error", err)
		}
	}

	loaded := e.dispatcher.Load()
	e.started = true
	e.ctx.Notice("engine started",
		"modules", loaded,
		"identifiers", strings.Join(e.dispatcher.Identifiers(), ","),
	)
	return nil
}

// moduleList decides which modules to instantiate: the host settings list,
// else the "modules" global option, else every section naming a registered
// module.
func (e *Engine) moduleList(cfg *ini.Configuration) []string {
	if len(e.settings.Modules) > 0 {
		return e.settings.Modules
	}

	if v, ok := cfg.Global(ModulesKey); ok {
		return splitList(v)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, s := range cfg.Sections() {
		if e.registry.Has(s.Name()) && !seen[s.Name()] {
			seen[s.Name()] = true
			ids = append(ids, s.Name())
		}
	}
	return ids
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(v string) []string {
	var ids []string
	for _, part := range strings.Split(v, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Run ticks the dispatcher until ctx is cancelled, the tick budget is spent
// or no modules remain. Cancellation is a normal stop and returns nil.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started {
		return newError(KindFatal, "run", "", ErrNotStarted)
	}

	interval := e.settings.TickInterval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if e.dispatcher.Len() == 0 {
			e.ctx.Notice("no modules remain, stopping", "ticks", e.ticks)
			return nil
		}

		e.dispatcher.Tick(time.Now())
		e.ticks++

		if e.settings.MaxTicks > 0 && e.ticks >= uint64(e.settings.MaxTicks) {
			e.ctx.Info("tick budget reached", "ticks", e.ticks)
			return nil
		}

		select {
		case <-ctx.Done():
			e.ctx.Info("engine loop cancelled", "ticks", e.ticks)
			return nil
		case <-ticker.C:
		}
	}
}

// Close shuts every module down in reverse registration order. It is safe
// to call more than once.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.dispatcher.Shutdown()
	e.ctx.Notice("engine stopped",
		"ticks", e.ticks,
		"failures", len(e.dispatcher.Failures()),
		"uptime", e.ctx.Uptime().Round(time.Millisecond).String(),
	)
}
