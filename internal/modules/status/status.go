// Package status hosts the HTTP status API inside the engine. It tracks
// module lifecycle events, counts render passes and pushes snapshots to
// WebSocket subscribers.
//
// Options ([status] section):
//
//	host          listen address (127.0.0.1)
//	port          listen port, 0 picks a free one (8088)
//	interval      status broadcast interval (1s)
//	cors_origins  comma separated allowed origins, empty allows all
//	tls_cert      certificate file, enables TLS with tls_key
//	tls_key       key file
package status

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/hap-engine/internal/api"
	"github.com/nerrad567/hap-engine/internal/engine"
	"github.com/nerrad567/hap-engine/internal/infrastructure/config"
	"github.com/nerrad567/hap-engine/internal/infrastructure/logging"
	"github.com/nerrad567/hap-engine/internal/ini"
	"github.com/nerrad567/hap-engine/internal/modules/options"
)

// ID is the identifier the status module registers under.
const ID = "status"

// Module implements engine.Module and engine.Observer.
type Module struct{}

// New returns a status module.
func New() engine.Module { return &Module{} }

// Status is the module state. It implements api.StatusSource.
type Status struct {
	server   *api.Server
	interval time.Duration
	log      *logging.Logger

	renders atomic.Uint64

	mu      sync.Mutex
	base    api.Status
	started time.Time
	modules map[string]*api.ModuleStatus
	order   []string
}

// Server returns the API server.
func (s *Status) Server() *api.Server { return s.server }

// Status returns a copy of the current snapshot.
func (s *Status) Status() api.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.base
	out.UptimeSeconds = int64(time.Since(s.started).Seconds())
	out.Renders = s.renders.Load()
	out.Modules = make([]api.ModuleStatus, 0, len(s.order))
	for _, id := range s.order {
		out.Modules = append(out.Modules, *s.modules[id])
	}
	return out
}

// record stores ev as the module's latest state and returns the new entry.
func (s *Status) record(ev engine.Event) api.ModuleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.modules[ev.Module]
	if !ok {
		m = &api.ModuleStatus{Identifier: ev.Module}
		s.modules[ev.Module] = m
		s.order = append(s.order, ev.Module)
	}
	m.State = ev.Kind.String()
	m.Since = ev.At.UTC().Format(time.RFC3339Nano)
	if ev.Err != nil {
		m.Error = ev.Err.Error()
	}
	return *m
}

// Create starts the API server.
func (Module) Create(ctx *engine.Context, section *ini.Section) (engine.State, error) {
	r := options.NewReader(section)
	cfg := config.APIConfig{
		Host: r.String("host", "127.0.0.1"),
		Port: r.Int("port", 8088),
		Timeouts: config.APITimeoutConfig{
			Read:  10,
			Write: 10,
			Idle:  60,
		},
	}
	if origins := r.String("cors_origins", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, o)
			}
		}
	}
	if cert := r.String("tls_cert", ""); cert != "" {
		cfg.TLS = config.TLSConfig{Enabled: true, CertFile: cert, KeyFile: r.Require("tls_key")}
	}
	interval := r.Duration("interval", time.Second)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("status: port %d out of range", cfg.Port)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("status: interval must be positive")
	}

	log := ctx.ModuleLogger(ID)
	s := &Status{
		interval: interval,
		log:      log,
		base: api.Status{
			Engine:  ctx.Name(),
			RunID:   ctx.RunID(),
			Version: ctx.Version(),
		},
		started: ctx.Started(),
		modules: make(map[string]*api.ModuleStatus),
	}

	server, err := api.New(api.Deps{
		Config:  cfg,
		Logger:  log,
		Source:  s,
		Version: ctx.Version(),
	})
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	if err := server.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	s.server = server
	log.Notice("status API listening", "address", server.Addr())
	return s, nil
}

// Load does nothing; the server is already serving.
func (Module) Load(*engine.Context, engine.State, string) error { return nil }

// Update broadcasts a snapshot to engine.status subscribers.
func (Module) Update(_ *engine.Context, state engine.State) (time.Time, error) {
	s := state.(*Status)
	s.server.Hub().Broadcast(api.ChannelStatus, s.Status())
	return time.Now().Add(s.interval), nil
}

// Render counts render passes.
func (Module) Render(_ *engine.Context, state engine.State) {
	state.(*Status).renders.Add(1)
}

// Unload does nothing; clients keep their connections until Destroy.
func (Module) Unload(*engine.Context, engine.State) {}

// Destroy stops the server.
func (Module) Destroy(_ *engine.Context, state engine.State) {
	s := state.(*Status)
	if err := s.server.Close(); err != nil {
		s.log.Warn("closing status API failed", "error", err)
	}
}

// Observe records the event and forwards it to module.lifecycle subscribers.
func (Module) Observe(_ *engine.Context, state engine.State, ev engine.Event) {
	s := state.(*Status)
	entry := s.record(ev)
	s.server.Hub().Broadcast(api.ChannelLifecycle, entry)
}
