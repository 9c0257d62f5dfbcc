// Package metrics samples the engine process and writes the samples, along
// with module lifecycle events, to InfluxDB.
//
// Options ([metrics] section):
//
//	url             server URL (http://127.0.0.1:8086)
//	token           API token, required
//	org             organisation, required
//	bucket          bucket, required
//	batch_size      points per write (100)
//	flush_interval  seconds between background flushes (1)
//	interval        sampling interval (10s)
package metrics

import (
	"fmt"
	"time"

	"github.com/nerrad567/hap-engine/internal/engine"
	"github.com/nerrad567/hap-engine/internal/infrastructure/config"
	"github.com/nerrad567/hap-engine/internal/infrastructure/influxdb"
	"github.com/nerrad567/hap-engine/internal/infrastructure/logging"
	"github.com/nerrad567/hap-engine/internal/ini"
	"github.com/nerrad567/hap-engine/internal/modules/options"
)

// ID is the identifier the metrics module registers under.
const ID = "metrics"

// MeasurementModuleEvent is the measurement name of lifecycle events.
const MeasurementModuleEvent = "module_event"

// Module implements engine.Module and engine.Observer.
type Module struct{}

// New returns a metrics module.
func New() engine.Module { return &Module{} }

// Metrics is the module state.
type Metrics struct {
	client   *influxdb.Client
	interval time.Duration
	log      *logging.Logger
	engine   string
	runID    string

	live    map[string]bool
	samples uint64
}

// Samples returns the number of runtime samples written.
func (m *Metrics) Samples() uint64 { return m.samples }

// Modules returns the number of modules known to be alive.
func (m *Metrics) Modules() int { return len(m.live) }

// Create connects to InfluxDB.
func (Module) Create(ctx *engine.Context, section *ini.Section) (engine.State, error) {
	r := options.NewReader(section)
	cfg := config.InfluxDBConfig{
		Enabled:       true,
		URL:           r.String("url", "http://127.0.0.1:8086"),
		Token:         r.Require("token"),
		Org:           r.Require("org"),
		Bucket:        r.Require("bucket"),
		BatchSize:     r.Int("batch_size", 100),
		FlushInterval: r.Int("flush_interval", 1),
	}
	interval := r.Duration("interval", 10*time.Second)
	r.Positive("batch_size", cfg.BatchSize)
	r.Positive("flush_interval", cfg.FlushInterval)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("metrics: interval must be positive")
	}

	client, err := influxdb.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	log := ctx.ModuleLogger(ID)
	client.SetOnError(func(err error) {
		log.Warn("influxdb write failed", "error", err)
	})
	log.Debug("connected to influxdb", "url", cfg.URL, "org", cfg.Org, "bucket", cfg.Bucket)

	return &Metrics{
		client:   client,
		interval: interval,
		log:      log,
		engine:   ctx.Name(),
		runID:    ctx.RunID(),
		live:     map[string]bool{ID: true},
	}, nil
}

// Load writes nothing; sampling starts with the first update.
func (Module) Load(*engine.Context, engine.State, string) error { return nil }

// Update writes one runtime sample.
func (Module) Update(_ *engine.Context, state engine.State) (time.Time, error) {
	m := state.(*Metrics)
	m.samples++
	m.client.WriteRuntime(m.engine, m.runID, influxdb.ReadRuntime(m.samples, len(m.live)))
	return time.Now().Add(m.interval), nil
}

// Render does nothing.
func (Module) Render(*engine.Context, engine.State) {}

// Unload flushes buffered points.
func (Module) Unload(_ *engine.Context, state engine.State) {
	state.(*Metrics).client.Flush()
}

// Destroy closes the client.
func (Module) Destroy(_ *engine.Context, state engine.State) {
	m := state.(*Metrics)
	if err := m.client.Close(); err != nil {
		m.log.Warn("closing influxdb client failed", "error", err)
	}
}

// Observe records lifecycle events as points and tracks live modules.
func (Module) Observe(_ *engine.Context, state engine.State, ev engine.Event) {
	m := state.(*Metrics)
	switch ev.Kind {
	case engine.EventCreated, engine.EventLoaded:
		m.live[ev.Module] = true
	case engine.EventDestroyed:
		delete(m.live, ev.Module)
	}

	fields := map[string]any{"count": 1}
	if ev.Err != nil {
		fields["error"] = ev.Err.Error()
	}
	m.client.WritePointWithTime(MeasurementModuleEvent,
		map[string]string{
			"engine": m.engine,
			"run_id": m.runID,
			"module": ev.Module,
			"event":  ev.Kind.String(),
		},
		fields,
		ev.At,
	)
}
