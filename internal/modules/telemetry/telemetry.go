// Package telemetry publishes engine heartbeats and module lifecycle events
// over MQTT and logs commands received on the engine's command topic.
//
// Options ([telemetry] section):
//
//	host       broker host (127.0.0.1)
//	port       broker port (1883)
//	tls        use TLS (false)
//	client_id  MQTT client id (hap-<engine>-<run>)
//	username   broker user, optional
//	password   broker password, optional
//	qos        QoS for heartbeats and events (1)
//	interval   heartbeat interval (5s)
//	prefix     topic root (hap)
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/hap-engine/internal/engine"
	"github.com/nerrad567/hap-engine/internal/infrastructure/config"
	"github.com/nerrad567/hap-engine/internal/infrastructure/logging"
	"github.com/nerrad567/hap-engine/internal/infrastructure/mqtt"
	"github.com/nerrad567/hap-engine/internal/ini"
	"github.com/nerrad567/hap-engine/internal/modules/options"
)

// ID is the identifier the telemetry module registers under.
const ID = "telemetry"

// commandBuffer is how many received commands wait for the next update.
const commandBuffer = 64

// Broker is the part of the MQTT client the module uses.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Close() error
}

// Dialer connects to a broker.
type Dialer func(cfg config.MQTTConfig, topics mqtt.Topics) (Broker, error)

// Module implements engine.Module and engine.Observer.
type Module struct {
	dial Dialer
}

// New returns a telemetry module that connects with the MQTT client.
func New() engine.Module {
	return NewWithDialer(func(cfg config.MQTTConfig, topics mqtt.Topics) (Broker, error) {
		c, err := mqtt.Connect(cfg, topics)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// NewWithDialer returns a telemetry module using dial to reach the broker.
func NewWithDialer(dial Dialer) engine.Module {
	return &Module{dial: dial}
}

// Command is a message received on the command topic.
type Command struct {
	Topic   string
	Payload []byte
}

// Heartbeat is the JSON published on the heartbeat topic.
type Heartbeat struct {
	Engine        string  `json:"engine"`
	RunID         string  `json:"run_id"`
	Version       string  `json:"version,omitempty"`
	Sequence      uint64  `json:"sequence"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Commands      uint64  `json:"commands"`
	Timestamp     string  `json:"timestamp"`
}

// LifecycleMessage is the JSON published for each module lifecycle event.
type LifecycleMessage struct {
	Module    string `json:"module"`
	Event     string `json:"event"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Telemetry is the module state.
type Telemetry struct {
	broker   Broker
	topics   mqtt.Topics
	qos      byte
	interval time.Duration
	log      *logging.Logger

	commands chan Command
	received uint64
	events   []engine.Event
	sequence uint64
}

// Sequence returns the number of heartbeats published.
func (t *Telemetry) Sequence() uint64 { return t.sequence }

// Received returns the number of commands handled.
func (t *Telemetry) Received() uint64 { return t.received }

// Create connects to the broker.
func (m *Module) Create(ctx *engine.Context, section *ini.Section) (engine.State, error) {
	r := options.NewReader(section)
	runPrefix := ctx.RunID()
	if len(runPrefix) > 8 {
		runPrefix = runPrefix[:8]
	}
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     r.String("host", "127.0.0.1"),
			Port:     r.Int("port", 1883),
			TLS:      r.Bool("tls", false),
			ClientID: r.String("client_id", fmt.Sprintf("hap-%s-%s", ctx.Name(), runPrefix)),
		},
		Auth: config.MQTTAuthConfig{
			Username: r.String("username", ""),
			Password: r.String("password", ""),
		},
		QoS: r.Int("qos", 1),
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     60,
		},
	}
	interval := r.Duration("interval", 5*time.Second)
	topics := mqtt.Topics{Prefix: r.String("prefix", mqtt.DefaultPrefix), Engine: ctx.Name()}
	r.Positive("port", cfg.Broker.Port)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if cfg.QoS < 0 || cfg.QoS > 2 {
		return nil, fmt.Errorf("telemetry: %w", mqtt.ErrInvalidQoS)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("telemetry: interval must be positive")
	}

	log := ctx.ModuleLogger(ID)
	broker, err := m.dial(cfg, topics)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	if c, ok := broker.(*mqtt.Client); ok {
		c.SetLogger(log)
	}

	log.Debug("connected to broker",
		"host", cfg.Broker.Host,
		"port", cfg.Broker.Port,
		"client_id", cfg.Broker.ClientID,
	)
	return &Telemetry{
		broker:   broker,
		topics:   topics,
		qos:      byte(cfg.QoS), //nolint:gosec // validated above
		interval: interval,
		log:      log,
		commands: make(chan Command, commandBuffer),
	}, nil
}

// Load subscribes to the command topic.
func (m *Module) Load(_ *engine.Context, state engine.State, _ string) error {
	t := state.(*Telemetry)
	return t.broker.Subscribe(t.topics.Command(), t.qos, t.enqueue)
}

// enqueue runs on the MQTT client's goroutines and must not block.
func (t *Telemetry) enqueue(topic string, payload []byte) error {
	select {
	case t.commands <- Command{Topic: topic, Payload: append([]byte(nil), payload...)}:
		return nil
	default:
		return fmt.Errorf("command queue full, dropping message")
	}
}

// Update handles queued commands, publishes queued lifecycle events and a
// heartbeat. Publish failures are logged; the client reconnects on its own.
func (m *Module) Update(ctx *engine.Context, state engine.State) (time.Time, error) {
	t := state.(*Telemetry)

	t.drainCommands()
	t.publishEvents()

	t.sequence++
	hb := Heartbeat{
		Engine:        ctx.Name(),
		RunID:         ctx.RunID(),
		Version:       ctx.Version(),
		Sequence:      t.sequence,
		UptimeSeconds: ctx.Uptime().Seconds(),
		Commands:      t.received,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := t.publishJSON(t.topics.Heartbeat(), hb, false); err != nil {
		t.log.Warn("heartbeat publish failed", "error", err)
	}

	return time.Now().Add(t.interval), nil
}

func (t *Telemetry) drainCommands() {
	for {
		select {
		case cmd := <-t.commands:
			t.received++
			t.log.Notice("command received", "topic", cmd.Topic, "payload", string(cmd.Payload))
		default:
			return
		}
	}
}

func (t *Telemetry) publishEvents() {
	for _, ev := range t.events {
		msg := LifecycleMessage{
			Module:    ev.Module,
			Event:     ev.Kind.String(),
			Timestamp: ev.At.UTC().Format(time.RFC3339Nano),
		}
		if ev.Err != nil {
			msg.Error = ev.Err.Error()
		}
		if err := t.publishJSON(t.topics.Module(ev.Module), msg, false); err != nil {
			t.log.Warn("lifecycle publish failed", "module", ev.Module, "error", err)
		}
	}
	t.events = t.events[:0]
}

func (t *Telemetry) publishJSON(topic string, v any, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", topic, err)
	}
	return t.broker.Publish(topic, payload, t.qos, retained)
}

// Render does nothing.
func (m *Module) Render(*engine.Context, engine.State) {}

// Unload publishes what is still queued.
func (m *Module) Unload(_ *engine.Context, state engine.State) {
	t := state.(*Telemetry)
	t.drainCommands()
	t.publishEvents()
}

// Destroy disconnects from the broker.
func (m *Module) Destroy(_ *engine.Context, state engine.State) {
	t := state.(*Telemetry)
	if err := t.broker.Close(); err != nil {
		t.log.Warn("closing broker connection failed", "error", err)
	}
}

// Observe queues a lifecycle event for publication.
func (m *Module) Observe(_ *engine.Context, state engine.State, ev engine.Event) {
	t := state.(*Telemetry)
	t.events = append(t.events, ev)
}
