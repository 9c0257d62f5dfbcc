package status

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/hap-engine/internal/api"
	"github.com/nerrad567/hap-engine/internal/engine"
	"github.com/nerrad567/hap-engine/internal/ini"
)

func section(t *testing.T, body string) *ini.Section {
	t.Helper()
	cfg, err := ini.Parse(strings.NewReader("[status]\n"+body), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s, _ := cfg.Section(ID)
	return s
}

func start(t *testing.T) (*engine.Context, engine.Module, *Status) {
	t.Helper()
	ctx := engine.NewContext(engine.Options{Name: "HAP", Version: "test"})
	m := New()
	state, err := m.Create(ctx, section(t, "port=0\ninterval=50ms\n"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { m.Destroy(ctx, state) })
	return ctx, m, state.(*Status)
}

func fetchStatus(t *testing.T, s *Status) api.Status {
	t.Helper()
	resp, err := http.Get("http://" + s.Server().Addr() + "/api/v1/status") //nolint:gosec,noctx // test URL
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	var got api.Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	return got
}

func TestCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port not a number", "port=http\n"},
		{"port out of range", "port=70000\n"},
		{"interval zero", "port=0\ninterval=0\n"},
		{"tls without key", "port=0\ntls_cert=cert.pem\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := engine.NewContext(engine.Options{})
			if _, err := New().Create(ctx, section(t, tt.body)); err == nil {
				t.Error("Create() error = nil, want error")
			}
		})
	}
}

func TestCreate_PortInUse(t *testing.T) {
	_, _, first := start(t)
	port := first.Server().Addr()[strings.LastIndex(first.Server().Addr(), ":")+1:]

	ctx := engine.NewContext(engine.Options{})
	if _, err := New().Create(ctx, section(t, "port="+port+"\n")); err == nil {
		t.Error("Create() on busy port: error = nil")
	}
}

func TestStatusSnapshot(t *testing.T) {
	ctx, m, s := start(t)

	obs := m.(engine.Observer)
	now := time.Now()
	obs.Observe(ctx, s, engine.Event{Module: "video", Kind: engine.EventCreated, At: now})
	obs.Observe(ctx, s, engine.Event{Module: "journal", Kind: engine.EventCreated, At: now})
	obs.Observe(ctx, s, engine.Event{Module: "video", Kind: engine.EventLoaded, At: now})
	obs.Observe(ctx, s, engine.Event{Module: "journal", Kind: engine.EventFailed, At: now, Err: errors.New("disk full")})
	for range 3 {
		m.Render(ctx, s)
	}

	got := fetchStatus(t, s)
	if got.Engine != "HAP" || got.RunID != ctx.RunID() || got.Version != "test" {
		t.Errorf("status = %+v", got)
	}
	if got.Renders != 3 {
		t.Errorf("Renders = %d, want 3", got.Renders)
	}
	want := []api.ModuleStatus{
		{Identifier: "video", State: "loaded"},
		{Identifier: "journal", State: "failed", Error: "disk full"},
	}
	if len(got.Modules) != len(want) {
		t.Fatalf("Modules = %+v", got.Modules)
	}
	for i, w := range want {
		g := got.Modules[i]
		if g.Identifier != w.Identifier || g.State != w.State || g.Error != w.Error {
			t.Errorf("Modules[%d] = %+v, want %+v", i, g, w)
		}
	}
}

func TestUpdate_BroadcastsStatus(t *testing.T) {
	ctx, m, s := start(t)

	url := "ws://" + s.Server().Addr() + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	resp.Body.Close()
	defer conn.Close()

	err = conn.WriteJSON(api.WSMessage{
		Type:    api.WSTypeSubscribe,
		ID:      "1",
		Payload: api.WSSubscribePayload{Channels: []string{api.ChannelStatus}},
	})
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ack api.WSMessage
	if err := conn.ReadJSON(&ack); err != nil || ack.Type != api.WSTypeResponse {
		t.Fatalf("subscribe ack = %+v, err = %v", ack, err)
	}

	m.Render(ctx, s)
	before := time.Now()
	next, err := m.Update(ctx, s)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if next.Before(before.Add(50 * time.Millisecond)) {
		t.Errorf("next update %v is earlier than one interval", next)
	}

	var ev struct {
		Type      string     `json:"type"`
		EventType string     `json:"event_type"`
		Payload   api.Status `json:"payload"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if ev.EventType != api.ChannelStatus || ev.Payload.Engine != "HAP" || ev.Payload.Renders != 1 {
		t.Errorf("event = %+v", ev)
	}
}

func TestDestroy_StopsServer(t *testing.T) {
	ctx := engine.NewContext(engine.Options{})
	m := New()
	state, err := m.Create(ctx, section(t, "port=0\n"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	addr := state.(*Status).Server().Addr()

	m.Unload(ctx, state)
	m.Destroy(ctx, state)

	client := &http.Client{Timeout: time.Second}
	if resp, err := client.Get("http://" + addr + "/api/v1/health"); err == nil { //nolint:noctx // test
		resp.Body.Close()
		t.Error("server still answering after Destroy")
	}
}
