package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/hap-engine/internal/engine"
	"github.com/nerrad567/hap-engine/internal/infrastructure/influxdb"
	"github.com/nerrad567/hap-engine/internal/ini"
)

type influxStub struct {
	*httptest.Server

	mu    sync.Mutex
	lines []string
}

func newInfluxStub(t *testing.T) *influxStub {
	t.Helper()
	s := &influxStub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
		s.mu.Lock()
		s.lines = append(s.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *influxStub) matching(parts ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
next:
	for _, line := range s.lines {
		for _, p := range parts {
			if !strings.Contains(line, p) {
				continue next
			}
		}
		out = append(out, line)
	}
	return out
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func section(t *testing.T, body string) *ini.Section {
	t.Helper()
	cfg, err := ini.Parse(strings.NewReader("[metrics]\n"+body), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s, _ := cfg.Section(ID)
	return s
}

func TestCreate_RequiredOptions(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing string
	}{
		{"no token", "org=hap\nbucket=engine\n", "token"},
		{"no org", "token=t\nbucket=engine\n", "org"},
		{"no bucket", "token=t\norg=hap\n", "bucket"},
		{"bad batch size", "token=t\norg=hap\nbucket=engine\nbatch_size=0\n", "batch_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := engine.NewContext(engine.Options{})
			_, err := New().Create(ctx, section(t, tt.body))
			if err == nil {
				t.Fatal("Create() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("Create() error = %v, want mention of %q", err, tt.missing)
			}
		})
	}
}

func TestCreate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ctx := engine.NewContext(engine.Options{})
	_, err := New().Create(ctx, section(t, "url="+url+"\ntoken=t\norg=hap\nbucket=engine\n"))
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Create() error = %v, want ErrConnectionFailed", err)
	}
}

func TestLifecycle(t *testing.T) {
	srv := newInfluxStub(t)
	ctx := engine.NewContext(engine.Options{Name: "HAP"})
	m := New()

	state, err := m.Create(ctx, section(t, "url="+srv.URL+"\ntoken=t\norg=hap\nbucket=engine\ninterval=2s\n"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := m.Load(ctx, state, ID); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	obs := m.(engine.Observer)
	obs.Observe(ctx, state, engine.Event{Module: "video", Kind: engine.EventLoaded, At: time.Now()})
	obs.Observe(ctx, state, engine.Event{Module: "journal", Kind: engine.EventFailed, At: time.Now(), Err: errors.New("disk full")})
	obs.Observe(ctx, state, engine.Event{Module: "journal", Kind: engine.EventDestroyed, At: time.Now()})

	met := state.(*Metrics)
	if met.Modules() != 2 {
		t.Errorf("Modules() = %d, want 2", met.Modules())
	}

	before := time.Now()
	next, err := m.Update(ctx, state)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if next.Before(before.Add(2 * time.Second)) {
		t.Errorf("next update %v is earlier than one interval", next)
	}
	if met.Samples() != 1 {
		t.Errorf("Samples() = %d, want 1", met.Samples())
	}

	m.Unload(ctx, state)
	m.Destroy(ctx, state)

	// One runtime sample plus three lifecycle events.
	if !waitFor(func() bool { return len(srv.matching("engine=HAP")) == 4 }) {
		t.Fatalf("written lines = %v", srv.matching(""))
	}
	runtime := srv.matching("runtime,")[0]
	for _, want := range []string{"engine=HAP", "run_id=" + ctx.RunID(), "modules=2i", "updates=1i"} {
		if !strings.Contains(runtime, want) {
			t.Errorf("runtime line %q missing %q", runtime, want)
		}
	}

	if got := srv.matching(MeasurementModuleEvent+",", "module=video", "event=loaded"); len(got) != 1 {
		t.Errorf("video loaded lines = %v", got)
	}
	if got := srv.matching(MeasurementModuleEvent+",", "module=journal", "event=failed", `error="disk full"`); len(got) != 1 {
		t.Errorf("journal failed lines = %v", got)
	}
}
